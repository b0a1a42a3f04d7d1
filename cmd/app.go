// Package cmd implements the pmc command line application.
package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/elisemercury/pmcalc"
	"github.com/elisemercury/pmcalc/config"
	"github.com/elisemercury/pmcalc/jsonld"
	"github.com/elisemercury/pmcalc/logger"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&valueCmd{}, "valuation")
	c.Register(&ledgerCmd{}, "valuation")
	c.Register(&extractCmd{}, "diagnostics")
	c.Register(&serveCmd{}, "server")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "pmc.toml", "Path to the configuration file (TOML, or YAML when named *.yaml)")
var envFile = flag.String("env-file", ".env", "Path to a KEY=value file loaded into the environment")

// where commands write, and what they value. Replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	ledger           = pmcalc.DefaultLedger
)

// loadConfig reads the app configuration and builds its logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	if err := config.LoadDotEnv(*envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("logging.level: %w", err)
	}
	return cfg, log, nil
}

// newSource returns the price source configured by cfg.
func newSource(cfg *config.Config, log *zap.Logger) *pmcalc.HTTPSource {
	return pmcalc.NewHTTPSource(jsonld.New(),
		pmcalc.WithTimeout(cfg.Fetch.GetTimeout()),
		pmcalc.WithRateLimit(cfg.Fetch.RateLimit),
		pmcalc.WithSourceLogger(log),
	)
}

// newEngine returns an engine valuing the default ledger. parallel overrides
// the configuration when positive.
func newEngine(cfg *config.Config, log *zap.Logger, parallel int) *pmcalc.Engine {
	workers := cfg.Fetch.Parallel
	if parallel > 0 {
		workers = parallel
	}
	return pmcalc.NewEngine(ledger(), newSource(cfg, log),
		pmcalc.WithParallel(workers),
		pmcalc.WithLogger(log),
	)
}

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	fmt.Fprint(stdout, out)
}

// fail prints err and returns the failure status.
func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}
