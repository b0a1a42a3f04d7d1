package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"

	"github.com/elisemercury/pmcalc"
	"github.com/elisemercury/pmcalc/renderer"
	"github.com/google/subcommands"
)

// Formats accepted by -format.
var valueFormats = []string{"markdown", "raw", "json"}

type valueCmd struct {
	format   string
	parallel int
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "fetch current prices and display the portfolio value" }
func (*valueCmd) Usage() string {
	return `pmc value [-format markdown|raw|json] [-parallel <n>]

  Fetches the current price of every held item from its product page, and
  displays each subtotal and the total value of the portfolio.

  If any price cannot be fetched, nothing is displayed and the command fails.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "markdown", "Output format: markdown (rendered), raw (markdown text) or json")
	f.IntVar(&c.parallel, "parallel", 0, "Number of pages fetched at the same time (default from config, 1 is sequential)")
}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !validFormat(c.format) {
		fmt.Fprintf(stderr, "Error: unknown format %q\n", c.format)
		f.Usage()
		return subcommands.ExitUsageError
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return fail("could not load configuration: %v", err)
	}
	defer log.Sync()

	snap, err := newEngine(cfg, log, c.parallel).Evaluate(ctx)
	if err != nil {
		var eerr *pmcalc.EvaluationError
		if errors.As(err, &eerr) {
			return fail("could not value %q (%s): %v", eerr.Entry.Name, eerr.Entry.URL, eerr.Err)
		}
		return fail("%v", err)
	}

	switch c.format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fail("could not encode valuation: %v", err)
		}
	case "raw":
		fmt.Fprint(stdout, renderer.ValuationMarkdown(snap))
	default:
		printMarkdown(renderer.ValuationMarkdown(snap))
	}
	return subcommands.ExitSuccess
}

func validFormat(format string) bool {
	for _, f := range valueFormats {
		if f == format {
			return true
		}
	}
	return false
}
