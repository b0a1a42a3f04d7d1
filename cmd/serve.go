package cmd

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/elisemercury/pmcalc/server"
	"github.com/gin-gonic/gin"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type serveCmd struct {
	addr     string
	parallel int
	warm     bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the portfolio valuation as a JSON API" }
func (*serveCmd) Usage() string {
	return `pmc serve [-addr <host:port>] [-parallel <n>] [-warm]

  Starts an HTTP server:

    GET  /health          liveness
    GET  /api/ledger      held items
    GET  /api/valuation   latest successful valuation
    POST /api/valuation   run a new valuation now

  A failed valuation is reported but never replaces the latest successful one.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address (default from config server.host:server.port)")
	f.IntVar(&c.parallel, "parallel", 0, "Number of pages fetched at the same time (default from config)")
	f.BoolVar(&c.warm, "warm", true, "Run a first valuation before serving")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, log, err := loadConfig()
	if err != nil {
		return fail("could not load configuration: %v", err)
	}
	defer log.Sync()

	addr := c.addr
	if addr == "" {
		addr = cfg.Server.Addr()
	}
	if !log.Core().Enabled(zap.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := newEngine(cfg, log, c.parallel)
	srv := server.New(engine, engine.Ledger(), log)

	if c.warm {
		if _, err := srv.Refresh(ctx); err != nil {
			// keep serving, the error is available on /api/valuation.
			log.Warn("first valuation failed", zap.Error(err))
		}
		if ctx.Err() != nil {
			return subcommands.ExitSuccess
		}
	}
	if err := srv.Run(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fail("server: %v", err)
	}
	return subcommands.ExitSuccess
}
