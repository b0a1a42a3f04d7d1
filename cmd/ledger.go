package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/elisemercury/pmcalc/renderer"
	"github.com/google/subcommands"
)

type ledgerCmd struct {
	raw bool
}

func (*ledgerCmd) Name() string     { return "ledger" }
func (*ledgerCmd) Synopsis() string { return "display the held items, without fetching any price" }
func (*ledgerCmd) Usage() string {
	return `pmc ledger [-raw]

  Displays the items of the portfolio, their quantity, and the page their
  price is read from.
`
}

func (c *ledgerCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "print markdown text instead of rendering it")
}

func (c *ledgerCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	md := renderer.LedgerMarkdown(ledger())
	if c.raw {
		fmt.Fprint(stdout, md)
	} else {
		printMarkdown(md)
	}
	return subcommands.ExitSuccess
}
