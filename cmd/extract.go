package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/elisemercury/pmcalc"
	"github.com/elisemercury/pmcalc/jsonld"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type extractCmd struct {
	path   string
	blocks bool
}

func (*extractCmd) Name() string     { return "extract" }
func (*extractCmd) Synopsis() string { return "read the price of a single product page" }
func (*extractCmd) Usage() string {
	return `pmc extract [-path <jsonpath>] [-blocks] <url|file>

  Reads the price out of a product page, either downloaded from a URL or
  read from a saved file. Useful to check a page after the shop changed it.

  -blocks prints every JSON-LD block found instead of the price.
`
}

func (c *extractCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.path, "path", "", "jsonpath of the price (default: the offer price)")
	f.BoolVar(&c.blocks, "blocks", false, "print the JSON-LD blocks of the page")
}

func (c *extractCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one url or file is required.")
		f.Usage()
		return subcommands.ExitUsageError
	}
	target := f.Arg(0)

	var opts []jsonld.Option
	if c.path != "" {
		opts = append(opts, jsonld.WithPath(c.path))
	}
	x := jsonld.New(opts...)

	if !isURL(target) {
		content, err := os.ReadFile(target)
		if err != nil {
			return fail("could not read %q: %v", target, err)
		}
		if c.blocks {
			return printBlocks(content)
		}
		price, err := x.Extract(content)
		if err != nil {
			return fail("%s: %v", target, err)
		}
		fmt.Fprintln(stdout, price.StringFixed(2))
		return subcommands.ExitSuccess
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return fail("could not load configuration: %v", err)
	}
	defer log.Sync()

	var content []byte
	capture := func(b []byte) (decimal.Decimal, error) {
		content = b
		if c.blocks {
			return decimal.NewFromInt(1), nil
		}
		return x.Extract(b)
	}
	src := newSource(cfg, log)
	price, err := src.WithExtractor(pmcalc.ExtractorFunc(capture)).FetchPrice(ctx, target)
	if err != nil {
		return fail("%s: %v", target, err)
	}
	if c.blocks {
		return printBlocks(content)
	}
	fmt.Fprintln(stdout, price.StringFixed(2))
	return subcommands.ExitSuccess
}

func printBlocks(content []byte) subcommands.ExitStatus {
	blocks, err := jsonld.Blocks(content)
	if err != nil {
		return fail("%v", err)
	}
	if len(blocks) == 0 {
		return fail("no %s block found", jsonld.MediaType)
	}
	for i, b := range blocks {
		fmt.Fprintf(stdout, "--- block %d ---\n%s\n", i, strings.TrimSpace(b))
	}
	return subcommands.ExitSuccess
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
