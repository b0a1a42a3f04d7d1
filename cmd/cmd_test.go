package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/elisemercury/pmcalc"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/require"
)

// productPage returns a product page carrying price in its JSON-LD offer.
func productPage(price string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"Product","offers":{"@type":"Offer","price":%q,"priceCurrency":"EUR"},"buyback":{"price":"1.25"}}
</script>
</head><body><h1>product</h1></body></html>`, price)
}

// shop serves product pages; the silver page can be taken down.
type shop struct {
	*httptest.Server
	silverGone atomic.Bool
}

func newShop(t *testing.T) *shop {
	t.Helper()
	s := &shop{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/gold.html":
			fmt.Fprint(w, productPage("2182.70"))
		case r.URL.Path == "/silver.html" && !s.silverGone.Load():
			fmt.Fprint(w, productPage("31.45"))
		case r.URL.Path == "/breadcrumbs.html":
			fmt.Fprint(w, `<html><head><script type="application/ld+json">{"@type":"BreadcrumbList"}</script></head></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *shop) ledger() *pmcalc.Ledger {
	return pmcalc.NewLedger("EUR",
		pmcalc.LedgerEntry{Name: "1oz Gold Kangaroo", URL: s.URL + "/gold.html", Quantity: 13},
		pmcalc.LedgerEntry{Name: "1oz Silver Kangaroo", URL: s.URL + "/silver.html", Quantity: 655},
	)
}

// output captures what a command writes.
type output struct {
	stdout, stderr bytes.Buffer
}

// setup points the package globals at s and at an empty configuration, and
// restores them when the test ends.
func setup(t *testing.T, s *shop) *output {
	t.Helper()
	out := &output{}
	oldStdout, oldStderr, oldLedger := stdout, stderr, ledger
	oldConfig, oldEnv := configFile, envFile
	t.Cleanup(func() {
		stdout, stderr, ledger = oldStdout, oldStderr, oldLedger
		configFile, envFile = oldConfig, oldEnv
	})

	stdout, stderr = &out.stdout, &out.stderr
	if s != nil {
		ledger = s.ledger
	}
	dir := t.TempDir()
	cfg, env := filepath.Join(dir, "pmc.toml"), filepath.Join(dir, ".env")
	configFile, envFile = &cfg, &env
	t.Setenv("PMC_LOG_LEVEL", "error")
	return out
}

// run parses args for c and executes it.
func run(t *testing.T, ctx context.Context, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	f.SetOutput(io.Discard)
	c.SetFlags(f)
	require.NoError(t, f.Parse(args))
	return c.Execute(ctx, f)
}
