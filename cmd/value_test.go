package cmd

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueJSON(t *testing.T) {
	out := setup(t, newShop(t))

	status := run(t, context.Background(), &valueCmd{}, "-format", "json", "-parallel", "2")
	require.Equal(t, subcommands.ExitSuccess, status, out.stderr.String())

	type amount struct {
		Amount json.Number `json:"amount"`
	}
	var got struct {
		Currency string `json:"currency"`
		Total    amount `json:"total"`
		Entries  []struct {
			Name     string `json:"name"`
			Subtotal amount `json:"subtotal"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(out.stdout.Bytes(), &got), out.stdout.String())
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, "48974.85", got.Total.Amount.String())
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "1oz Gold Kangaroo", got.Entries[0].Name)
	assert.Equal(t, "20599.75", got.Entries[1].Subtotal.Amount.String())
}

func TestValueRaw(t *testing.T) {
	out := setup(t, newShop(t))

	status := run(t, context.Background(), &valueCmd{}, "-format", "raw")
	require.Equal(t, subcommands.ExitSuccess, status, out.stderr.String())
	assert.Contains(t, out.stdout.String(), "Total Portfolio Value: €48,974.85")
	assert.Contains(t, out.stdout.String(), "| [1oz Silver Kangaroo](")
}

func TestValueMarkdown(t *testing.T) {
	out := setup(t, newShop(t))

	status := run(t, context.Background(), &valueCmd{})
	require.Equal(t, subcommands.ExitSuccess, status, out.stderr.String())
	assert.NotEmpty(t, out.stdout.String())
}

func TestValueFailureNamesEntry(t *testing.T) {
	s := newShop(t)
	s.silverGone.Store(true)
	out := setup(t, s)

	status := run(t, context.Background(), &valueCmd{}, "-format", "json")
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Empty(t, out.stdout.String(), "nothing partial is printed")
	assert.Contains(t, out.stderr.String(), `could not value "1oz Silver Kangaroo"`)
	assert.Contains(t, out.stderr.String(), "status 404")
}

func TestValueUnknownFormat(t *testing.T) {
	out := setup(t, newShop(t))

	status := run(t, context.Background(), &valueCmd{}, "-format", "xml")
	assert.Equal(t, subcommands.ExitUsageError, status)
	assert.Contains(t, out.stderr.String(), `unknown format "xml"`)
	assert.Empty(t, out.stdout.String())
}

func TestLedgerRaw(t *testing.T) {
	s := newShop(t)
	out := setup(t, s)

	status := run(t, context.Background(), &ledgerCmd{}, "-raw")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out.stdout.String(), "("+s.URL+"/gold.html)")
	assert.Contains(t, out.stdout.String(), "| 655 |")
}
