package pmcalc

import (
	"fmt"
	"slices"
)

// LedgerEntry is one tracked item: what it is, where its price is published,
// and how many units are held.
type LedgerEntry struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Quantity int64  `json:"quantity"`
}

func (e LedgerEntry) String() string { return fmt.Sprintf("%s <%s>", e.Name, e.URL) }

// Ledger is an ordered, immutable catalog of held items, all priced in one currency.
type Ledger struct {
	currency string
	entries  []LedgerEntry
}

// NewLedger returns a Ledger holding entries in the given order.
func NewLedger(currency string, entries ...LedgerEntry) *Ledger {
	return &Ledger{currency: currency, entries: slices.Clone(entries)}
}

// Currency returns the currency every entry is priced in.
func (l *Ledger) Currency() string { return l.currency }

// Len returns the number of entries.
func (l *Ledger) Len() int { return len(l.entries) }

// Entries returns the entries in declaration order. The slice is a copy.
func (l *Ledger) Entries() []LedgerEntry { return slices.Clone(l.entries) }

// Validate checks that every entry is named, sourced and held in a positive quantity.
func (l *Ledger) Validate() error {
	for i, e := range l.entries {
		switch {
		case e.Name == "":
			return fmt.Errorf("entry #%d: missing name", i)
		case e.URL == "":
			return fmt.Errorf("entry #%d %q: missing url", i, e.Name)
		case e.Quantity <= 0:
			return fmt.Errorf("entry #%d %q: quantity must be positive, got %d", i, e.Name, e.Quantity)
		}
	}
	return nil
}

// catalog is the portfolio, as bought back by goldvorsorge.at.
var catalog = []LedgerEntry{
	{"1oz Gold Kangaroo", "https://ankauf.goldvorsorge.at/1-oz-gold-australian-kanguru-nugget.html", 13},
	{"100g Gold Bar", "https://ankauf.goldvorsorge.at/100g-goldbarren-argor-heraeus.html", 3},
	{"20g Gold Bar", "https://ankauf.goldvorsorge.at/20g-goldbarren-argor-heraeus.html", 9},
	{"10 Gulden Gold Coin", "https://ankauf.goldvorsorge.at/10-gulden-gold-wilhelmina.html", 1},
	{"1kg Silver Kookaburra Coin", "https://ankauf.goldvorsorge.at/1kg-silbermunze-kookaburra.html", 3},
	{"1oz Silver Kangaroo", "https://ankauf.goldvorsorge.at/1-oz-silber-kanguru.html", 655},
	{"1oz Palladium Bar", "https://ankauf.goldvorsorge.at/1-oz-palladium-diverse-hersteller.html", 1},
}

// DefaultLedger returns the compiled-in portfolio.
func DefaultLedger() *Ledger { return NewLedger("EUR", catalog...) }
