package renderer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elisemercury/pmcalc"
	md "github.com/nao1215/markdown"
)

// ValuationMarkdown renders a snapshot: the total first, then one row per
// entry with its name linking to the page the price was read from.
func ValuationMarkdown(s *pmcalc.Snapshot) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Precious Metals Portfolio Value")
	doc.H2(fmt.Sprintf("Total Portfolio Value: %s", s.Total()))
	doc.PlainText(fmt.Sprintf("Evaluated at %s.", s.EvaluatedAt().Format(time.RFC1123)))

	doc.H2("Portfolio Breakdown")
	rows := make([][]string, 0, s.Len())
	for _, e := range s.Entries() {
		rows = append(rows, []string{
			link(e.Entry.Name, e.Entry.URL),
			strconv.FormatInt(e.Entry.Quantity, 10),
			e.Price.String(),
			e.Subtotal.String(),
		})
	}
	doc.PlainText(table([]string{"Name", "Quantity", "Price", "Subtotal"}, "|:---|---:|---:|---:|", rows))

	return doc.String()
}

// LedgerMarkdown renders the held items without any price.
func LedgerMarkdown(l *pmcalc.Ledger) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Portfolio")
	doc.PlainText(fmt.Sprintf("%d items priced in %s.", l.Len(), l.Currency()))
	rows := make([][]string, 0, l.Len())
	for _, e := range l.Entries() {
		rows = append(rows, []string{
			link(e.Name, e.URL),
			strconv.FormatInt(e.Quantity, 10),
		})
	}
	doc.PlainText(table([]string{"Name", "Quantity"}, "|:---|---:|", rows))
	return doc.String()
}

// table renders a GFM table, one line per row whatever the cell width.
func table(header []string, align string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n| %s |\n", strings.Join(header, " | "))
	fmt.Fprintln(&b, align)
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s |\n", strings.Join(row, " | "))
	}
	return b.String()
}

// link returns a markdown link safe to use inside a table cell.
func link(text, url string) string {
	return fmt.Sprintf("[%s](%s)", escapeCell(text), strings.ReplaceAll(url, " ", "%20"))
}

var cellEscaper = strings.NewReplacer("|", `\|`, "[", `\[`, "]", `\]`, "\n", " ")

func escapeCell(s string) string { return cellEscaper.Replace(s) }
