// Package jsonld reads offer prices out of the JSON-LD structured data that
// shops embed in their product pages.
//
// A product page typically carries something like:
//
//	<script type="application/ld+json">
//	{
//	    "@context": "https://schema.org",
//	    "@type": "Product",
//	    "name": "1 oz Gold Australian Kangaroo",
//	    "offers": {
//	        "@type": "Offer",
//	        "price": "2182.70",
//	        "priceCurrency": "EUR"
//	    }
//	}
//	</script>
package jsonld

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/elisemercury/pmcalc"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MediaType is the script type marking a JSON-LD block.
const MediaType = "application/ld+json"

// DefaultPaths are tried in order against the first block. schema.org lets
// "offers" be a single Offer or a list of them.
var DefaultPaths = []string{"$.offers.price", "$.offers[0].price"}

// Extractor implements pmcalc.Extractor for JSON-LD offers.
type Extractor struct {
	paths []string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithPath reads the price at a jsonpath expression instead of DefaultPaths.
func WithPath(path string) Option {
	return func(x *Extractor) {
		x.paths = []string{path}
	}
}

// New returns an Extractor.
func New(opts ...Option) *Extractor {
	x := &Extractor{paths: slices.Clone(DefaultPaths)}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract returns the price found in the first JSON-LD block of content.
// Every failure is a *pmcalc.ExtractionError.
func (x *Extractor) Extract(content []byte) (decimal.Decimal, error) {
	blocks, err := Blocks(content)
	if err != nil {
		return decimal.Zero, err
	}
	if len(blocks) == 0 {
		return decimal.Zero, &pmcalc.ExtractionError{Reason: "no " + MediaType + " block in page"}
	}
	// Several blocks: the first one wins.
	block := strings.TrimSpace(blocks[0])
	if block == "" {
		return decimal.Zero, &pmcalc.ExtractionError{Reason: "empty " + MediaType + " block"}
	}

	dec := json.NewDecoder(strings.NewReader(block))
	dec.UseNumber() // keep "2182.70" exact
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return decimal.Zero, &pmcalc.ExtractionError{Reason: "invalid " + MediaType + " block", Err: err}
	}
	// the block is exactly one JSON value.
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after the JSON value")
		}
		return decimal.Zero, &pmcalc.ExtractionError{Reason: "invalid " + MediaType + " block", Err: err}
	}

	jval, path, err := x.lookup(doc)
	if err != nil {
		return decimal.Zero, &pmcalc.ExtractionError{Reason: fmt.Sprintf("no price at %q", strings.Join(x.paths, ", ")), Err: err}
	}
	price, err := toDecimal(jval)
	if err != nil {
		return decimal.Zero, &pmcalc.ExtractionError{Reason: fmt.Sprintf("invalid price at %q", path), Err: err}
	}
	if !price.IsPositive() {
		return decimal.Zero, &pmcalc.ExtractionError{Reason: fmt.Sprintf("price at %q must be positive, got %s", path, price)}
	}
	return price, nil
}

// lookup returns the value at the first path that resolves.
func (x *Extractor) lookup(doc any) (jval any, path string, err error) {
	for _, path = range x.paths {
		jval, err = jsonpath.Get(path, doc)
		if err != nil {
			continue
		}
		// jsonpath is never clear about whether it returns a list of 1 answer, or a single answer:
		// keep the first one if any
		if jlist, ok := jval.([]any); ok {
			if len(jlist) == 0 {
				err = fmt.Errorf("%s: no match", path)
				continue
			}
			jval = jlist[0]
		}
		if jval == nil {
			err = fmt.Errorf("%s: null", path)
			continue
		}
		return jval, path, nil
	}
	return nil, path, err
}

// toDecimal reads a JSON number or a numeric string.
func toDecimal(jval any) (decimal.Decimal, error) {
	switch v := jval.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.Zero, fmt.Errorf("empty string")
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, fmt.Errorf("neither a number nor a string: %v (%T)", jval, jval)
	}
}

// Blocks returns the text of every JSON-LD script element of an HTML document,
// in document order.
func Blocks(content []byte) ([]string, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, &pmcalc.ExtractionError{Reason: "invalid html", Err: err}
	}
	var blocks []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if isJSONLD(n) {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			blocks = append(blocks, b.String())
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return blocks, nil
}

// isJSONLD reports whether n is a <script type="application/ld+json">.
// The type is matched case-insensitively and media type parameters are ignored.
func isJSONLD(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Script {
		return false
	}
	for _, a := range n.Attr {
		if a.Namespace != "" || !strings.EqualFold(a.Key, "type") {
			continue
		}
		mediaType, _, _ := strings.Cut(a.Val, ";")
		return strings.EqualFold(strings.TrimSpace(mediaType), MediaType)
	}
	return false
}
