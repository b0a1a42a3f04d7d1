// Package pmcalc values a fixed portfolio of precious metal products at their
// current dealer prices.
//
// A [Ledger] lists what is held: a product name, the dealer page quoting its
// price and the number of units. An [Engine] reads the current price of every
// entry through a [PriceSource], usually an [HTTPSource] that downloads the
// product page and hands it to an [Extractor] (see package jsonld), and returns
// a [Snapshot] with one priced line per entry and the portfolio total.
//
// Valuations are all-or-nothing: if any entry cannot be priced, [Engine.Evaluate]
// returns an [*EvaluationError] naming that entry and no partial total.
// Amounts are decimal and never go through float64.
package pmcalc
