package cmd

import (
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion describes the pmc command line for shell completion.
func Completion() *complete.Command {
	global := map[string]complete.Predictor{
		"config":   predict.Files("*"),
		"env-file": predict.Files("*"),
	}
	with := func(flags map[string]complete.Predictor) map[string]complete.Predictor {
		for k, v := range global {
			flags[k] = v
		}
		return flags
	}
	return &complete.Command{
		Flags: global,
		Sub: map[string]*complete.Command{
			"value": {Flags: with(map[string]complete.Predictor{
				"format":   predict.Set(valueFormats),
				"parallel": predict.Something,
			})},
			"ledger": {Flags: with(map[string]complete.Predictor{
				"raw": predict.Nothing,
			})},
			"extract": {
				Flags: with(map[string]complete.Predictor{
					"path":   predict.Something,
					"blocks": predict.Nothing,
				}),
				Args: predict.Files("*.html"),
			},
			"serve": {Flags: with(map[string]complete.Predictor{
				"addr":     predict.Something,
				"parallel": predict.Something,
				"warm":     predict.Nothing,
			})},
			"help":     {},
			"flags":    {},
			"commands": {},
		},
	}
}
