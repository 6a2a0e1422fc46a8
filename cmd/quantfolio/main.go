// Package main is the entry point for the Quantfolio portfolio optimizer.
// It exposes a CLI for one-shot optimization runs and a long-running HTTP
// server mode with a scheduled price cache refresh.
package main

import (
	"os"

	"github.com/mfreitas/quantfolio/cmd/quantfolio/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
