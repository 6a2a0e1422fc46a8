// Package report renders optimization results as plain-text summaries for
// the CLI and logs.
package report

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mfreitas/quantfolio/internal/modules/portfolio"
	"github.com/mfreitas/quantfolio/pkg/formulas"
)

// Reporter formats optimization results.
type Reporter struct {
	log zerolog.Logger
}

// New creates a new reporter.
func New(log zerolog.Logger) *Reporter {
	return &Reporter{
		log: log.With().Str("component", "report").Logger(),
	}
}

// Render produces a plain-text summary of an optimization run. The prices
// map is optional; when a selected asset has price history, each line gets a
// moving-average trend marker.
func (rp *Reporter) Render(result *portfolio.Result, prices map[string][]float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s (%s sampler)\n", result.RunID, result.Sampler)
	fmt.Fprintf(&b, "Universe: %s\n", strings.Join(result.Universe, ", "))
	fmt.Fprintf(&b, "Selected: %s\n", strings.Join(result.SelectedAssets, ", "))
	fmt.Fprintf(&b, "Objective: %.6f  Energy: %.6f\n", result.Objective, result.Energy)

	alloc := result.Allocation
	if alloc == nil {
		return b.String()
	}

	b.WriteString("\nAllocation:\n")
	for _, line := range alloc.Lines {
		trend := ""
		if closes, ok := prices[line.Asset]; ok {
			trend = fmt.Sprintf("  trend=%s", formulas.TrendSignal(closes))
		}
		fmt.Fprintf(&b, "  %-8s %6.2f%%  %12.2f  exp.return %+.2f%%%s\n",
			line.Asset,
			line.Weight*100,
			line.Amount,
			line.ExpectedReturn*100,
			trend,
		)
	}

	fmt.Fprintf(&b, "\nBudget: %.2f\n", alloc.Budget)
	fmt.Fprintf(&b, "Expected return: %+.2f%%  Volatility: %.2f%%  Sharpe: %.2f\n",
		alloc.ExpectedReturn*100,
		alloc.Volatility*100,
		alloc.Sharpe,
	)

	return b.String()
}
