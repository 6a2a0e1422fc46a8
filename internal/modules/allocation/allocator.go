// Package allocation converts a discrete asset selection into capital weights.
package allocation

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/mfreitas/quantfolio/internal/modules/statistics"
)

var (
	// ErrEmptyBudget is returned when the budget is not positive.
	ErrEmptyBudget = errors.New("budget must be positive")
	// ErrEmptySelection is returned for an empty selection. The interpreter
	// contract makes this unreachable, but it is checked all the same.
	ErrEmptySelection = errors.New("empty selection")
)

// WeightFloor is the minimum raw weight assigned to a selected asset.
// Negative-return assets that survived selection get a strictly positive but
// minimal share instead of zero or a negative weight.
const WeightFloor = 1e-4

// Line is the allocation for a single selected asset.
type Line struct {
	Index          int     `json:"index"`
	Asset          string  `json:"asset"`
	Weight         float64 `json:"weight"`
	Amount         float64 `json:"amount"`
	ExpectedReturn float64 `json:"expected_return"`
}

// Allocation is the terminal output of one optimization run: per-asset
// weights and amounts plus the realized portfolio metrics over the final
// weight vector.
type Allocation struct {
	Lines          []Line  `json:"lines"`
	Budget         float64 `json:"budget"`
	ExpectedReturn float64 `json:"expected_return"` // annualized decimal
	Variance       float64 `json:"variance"`
	Volatility     float64 `json:"volatility"`
	Sharpe         float64 `json:"sharpe"`
}

// Weights returns the full-universe weight vector (zeros for unselected
// assets), sized to n.
func (a *Allocation) Weights(n int) []float64 {
	weights := make([]float64, n)
	for _, line := range a.Lines {
		if line.Index >= 0 && line.Index < n {
			weights[line.Index] = line.Weight
		}
	}
	return weights
}

// Allocator turns selections into budget allocations.
type Allocator struct {
	log zerolog.Logger
}

// New creates an allocator.
func New(log zerolog.Logger) *Allocator {
	return &Allocator{
		log: log.With().Str("component", "allocation").Logger(),
	}
}

// Allocate distributes the budget over the selected assets.
//
// Each selected asset's weight is proportional to max(expectedReturn, floor),
// renormalized to sum to 1; amounts are weight * budget. Portfolio return,
// variance and Sharpe are computed over the resulting full-universe weights.
func (al *Allocator) Allocate(selection []int, model *statistics.Model, budget float64) (*Allocation, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("%w: got %.2f", ErrEmptyBudget, budget)
	}
	if len(selection) == 0 {
		return nil, ErrEmptySelection
	}

	n := model.N()
	raw := make([]float64, len(selection))
	total := 0.0
	for i, idx := range selection {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("%w: index %d out of range for %d assets",
				statistics.ErrDimensionMismatch, idx, n)
		}
		raw[i] = math.Max(model.ExpectedReturn(idx), WeightFloor)
		total += raw[i]
	}

	assets := model.Assets()
	lines := make([]Line, len(selection))
	weights := make([]float64, n)
	for i, idx := range selection {
		w := raw[i] / total
		weights[idx] = w
		lines[i] = Line{
			Index:          idx,
			Asset:          assets[idx],
			Weight:         w,
			Amount:         w * budget,
			ExpectedReturn: model.ExpectedReturn(idx),
		}
	}

	portfolioReturn, err := model.PortfolioReturn(weights)
	if err != nil {
		return nil, err
	}
	variance, err := model.Risk(weights)
	if err != nil {
		return nil, err
	}
	volatility := math.Sqrt(math.Max(variance, 0))

	sharpe := 0.0
	if volatility > 0 {
		sharpe = portfolioReturn / volatility
	}

	al.log.Info().
		Int("assets", len(lines)).
		Float64("budget", budget).
		Float64("expected_return", portfolioReturn).
		Float64("volatility", volatility).
		Float64("sharpe", sharpe).
		Msg("Allocated budget")

	return &Allocation{
		Lines:          lines,
		Budget:         budget,
		ExpectedReturn: portfolioReturn,
		Variance:       variance,
		Volatility:     volatility,
		Sharpe:         sharpe,
	}, nil
}
