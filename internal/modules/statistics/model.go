// Package statistics derives expected returns and covariance from price history.
package statistics

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mfreitas/quantfolio/pkg/formulas"
)

// minAlignedReturns is the smallest aligned return length with a defined
// sample covariance; one return would divide by n-1 = 0 and yield NaN.
const minAlignedReturns = 2

var (
	// ErrInsufficientData is returned when an asset has too few price points
	// for a defined covariance.
	ErrInsufficientData = errors.New("insufficient price history")
	// ErrDimensionMismatch is returned when a weight vector does not match the universe size.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Model holds annualized return and risk statistics for an asset universe.
// The universe order defines the index mapping used by every downstream
// component; a Model is built once per optimization run and never mutated.
type Model struct {
	assets         []string
	expectedReturn []float64 // annualized decimal returns
	cov            *mat.SymDense
}

// Build computes a Model from daily close prices.
//
// Expected returns are annualized log-return means (mean * 252) and the
// covariance matrix is the annualized sample covariance of log returns.
// Series of different lengths are aligned on their trailing overlap, so the
// most recent observations are always the ones compared.
func Build(universe []string, prices map[string][]float64) (*Model, error) {
	n := len(universe)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty asset universe", ErrInsufficientData)
	}

	returns := make([][]float64, n)
	minLen := -1
	for i, asset := range universe {
		series, ok := prices[asset]
		if !ok || len(series) < minAlignedReturns+1 {
			return nil, fmt.Errorf("%w: asset %s has %d price points, need at least %d",
				ErrInsufficientData, asset, len(series), minAlignedReturns+1)
		}
		r := formulas.LogReturns(series)
		returns[i] = r
		if minLen < 0 || len(r) < minLen {
			minLen = len(r)
		}
	}

	// Trailing alignment across assets; every series carries at least
	// minAlignedReturns returns, so the aligned covariance stays defined.
	for i := range returns {
		returns[i] = returns[i][len(returns[i])-minLen:]
	}

	expected := make([]float64, n)
	for i := range returns {
		expected[i] = formulas.Mean(returns[i]) * formulas.TradingDaysPerYear
	}

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := formulas.Covariance(returns[i], returns[j]) * formulas.TradingDaysPerYear
			cov.SetSym(i, j, c)
		}
	}

	assets := make([]string, n)
	copy(assets, universe)

	return &Model{
		assets:         assets,
		expectedReturn: expected,
		cov:            cov,
	}, nil
}

// NewFromStatistics builds a Model directly from precomputed statistics.
// Used for the simulated dataset and in tests; the covariance matrix must be
// symmetric and sized n x n.
func NewFromStatistics(assets []string, expectedReturn []float64, covariance [][]float64) (*Model, error) {
	n := len(assets)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty asset universe", ErrInsufficientData)
	}
	if len(expectedReturn) != n || len(covariance) != n {
		return nil, fmt.Errorf("%w: expected %d assets, got %d returns and %d covariance rows",
			ErrDimensionMismatch, n, len(expectedReturn), len(covariance))
	}

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if len(covariance[i]) != n {
			return nil, fmt.Errorf("%w: covariance row %d has %d columns, expected %d",
				ErrDimensionMismatch, i, len(covariance[i]), n)
		}
		for j := i; j < n; j++ {
			cov.SetSym(i, j, covariance[i][j])
		}
	}

	mu := make([]float64, n)
	copy(mu, expectedReturn)
	names := make([]string, n)
	copy(names, assets)

	return &Model{assets: names, expectedReturn: mu, cov: cov}, nil
}

// N returns the universe size.
func (m *Model) N() int {
	return len(m.assets)
}

// Assets returns the ordered asset identifiers.
func (m *Model) Assets() []string {
	out := make([]string, len(m.assets))
	copy(out, m.assets)
	return out
}

// ExpectedReturn returns the annualized expected return for asset i.
func (m *Model) ExpectedReturn(i int) float64 {
	return m.expectedReturn[i]
}

// ExpectedReturns returns a copy of the annualized expected return vector.
func (m *Model) ExpectedReturns() []float64 {
	out := make([]float64, len(m.expectedReturn))
	copy(out, m.expectedReturn)
	return out
}

// Covariance returns the annualized covariance between assets i and j.
func (m *Model) Covariance(i, j int) float64 {
	return m.cov.At(i, j)
}

// Risk computes the portfolio variance w'Σw.
func (m *Model) Risk(weights []float64) (float64, error) {
	if len(weights) != m.N() {
		return 0, fmt.Errorf("%w: got %d weights for %d assets", ErrDimensionMismatch, len(weights), m.N())
	}
	w := mat.NewVecDense(len(weights), weights)
	var tmp mat.VecDense
	tmp.MulVec(m.cov, w)
	return mat.Dot(w, &tmp), nil
}

// PortfolioReturn computes the expected portfolio return μ'w.
func (m *Model) PortfolioReturn(weights []float64) (float64, error) {
	if len(weights) != m.N() {
		return 0, fmt.Errorf("%w: got %d weights for %d assets", ErrDimensionMismatch, len(weights), m.N())
	}
	return floats.Dot(weights, m.expectedReturn), nil
}
