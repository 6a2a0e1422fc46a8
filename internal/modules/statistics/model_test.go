package statistics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_AnnualizedLogReturns(t *testing.T) {
	// Constant 1% daily growth: log return is ln(1.01) every day
	prices := []float64{100}
	for i := 0; i < 10; i++ {
		prices = append(prices, prices[len(prices)-1]*1.01)
	}

	model, err := Build([]string{"AAA"}, map[string][]float64{"AAA": prices})
	require.NoError(t, err)
	require.Equal(t, 1, model.N())

	expected := math.Log(1.01) * 252
	assert.InDelta(t, expected, model.ExpectedReturn(0), 1e-9)

	// Zero variance for a deterministic series
	assert.InDelta(t, 0.0, model.Covariance(0, 0), 1e-12)
}

func TestBuild_InsufficientData(t *testing.T) {
	_, err := Build([]string{"AAA", "BBB"}, map[string][]float64{
		"AAA": {100, 101, 102},
		"BBB": {50},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Build([]string{"AAA"}, map[string][]float64{})
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Build(nil, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestBuild_TwoPointSeriesRejected(t *testing.T) {
	// Two prices give a single log return, whose sample covariance divides
	// by zero. That must fail loudly instead of leaking NaN into the model.
	_, err := Build([]string{"AAA", "BBB"}, map[string][]float64{
		"AAA": {100, 101},
		"BBB": {50, 49},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestBuild_ThreePointSeriesDefined(t *testing.T) {
	model, err := Build([]string{"AAA"}, map[string][]float64{
		"AAA": {100, 101, 99},
	})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(model.Covariance(0, 0)))
	assert.GreaterOrEqual(t, model.Covariance(0, 0), 0.0)
}

func TestBuild_TrailingAlignment(t *testing.T) {
	// BBB has a longer history; only the trailing overlap should be used,
	// so the covariance matrix stays well defined.
	long := make([]float64, 60)
	short := make([]float64, 30)
	rng := rand.New(rand.NewSource(7))
	long[0], short[0] = 100, 200
	for i := 1; i < len(long); i++ {
		long[i] = long[i-1] * (1 + rng.NormFloat64()*0.01)
	}
	for i := 1; i < len(short); i++ {
		short[i] = short[i-1] * (1 + rng.NormFloat64()*0.01)
	}

	model, err := Build([]string{"AAA", "BBB"}, map[string][]float64{
		"AAA": short,
		"BBB": long,
	})
	require.NoError(t, err)

	assert.False(t, math.IsNaN(model.Covariance(0, 1)))
	assert.InDelta(t, model.Covariance(0, 1), model.Covariance(1, 0), 1e-15)
}

func TestModel_RiskNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := 4
	prices := make(map[string][]float64)
	universe := []string{"A", "B", "C", "D"}
	for _, asset := range universe {
		series := []float64{100}
		for i := 0; i < 100; i++ {
			series = append(series, series[len(series)-1]*math.Exp(rng.NormFloat64()*0.02))
		}
		prices[asset] = series
	}

	model, err := Build(universe, prices)
	require.NoError(t, err)

	// Sample covariance is positive semi-definite, so any weight vector
	// summing to 1 must have non-negative variance.
	for trial := 0; trial < 50; trial++ {
		weights := make([]float64, n)
		sum := 0.0
		for i := range weights {
			weights[i] = rng.Float64()
			sum += weights[i]
		}
		for i := range weights {
			weights[i] /= sum
		}

		risk, err := model.Risk(weights)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, risk, -1e-12, "portfolio variance must be non-negative")
	}
}

func TestModel_DimensionMismatch(t *testing.T) {
	model, err := NewFromStatistics(
		[]string{"A", "B"},
		[]float64{0.10, 0.20},
		[][]float64{{0.04, 0.0}, {0.0, 0.09}},
	)
	require.NoError(t, err)

	_, err = model.Risk([]float64{1.0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = model.PortfolioReturn([]float64{0.5, 0.3, 0.2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestModel_PortfolioReturn(t *testing.T) {
	model, err := NewFromStatistics(
		[]string{"A", "B"},
		[]float64{0.10, 0.20},
		[][]float64{{0.04, 0.0}, {0.0, 0.09}},
	)
	require.NoError(t, err)

	ret, err := model.PortfolioReturn([]float64{0.5, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.15, ret, 1e-12)

	risk, err := model.Risk([]float64{0.5, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.25*0.04+0.25*0.09, risk, 1e-12)
}

func TestNewFromStatistics_Validation(t *testing.T) {
	_, err := NewFromStatistics([]string{"A", "B"}, []float64{0.1}, [][]float64{{1, 0}, {0, 1}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = NewFromStatistics([]string{"A"}, []float64{0.1}, [][]float64{{1, 0}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
