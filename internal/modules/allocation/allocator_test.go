package allocation

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfreitas/quantfolio/internal/modules/statistics"
)

func testModel(t *testing.T) *statistics.Model {
	t.Helper()
	model, err := statistics.NewFromStatistics(
		[]string{"asset0", "asset1", "asset2"},
		[]float64{0.10, 0.20, 0.05},
		[][]float64{
			{0.04, 0.00, 0.00},
			{0.00, 0.09, 0.00},
			{0.00, 0.00, 0.01},
		},
	)
	require.NoError(t, err)
	return model
}

func TestAllocate_WeightsAndAmounts(t *testing.T) {
	model := testModel(t)
	alloc, err := New(zerolog.Nop()).Allocate([]int{0, 1}, model, 1000)
	require.NoError(t, err)
	require.Len(t, alloc.Lines, 2)

	sumWeights, sumAmounts := 0.0, 0.0
	for _, line := range alloc.Lines {
		assert.Greater(t, line.Weight, 0.0)
		sumWeights += line.Weight
		sumAmounts += line.Amount
	}
	assert.InDelta(t, 1.0, sumWeights, 1e-9, "weights must sum to 1")
	assert.InDelta(t, 1000.0, sumAmounts, 1e-6, "amounts must sum to budget")

	// Return-proportional: asset1 (0.20) gets twice asset0 (0.10).
	assert.InDelta(t, 2.0, alloc.Lines[1].Weight/alloc.Lines[0].Weight, 1e-9)
}

func TestAllocate_NegativeReturnGetsFloor(t *testing.T) {
	model, err := statistics.NewFromStatistics(
		[]string{"up", "down"},
		[]float64{0.10, -0.30},
		[][]float64{{0.04, 0.0}, {0.0, 0.09}},
	)
	require.NoError(t, err)

	alloc, err := New(zerolog.Nop()).Allocate([]int{0, 1}, model, 500)
	require.NoError(t, err)

	// The losing asset keeps a strictly positive but minimal share.
	assert.Greater(t, alloc.Lines[1].Weight, 0.0)
	assert.InDelta(t, WeightFloor/(0.10+WeightFloor), alloc.Lines[1].Weight, 1e-12)

	sum := alloc.Lines[0].Weight + alloc.Lines[1].Weight
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestAllocate_Errors(t *testing.T) {
	model := testModel(t)
	allocator := New(zerolog.Nop())

	_, err := allocator.Allocate([]int{0}, model, 0)
	assert.ErrorIs(t, err, ErrEmptyBudget)

	_, err = allocator.Allocate([]int{0}, model, -5)
	assert.ErrorIs(t, err, ErrEmptyBudget)

	_, err = allocator.Allocate(nil, model, 1000)
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = allocator.Allocate([]int{7}, model, 1000)
	assert.ErrorIs(t, err, statistics.ErrDimensionMismatch)
}

func TestAllocate_PortfolioMetrics(t *testing.T) {
	model := testModel(t)
	alloc, err := New(zerolog.Nop()).Allocate([]int{0, 1}, model, 1000)
	require.NoError(t, err)

	// w = (1/3, 2/3) over assets 0 and 1.
	wantReturn := 0.10/3 + 0.20*2/3
	assert.InDelta(t, wantReturn, alloc.ExpectedReturn, 1e-9)

	wantVariance := (1.0/9)*0.04 + (4.0/9)*0.09
	assert.InDelta(t, wantVariance, alloc.Variance, 1e-9)
	assert.Greater(t, alloc.Sharpe, 0.0)

	weights := alloc.Weights(model.N())
	require.Len(t, weights, 3)
	assert.Equal(t, 0.0, weights[2])
}

func TestAllocate_SingleAsset(t *testing.T) {
	model := testModel(t)
	alloc, err := New(zerolog.Nop()).Allocate([]int{2}, model, 250)
	require.NoError(t, err)
	require.Len(t, alloc.Lines, 1)
	assert.InDelta(t, 1.0, alloc.Lines[0].Weight, 1e-12)
	assert.InDelta(t, 250.0, alloc.Lines[0].Amount, 1e-9)
}
