package solver

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfreitas/quantfolio/internal/modules/qubo"
	"github.com/mfreitas/quantfolio/internal/modules/statistics"
)

func testObjective(t *testing.T) *qubo.Objective {
	t.Helper()
	model, err := statistics.NewFromStatistics(
		[]string{"A", "B", "C", "D"},
		[]float64{0.10, 0.20, 0.05, -0.02},
		[][]float64{
			{0.04, 0.01, 0.00, 0.00},
			{0.01, 0.09, 0.00, 0.00},
			{0.00, 0.00, 0.01, 0.00},
			{0.00, 0.00, 0.00, 0.02},
		},
	)
	require.NoError(t, err)

	obj, err := qubo.Build(model, qubo.Constraints{MinAssets: 2, MaxAssets: 3, RiskAversion: 0.5})
	require.NoError(t, err)
	return obj
}

func TestExhaustiveSampler_SortedAndComplete(t *testing.T) {
	obj := testObjective(t)
	sampler := NewExhaustiveSampler(zerolog.Nop())

	samples, err := sampler.Sample(context.Background(), obj, Options{Layers: 1, MaxIterations: 1})
	require.NoError(t, err)
	require.Len(t, samples, 16)

	for i := 1; i < len(samples); i++ {
		assert.LessOrEqual(t, samples[i-1].Energy, samples[i].Energy, "samples must be sorted by energy")
	}
	for _, s := range samples {
		require.Len(t, s.Bits, obj.N())
		assert.InDelta(t, obj.Energy(s.Bits), s.Energy, 1e-12, "energy must be consistent with Q")
		assert.InDelta(t, 1.0/16.0, s.Probability, 1e-12)
	}
}

func TestExhaustiveSampler_Deterministic(t *testing.T) {
	obj := testObjective(t)
	sampler := NewExhaustiveSampler(zerolog.Nop())

	a, err := sampler.Sample(context.Background(), obj, Options{Layers: 1, MaxIterations: 1})
	require.NoError(t, err)
	b, err := sampler.Sample(context.Background(), obj, Options{Layers: 1, MaxIterations: 1})
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestExhaustiveSampler_Cancelled(t *testing.T) {
	obj := testObjective(t)
	sampler := NewExhaustiveSampler(zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sampler.Sample(ctx, obj, Options{Layers: 1, MaxIterations: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSolverUnavailable)
}

func TestAnnealingSampler_FindsOptimum(t *testing.T) {
	obj := testObjective(t)

	exact, err := NewExhaustiveSampler(zerolog.Nop()).Sample(context.Background(), obj, Options{Layers: 1, MaxIterations: 1})
	require.NoError(t, err)

	annealed, err := NewAnnealingSampler(1, zerolog.Nop()).Sample(context.Background(), obj, Options{Layers: 8, MaxIterations: 200})
	require.NoError(t, err)
	require.NotEmpty(t, annealed)

	// With generous restarts on a 4-variable problem the annealer must reach
	// the exact ground state.
	assert.InDelta(t, exact[0].Energy, annealed[0].Energy, 1e-9)
}

func TestAnnealingSampler_DeterministicWithSeed(t *testing.T) {
	obj := testObjective(t)
	opts := Options{Layers: 4, MaxIterations: 50}

	a, err := NewAnnealingSampler(99, zerolog.Nop()).Sample(context.Background(), obj, opts)
	require.NoError(t, err)
	b, err := NewAnnealingSampler(99, zerolog.Nop()).Sample(context.Background(), obj, opts)
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := NewAnnealingSampler(100, zerolog.Nop()).Sample(context.Background(), obj, opts)
	require.NoError(t, err)
	for _, s := range c {
		require.Len(t, s.Bits, obj.N())
		assert.InDelta(t, obj.Energy(s.Bits), s.Energy, 1e-9)
	}
}

func TestAnnealingSampler_Timeout(t *testing.T) {
	obj := testObjective(t)
	sampler := NewAnnealingSampler(7, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := sampler.Sample(ctx, obj, Options{Layers: 2, MaxIterations: 1000})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSolverUnavailable)
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, Options{Layers: 1, MaxIterations: 1}.Validate())
	assert.Error(t, Options{Layers: 0, MaxIterations: 1}.Validate())
	assert.Error(t, Options{Layers: 1, MaxIterations: 0}.Validate())
}

func TestSample_CountAndKey(t *testing.T) {
	s := Sample{Bits: []uint8{1, 0, 1, 1}}
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, "1011", s.Key())
}
