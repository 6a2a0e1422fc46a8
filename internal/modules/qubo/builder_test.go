package qubo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfreitas/quantfolio/internal/modules/statistics"
)

func testModel(t *testing.T) *statistics.Model {
	t.Helper()
	model, err := statistics.NewFromStatistics(
		[]string{"A", "B", "C"},
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

func TestBuild_Symmetric(t *testing.T) {
	model := testModel(t)
	obj, err := Build(model, Constraints{MinAssets: 1, MaxAssets: 3, RiskAversion: 0.5})
	require.NoError(t, err)

	for i := 0; i < obj.N(); i++ {
		for j := 0; j < obj.N(); j++ {
			assert.Equal(t, obj.At(i, j), obj.At(j, i), "Q must be symmetric")
		}
	}
}

func TestBuild_EnergyMatchesExpansion(t *testing.T) {
	model := testModel(t)
	cons := Constraints{MinAssets: 2, MaxAssets: 2, RiskAversion: 0.5}
	obj, err := Build(model, cons)
	require.NoError(t, err)

	// Energy of a bitstring must equal the explicit objective plus penalty:
	// -mu.x + ra*x'Cov x + lambda*(count-k)^2
	bitstrings := [][]uint8{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1},
		{1, 1, 0}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
	}
	for _, bits := range bitstrings {
		var economic float64
		count := 0
		for i, b := range bits {
			if b == 0 {
				continue
			}
			count++
			economic += -model.ExpectedReturn(i) + cons.RiskAversion*model.Covariance(i, i)
			for j := i + 1; j < len(bits); j++ {
				if bits[j] != 0 {
					economic += 2 * cons.RiskAversion * model.Covariance(i, j)
				}
			}
		}
		diff := float64(count - obj.TargetCount())
		want := economic + obj.Lambda()*diff*diff
		assert.InDelta(t, want, obj.Energy(bits), 1e-12)
	}
}

func TestBuild_PenaltyDominates(t *testing.T) {
	model := testModel(t)
	cons := Constraints{MinAssets: 2, MaxAssets: 2, RiskAversion: 0.5}
	obj, err := Build(model, cons)
	require.NoError(t, err)

	// Any bitstring at the target count must beat any bitstring off it.
	worstFeasible := math.Inf(-1)
	bestInfeasible := math.Inf(1)
	for mask := 0; mask < 8; mask++ {
		bits := []uint8{uint8(mask & 1), uint8(mask >> 1 & 1), uint8(mask >> 2 & 1)}
		count := int(bits[0]) + int(bits[1]) + int(bits[2])
		e := obj.Energy(bits)
		if count == 2 {
			worstFeasible = math.Max(worstFeasible, e)
		} else {
			bestInfeasible = math.Min(bestInfeasible, e)
		}
	}
	assert.Less(t, worstFeasible, bestInfeasible,
		"penalty weight must make every on-target assignment beat every off-target one")
}

func TestBuild_AllSelectedBoundary(t *testing.T) {
	// minAssets == maxAssets == N forces the all-ones bitstring to be the
	// unique energy minimum.
	model := testModel(t)
	obj, err := Build(model, Constraints{MinAssets: 3, MaxAssets: 3, RiskAversion: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 3, obj.TargetCount())

	best := []uint8{1, 1, 1}
	bestEnergy := obj.Energy(best)
	for mask := 0; mask < 7; mask++ {
		bits := []uint8{uint8(mask & 1), uint8(mask >> 1 & 1), uint8(mask >> 2 & 1)}
		assert.Greater(t, obj.Energy(bits), bestEnergy)
	}
}

func TestBuild_LambdaScaling(t *testing.T) {
	model := testModel(t)
	obj, err := Build(model, Constraints{MinAssets: 1, MaxAssets: 2, RiskAversion: 0.5})
	require.NoError(t, err)

	// Largest coefficient is max|mu| = 0.20
	assert.InDelta(t, PenaltyScale*0.20, obj.Lambda(), 1e-12)

	flat, err := statistics.NewFromStatistics(
		[]string{"A", "B"},
		[]float64{0.001, 0.002},
		[][]float64{{0.0001, 0.0}, {0.0, 0.0001}},
	)
	require.NoError(t, err)
	objFlat, err := Build(flat, Constraints{MinAssets: 1, MaxAssets: 2, RiskAversion: 0.5})
	require.NoError(t, err)
	assert.InDelta(t, PenaltyFloor, objFlat.Lambda(), 1e-12)

	big, err := statistics.NewFromStatistics(
		[]string{"A", "B"},
		[]float64{1.5, -0.4},
		[][]float64{{0.04, 0.0}, {0.0, 0.09}},
	)
	require.NoError(t, err)
	obj2, err := Build(big, Constraints{MinAssets: 1, MaxAssets: 2, RiskAversion: 0.5})
	require.NoError(t, err)
	assert.InDelta(t, PenaltyScale*1.5, obj2.Lambda(), 1e-12)
}

func TestConstraints_Validate(t *testing.T) {
	tests := []struct {
		name string
		cons Constraints
		n    int
		ok   bool
	}{
		{"valid", Constraints{MinAssets: 2, MaxAssets: 4, RiskAversion: 0.5}, 5, true},
		{"min below one", Constraints{MinAssets: 0, MaxAssets: 4, RiskAversion: 0.5}, 5, false},
		{"max below min", Constraints{MinAssets: 3, MaxAssets: 2, RiskAversion: 0.5}, 5, false},
		{"max above n", Constraints{MinAssets: 2, MaxAssets: 6, RiskAversion: 0.5}, 5, false},
		{"risk aversion above one", Constraints{MinAssets: 2, MaxAssets: 4, RiskAversion: 1.5}, 5, false},
		{"risk aversion negative", Constraints{MinAssets: 2, MaxAssets: 4, RiskAversion: -0.1}, 5, false},
		{"tight bounds", Constraints{MinAssets: 5, MaxAssets: 5, RiskAversion: 1.0}, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cons.Validate(tt.n)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConstraints)
			}
		})
	}
}

func TestConstraints_TargetCount(t *testing.T) {
	assert.Equal(t, 3, Constraints{MinAssets: 2, MaxAssets: 4}.TargetCount())
	assert.Equal(t, 2, Constraints{MinAssets: 2, MaxAssets: 2}.TargetCount())
	assert.Equal(t, 3, Constraints{MinAssets: 2, MaxAssets: 3}.TargetCount()) // rounds half up
}

func TestObjective_EnergyLengthMismatch(t *testing.T) {
	model := testModel(t)
	obj, err := Build(model, Constraints{MinAssets: 1, MaxAssets: 3, RiskAversion: 0.5})
	require.NoError(t, err)
	assert.True(t, math.IsInf(obj.Energy([]uint8{1, 0}), 1))
}
