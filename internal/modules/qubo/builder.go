// Package qubo builds the binary quadratic objective for asset selection.
//
// The objective matrix Q encodes the economic term (negated expected returns
// on the diagonal, risk-aversion scaled covariance everywhere) plus a
// quadratic cardinality penalty, so that minimizing x'Qx over x in {0,1}^N
// trades return against risk while keeping the selected count near the
// cardinality target.
package qubo

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mfreitas/quantfolio/internal/modules/statistics"
)

// ErrInvalidConstraints is returned when cardinality bounds or risk aversion
// are outside their valid ranges for the universe.
var ErrInvalidConstraints = errors.New("invalid constraints")

const (
	// PenaltyScale is the multiple of the largest objective coefficient used
	// for the cardinality penalty weight. The penalty must dominate the
	// economic term so a constraint violation is never traded for objective
	// improvement; 10x leaves ample margin and is covered by the boundary tests.
	PenaltyScale = 10.0

	// PenaltyFloor is the minimum penalty weight, guarding degenerate inputs
	// where all returns and covariances are near zero.
	PenaltyFloor = 1.0
)

// Constraints holds the cardinality bounds and risk aversion for a run.
type Constraints struct {
	MinAssets    int
	MaxAssets    int
	RiskAversion float64 // in [0, 1]
}

// Validate checks the constraints against a universe of n assets.
func (c Constraints) Validate(n int) error {
	if c.MinAssets < 1 {
		return fmt.Errorf("%w: min assets must be at least 1, got %d", ErrInvalidConstraints, c.MinAssets)
	}
	if c.MaxAssets < c.MinAssets {
		return fmt.Errorf("%w: max assets %d is below min assets %d", ErrInvalidConstraints, c.MaxAssets, c.MinAssets)
	}
	if c.MaxAssets > n {
		return fmt.Errorf("%w: max assets %d exceeds universe size %d", ErrInvalidConstraints, c.MaxAssets, n)
	}
	if c.RiskAversion < 0 || c.RiskAversion > 1 {
		return fmt.Errorf("%w: risk aversion must be in [0, 1], got %f", ErrInvalidConstraints, c.RiskAversion)
	}
	return nil
}

// TargetCount returns the cardinality target k used by the penalty term:
// the midpoint of [MinAssets, MaxAssets], rounded half up.
func (c Constraints) TargetCount() int {
	return (c.MinAssets + c.MaxAssets + 1) / 2
}

// Feasible reports whether a selected count satisfies the cardinality bounds.
func (c Constraints) Feasible(count int) bool {
	return count >= c.MinAssets && count <= c.MaxAssets
}

// Objective is the symmetric QUBO matrix plus the constant penalty offset.
// It is fully determined by the statistics model and constraints; samples are
// scored with Energy and never mutate it.
type Objective struct {
	q      *mat.SymDense
	lambda float64
	target int
	offset float64 // lambda * k^2, the constant term of the expanded penalty
}

// Build converts a statistics model and constraints into a QUBO objective.
//
// Economic term:
//
//	Q[i][i] += -mu[i] + riskAversion * cov[i][i]
//	Q[i][j] += riskAversion * cov[i][j]   (i != j, symmetric)
//
// so that x'Qx = -mu.x + riskAversion * x'Cov x for binary x.
//
// Cardinality penalty, two-sided with target k = TargetCount():
//
//	lambda * (sum(x) - k)^2
//	  = lambda * [ (1-2k) * sum(x_i) + 2 * sum_{i<j} x_i x_j + k^2 ]
//
// which adds lambda*(1-2k) to the diagonal, lambda to each symmetric
// off-diagonal entry, and keeps k^2 as a constant offset so reported energies
// match the full penalty expression.
func Build(model *statistics.Model, constraints Constraints) (*Objective, error) {
	n := model.N()
	if err := constraints.Validate(n); err != nil {
		return nil, err
	}

	maxCoeff := 0.0
	for i := 0; i < n; i++ {
		maxCoeff = math.Max(maxCoeff, math.Abs(model.ExpectedReturn(i)))
		for j := i; j < n; j++ {
			maxCoeff = math.Max(maxCoeff, math.Abs(model.Covariance(i, j)))
		}
	}
	lambda := math.Max(PenaltyScale*maxCoeff, PenaltyFloor)

	k := constraints.TargetCount()
	ra := constraints.RiskAversion

	q := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		diag := -model.ExpectedReturn(i) + ra*model.Covariance(i, i)
		diag += lambda * float64(1-2*k)
		q.SetSym(i, i, diag)
		for j := i + 1; j < n; j++ {
			q.SetSym(i, j, ra*model.Covariance(i, j)+lambda)
		}
	}

	return &Objective{
		q:      q,
		lambda: lambda,
		target: k,
		offset: lambda * float64(k*k),
	}, nil
}

// N returns the number of binary decision variables.
func (o *Objective) N() int {
	n, _ := o.q.Dims()
	return n
}

// At returns the objective matrix entry Q[i][j].
func (o *Objective) At(i, j int) float64 {
	return o.q.At(i, j)
}

// Lambda returns the cardinality penalty weight.
func (o *Objective) Lambda() float64 {
	return o.lambda
}

// TargetCount returns the cardinality target k encoded in the penalty.
func (o *Objective) TargetCount() int {
	return o.target
}

// Energy evaluates x'Qx plus the constant penalty offset for a binary
// assignment. Lower is better.
func (o *Objective) Energy(bits []uint8) float64 {
	n := o.N()
	if len(bits) != n {
		return math.Inf(1)
	}

	e := o.offset
	for i := 0; i < n; i++ {
		if bits[i] == 0 {
			continue
		}
		e += o.q.At(i, i)
		for j := i + 1; j < n; j++ {
			if bits[j] != 0 {
				e += 2 * o.q.At(i, j)
			}
		}
	}
	return e
}
