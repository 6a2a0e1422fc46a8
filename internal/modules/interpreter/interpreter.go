// Package interpreter turns raw solver samples into a feasible asset selection.
//
// Penalty-encoded constraints cannot be guaranteed by the sampler, so the
// feasibility filter here is load-bearing: an infeasible assignment is never
// returned, no matter how good its energy looks.
package interpreter

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mfreitas/quantfolio/internal/modules/qubo"
	"github.com/mfreitas/quantfolio/internal/modules/solver"
	"github.com/mfreitas/quantfolio/internal/modules/statistics"
)

// ErrNoFeasibleSolution is returned when no sample satisfies the cardinality
// bounds. The caller decides whether to relax constraints or resample.
var ErrNoFeasibleSolution = errors.New("no feasible solution in sample set")

// Selection is the ordered set of chosen asset indices together with the
// penalty-free objective value that ranked it.
type Selection struct {
	Indices   []int
	Objective float64 // economic objective -mu.x + ra*x'Cov x, lower is better
	Energy    float64 // solver-reported energy of the winning sample
}

// Interpreter ranks and filters solver samples.
type Interpreter struct {
	log zerolog.Logger
}

// New creates an interpreter.
func New(log zerolog.Logger) *Interpreter {
	return &Interpreter{
		log: log.With().Str("component", "interpreter").Logger(),
	}
}

// Interpret picks the best feasible assignment from a sample set.
//
// Samples are deduplicated by assignment keeping the lowest energy, filtered
// to the cardinality bounds, then ranked by the true economic objective with
// the penalty stripped. Ties break on lower solver energy, then on the
// lexically smallest selection, so the result is deterministic under
// arbitrary sample ordering.
func (in *Interpreter) Interpret(
	samples []solver.Sample,
	model *statistics.Model,
	constraints qubo.Constraints,
) (Selection, error) {
	if len(samples) == 0 {
		return Selection{}, fmt.Errorf("%w: empty sample set", ErrNoFeasibleSolution)
	}

	deduped := dedupe(samples)

	type candidate struct {
		sample    solver.Sample
		indices   []int
		objective float64
	}

	feasible := make([]candidate, 0, len(deduped))
	for _, s := range deduped {
		if len(s.Bits) != model.N() {
			in.log.Warn().
				Int("sample_len", len(s.Bits)).
				Int("universe", model.N()).
				Msg("Dropping malformed sample")
			continue
		}
		if !constraints.Feasible(s.Count()) {
			continue
		}
		feasible = append(feasible, candidate{
			sample:    s,
			indices:   selectedIndices(s.Bits),
			objective: economicObjective(s.Bits, model, constraints.RiskAversion),
		})
	}

	if len(feasible) == 0 {
		in.log.Warn().
			Int("samples", len(samples)).
			Int("distinct", len(deduped)).
			Int("min_assets", constraints.MinAssets).
			Int("max_assets", constraints.MaxAssets).
			Msg("No feasible sample")
		return Selection{}, fmt.Errorf("%w: %d distinct samples, none within [%d, %d] assets",
			ErrNoFeasibleSolution, len(deduped), constraints.MinAssets, constraints.MaxAssets)
	}

	sort.SliceStable(feasible, func(i, j int) bool {
		if feasible[i].objective != feasible[j].objective {
			return feasible[i].objective < feasible[j].objective
		}
		if feasible[i].sample.Energy != feasible[j].sample.Energy {
			return feasible[i].sample.Energy < feasible[j].sample.Energy
		}
		return lexLess(feasible[i].indices, feasible[j].indices)
	})

	best := feasible[0]
	in.log.Info().
		Ints("indices", best.indices).
		Float64("objective", best.objective).
		Float64("energy", best.sample.Energy).
		Int("feasible", len(feasible)).
		Msg("Selected portfolio")

	return Selection{
		Indices:   best.indices,
		Objective: best.objective,
		Energy:    best.sample.Energy,
	}, nil
}

// dedupe collapses duplicate assignments, keeping the lowest energy seen for
// each. Probabilities for the same assignment are accumulated.
func dedupe(samples []solver.Sample) []solver.Sample {
	byKey := make(map[string]solver.Sample, len(samples))
	order := make([]string, 0, len(samples))

	for _, s := range samples {
		key := s.Key()
		existing, ok := byKey[key]
		if !ok {
			byKey[key] = s
			order = append(order, key)
			continue
		}
		existing.Probability += s.Probability
		if s.Energy < existing.Energy {
			existing.Energy = s.Energy
		}
		byKey[key] = existing
	}

	out := make([]solver.Sample, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out
}

// economicObjective computes the penalty-free objective for a binary
// assignment: -mu.x + riskAversion * x'Cov x.
func economicObjective(bits []uint8, model *statistics.Model, riskAversion float64) float64 {
	var obj float64
	for i, bi := range bits {
		if bi == 0 {
			continue
		}
		obj -= model.ExpectedReturn(i)
		for j, bj := range bits {
			if bj != 0 {
				obj += riskAversion * model.Covariance(i, j)
			}
		}
	}
	return obj
}

func selectedIndices(bits []uint8) []int {
	indices := make([]int, 0, len(bits))
	for i, b := range bits {
		if b != 0 {
			indices = append(indices, i)
		}
	}
	return indices
}

// lexLess compares two ascending index slices lexicographically.
func lexLess(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
