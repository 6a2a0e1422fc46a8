package solver

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mfreitas/quantfolio/internal/modules/qubo"
)

const (
	// ExhaustiveMaxVariables bounds the universe size for full enumeration.
	ExhaustiveMaxVariables = 20

	// exhaustiveKeep caps the number of lowest-energy assignments returned.
	exhaustiveKeep = 1024

	// cancelCheckInterval is how many assignments are evaluated between
	// context checks.
	cancelCheckInterval = 4096
)

// ExhaustiveSampler enumerates every binary assignment and returns the
// lowest-energy ones. It is exact and fully deterministic, which makes it the
// reference fallback sampler for small universes.
type ExhaustiveSampler struct {
	log zerolog.Logger
}

// NewExhaustiveSampler creates an exhaustive sampler.
func NewExhaustiveSampler(log zerolog.Logger) *ExhaustiveSampler {
	return &ExhaustiveSampler{
		log: log.With().Str("component", "solver.exhaustive").Logger(),
	}
}

// Name identifies the sampler.
func (es *ExhaustiveSampler) Name() string {
	return "exhaustive"
}

// Sample enumerates all 2^N assignments sorted by ascending energy.
// Layers and MaxIterations are accepted for contract compatibility but do not
// change the result.
func (es *ExhaustiveSampler) Sample(ctx context.Context, obj *qubo.Objective, opts Options) ([]Sample, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	n := obj.N()
	if n > ExhaustiveMaxVariables {
		return nil, fmt.Errorf("%w: %d variables exceeds exhaustive limit %d",
			ErrSolverUnavailable, n, ExhaustiveMaxVariables)
	}

	total := 1 << n
	samples := make([]Sample, 0, total)

	for mask := 0; mask < total; mask++ {
		if mask%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSolverUnavailable, err)
			}
		}

		assignment := make([]uint8, n)
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				assignment[i] = 1
			}
		}

		samples = append(samples, Sample{
			Bits:   assignment,
			Energy: obj.Energy(assignment),
		})
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Energy < samples[j].Energy
	})
	if len(samples) > exhaustiveKeep {
		samples = samples[:exhaustiveKeep]
	}

	p := 1.0 / float64(len(samples))
	for i := range samples {
		samples[i].Probability = p
	}

	es.log.Debug().
		Int("variables", n).
		Int("enumerated", total).
		Int("returned", len(samples)).
		Msg("Exhaustive enumeration complete")

	return samples, nil
}
