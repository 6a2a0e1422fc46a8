package solver

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mfreitas/quantfolio/internal/modules/qubo"
)

// finalTemperatureRatio sets the end of the geometric cooling schedule
// relative to the starting temperature.
const finalTemperatureRatio = 1e-4

// AnnealingSampler approximates the QUBO ground state with single-flip
// Metropolis simulated annealing. Layers maps to independent restarts and
// MaxIterations to sweeps per restart; with a fixed seed the sampler is fully
// deterministic, which the pipeline idempotence guarantee relies on.
type AnnealingSampler struct {
	seed int64
	log  zerolog.Logger
}

// NewAnnealingSampler creates an annealing sampler with a fixed RNG seed.
func NewAnnealingSampler(seed int64, log zerolog.Logger) *AnnealingSampler {
	return &AnnealingSampler{
		seed: seed,
		log:  log.With().Str("component", "solver.annealing").Logger(),
	}
}

// Name identifies the sampler.
func (as *AnnealingSampler) Name() string {
	return "annealing"
}

// Sample runs opts.Layers annealing restarts of opts.MaxIterations sweeps each
// and returns the distinct assignments visited at restart ends, lowest energy
// first. Probabilities reflect how often each assignment was reached across
// restarts.
func (as *AnnealingSampler) Sample(ctx context.Context, obj *qubo.Objective, opts Options) ([]Sample, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	n := obj.N()
	if n == 0 {
		return nil, fmt.Errorf("%w: empty objective", ErrSolverUnavailable)
	}

	rng := rand.New(rand.NewSource(as.seed))

	// Start hot enough that penalty-scale moves are accepted early on.
	t0 := math.Max(obj.Lambda(), 1.0)
	tEnd := t0 * finalTemperatureRatio
	cooling := math.Pow(tEnd/t0, 1.0/float64(opts.MaxIterations))

	type hit struct {
		sample Sample
		count  int
	}
	visited := make(map[string]*hit)
	records := 0

	record := func(bits []uint8, energy float64) {
		s := Sample{Bits: append([]uint8(nil), bits...), Energy: energy}
		key := s.Key()
		if h, ok := visited[key]; ok {
			h.count++
			if energy < h.sample.Energy {
				h.sample.Energy = energy
			}
		} else {
			visited[key] = &hit{sample: s, count: 1}
		}
		records++
	}

	for restart := 0; restart < opts.Layers; restart++ {
		bits := make([]uint8, n)
		for i := range bits {
			if rng.Intn(2) == 1 {
				bits[i] = 1
			}
		}
		energy := obj.Energy(bits)

		best := append([]uint8(nil), bits...)
		bestEnergy := energy

		temp := t0
		for sweep := 0; sweep < opts.MaxIterations; sweep++ {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSolverUnavailable, err)
			}

			for move := 0; move < n; move++ {
				i := rng.Intn(n)
				bits[i] ^= 1
				candidate := obj.Energy(bits)
				delta := candidate - energy

				if delta <= 0 || rng.Float64() < math.Exp(-delta/temp) {
					energy = candidate
					if energy < bestEnergy {
						bestEnergy = energy
						copy(best, bits)
					}
				} else {
					bits[i] ^= 1 // reject, flip back
				}
			}
			temp *= cooling
		}

		record(best, bestEnergy)
		record(bits, energy)
	}

	samples := make([]Sample, 0, len(visited))
	for _, h := range visited {
		h.sample.Probability = float64(h.count) / float64(records)
		samples = append(samples, h.sample)
	}
	sort.SliceStable(samples, func(i, j int) bool {
		if samples[i].Energy != samples[j].Energy {
			return samples[i].Energy < samples[j].Energy
		}
		return samples[i].Key() < samples[j].Key()
	})

	as.log.Debug().
		Int("variables", n).
		Int("restarts", opts.Layers).
		Int("sweeps", opts.MaxIterations).
		Int("distinct_samples", len(samples)).
		Float64("best_energy", samples[0].Energy).
		Msg("Annealing complete")

	return samples, nil
}
