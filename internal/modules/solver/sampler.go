// Package solver defines the boundary to combinatorial QUBO samplers.
//
// The optimization core treats a sampler as a black box: it submits the
// objective and receives a finite set of binary assignments with energies.
// Samplers may be nondeterministic between calls and may return the same
// assignment more than once; interpretation must (and does) tolerate both.
// A deterministic classical sampler is a drop-in substitute for any other
// implementation, which is what the pipeline relies on for fallback.
package solver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mfreitas/quantfolio/internal/modules/qubo"
)

// ErrSolverUnavailable is returned when a sampler fails or times out.
// Callers may substitute another sampler; samplers never retry internally.
var ErrSolverUnavailable = errors.New("solver unavailable")

// Options controls a sampling run.
type Options struct {
	Layers        int // circuit depth / annealing restarts, >= 1
	MaxIterations int // optimizer iterations / annealing sweeps, >= 1
}

// Validate checks the sampling options.
func (o Options) Validate() error {
	if o.Layers < 1 {
		return fmt.Errorf("layers must be at least 1, got %d", o.Layers)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be at least 1, got %d", o.MaxIterations)
	}
	return nil
}

// Sample is one binary assignment produced by a sampler.
// Bits uses 0/1 values indexed consistently with the asset universe.
type Sample struct {
	Bits        []uint8
	Energy      float64 // objective value including penalty terms, lower is better
	Probability float64 // sampling probability, 0 when not meaningful
}

// Count returns the number of selected variables in the assignment.
func (s Sample) Count() int {
	n := 0
	for _, b := range s.Bits {
		if b != 0 {
			n++
		}
	}
	return n
}

// Key returns a canonical string form of the assignment, used for
// deduplication.
func (s Sample) Key() string {
	buf := make([]byte, len(s.Bits))
	for i, b := range s.Bits {
		buf[i] = '0' + b
	}
	return string(buf)
}

// Sampler produces candidate assignments for a QUBO objective.
// Implementations must return a non-empty, finite sample set or an error,
// and must honor context cancellation while running.
type Sampler interface {
	Name() string
	Sample(ctx context.Context, obj *qubo.Objective, opts Options) ([]Sample, error)
}
