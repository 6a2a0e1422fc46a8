// Package portfolio orchestrates one optimization run end to end:
// market data, statistics, QUBO build, sampling, interpretation, allocation.
package portfolio

import (
	"time"

	"github.com/mfreitas/quantfolio/internal/config"
	"github.com/mfreitas/quantfolio/internal/modules/allocation"
	"github.com/mfreitas/quantfolio/internal/modules/qubo"
)

// Request holds the parameters of one optimization run.
type Request struct {
	Tickers             []string `json:"tickers"`
	Period              string   `json:"period"`
	Budget              float64  `json:"budget"`
	RiskAversion        float64  `json:"risk_aversion"`
	MinAssets           int      `json:"min_assets"`
	MaxAssets           int      `json:"max_assets"`
	SolverLayers        int      `json:"solver_layers"`
	SolverMaxIterations int      `json:"solver_max_iterations"`
}

// RequestFromConfig builds a Request from the application configuration.
func RequestFromConfig(cfg *config.Config) Request {
	return Request{
		Tickers:             cfg.Tickers,
		Period:              cfg.Period,
		Budget:              cfg.Budget,
		RiskAversion:        cfg.RiskAversion,
		MinAssets:           cfg.MinAssets,
		MaxAssets:           cfg.MaxAssets,
		SolverLayers:        cfg.SolverLayers,
		SolverMaxIterations: cfg.SolverMaxIterations,
	}
}

// ApplyDefaults fills zero-valued fields with the configured defaults.
func (r *Request) ApplyDefaults() {
	if r.Period == "" {
		r.Period = "1y"
	}
	if r.Budget == 0 {
		r.Budget = config.DefaultBudget
	}
	if r.MinAssets == 0 {
		r.MinAssets = config.DefaultMinAssets
	}
	if r.MaxAssets == 0 {
		r.MaxAssets = config.DefaultMaxAssets
	}
	if r.SolverLayers == 0 {
		r.SolverLayers = config.DefaultSolverLayers
	}
	if r.SolverMaxIterations == 0 {
		r.SolverMaxIterations = config.DefaultSolverMaxIter
	}
}

// Constraints returns the cardinality constraints implied by the request.
func (r Request) Constraints() qubo.Constraints {
	return qubo.Constraints{
		MinAssets:    r.MinAssets,
		MaxAssets:    r.MaxAssets,
		RiskAversion: r.RiskAversion,
	}
}

// Result is the terminal output of one optimization run. A new run always
// produces a new Result; nothing here is mutated after creation.
type Result struct {
	RunID          string                 `json:"run_id" msgpack:"run_id"`
	CreatedAt      time.Time              `json:"created_at" msgpack:"created_at"`
	Sampler        string                 `json:"sampler" msgpack:"sampler"`
	Universe       []string               `json:"universe" msgpack:"universe"`
	Selection      []int                  `json:"selection" msgpack:"selection"`
	SelectedAssets []string               `json:"selected_assets" msgpack:"selected_assets"`
	Objective      float64                `json:"objective" msgpack:"objective"`
	Energy         float64                `json:"energy" msgpack:"energy"`
	Allocation     *allocation.Allocation `json:"allocation" msgpack:"allocation"`
}
