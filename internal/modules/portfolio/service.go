package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mfreitas/quantfolio/internal/modules/allocation"
	"github.com/mfreitas/quantfolio/internal/modules/history"
	"github.com/mfreitas/quantfolio/internal/modules/interpreter"
	"github.com/mfreitas/quantfolio/internal/modules/marketdata"
	"github.com/mfreitas/quantfolio/internal/modules/qubo"
	"github.com/mfreitas/quantfolio/internal/modules/solver"
	"github.com/mfreitas/quantfolio/internal/modules/statistics"
)

// DefaultCacheMaxAge is how long cached price series stay fresh.
const DefaultCacheMaxAge = 12 * time.Hour

// ServiceConfig wires the pipeline dependencies.
type ServiceConfig struct {
	Market      *marketdata.Manager
	Prices      *history.PriceRepository // optional, nil disables caching
	Runs        *history.RunRepository   // optional, nil disables persistence
	Sampler     solver.Sampler
	Fallback    solver.Sampler // optional deterministic substitute
	CacheMaxAge time.Duration
	Log         zerolog.Logger
}

// Service runs the optimization pipeline. Each call to Optimize is an
// independent run; the service holds no cross-run state, so concurrent runs
// need no coordination.
type Service struct {
	market      *marketdata.Manager
	prices      *history.PriceRepository
	runs        *history.RunRepository
	sampler     solver.Sampler
	fallback    solver.Sampler
	interpreter *interpreter.Interpreter
	allocator   *allocation.Allocator
	cacheMaxAge time.Duration
	log         zerolog.Logger
}

// NewService creates the pipeline service.
func NewService(cfg ServiceConfig) *Service {
	maxAge := cfg.CacheMaxAge
	if maxAge <= 0 {
		maxAge = DefaultCacheMaxAge
	}
	return &Service{
		market:      cfg.Market,
		prices:      cfg.Prices,
		runs:        cfg.Runs,
		sampler:     cfg.Sampler,
		fallback:    cfg.Fallback,
		interpreter: interpreter.New(cfg.Log),
		allocator:   allocation.New(cfg.Log),
		cacheMaxAge: maxAge,
		log:         cfg.Log.With().Str("component", "portfolio").Logger(),
	}
}

// Optimize executes one full optimization run.
//
// Statistics and QUBO errors are structural and always surfaced. A failing
// primary sampler is substituted once with the configured fallback;
// ErrNoFeasibleSolution is surfaced for the caller to relax constraints or
// resample with more layers/iterations.
func (s *Service) Optimize(ctx context.Context, req Request) (*Result, error) {
	req.ApplyDefaults()
	runID := uuid.New().String()
	log := s.log.With().Str("run_id", runID).Logger()

	universe, prices, err := s.gatherPrices(ctx, req)
	if err != nil {
		return nil, err
	}

	model, err := statistics.Build(universe, prices)
	if err != nil {
		return nil, fmt.Errorf("failed to build statistics: %w", err)
	}

	constraints := s.effectiveConstraints(req, model.N(), log)
	objective, err := qubo.Build(model, constraints)
	if err != nil {
		return nil, fmt.Errorf("failed to build objective: %w", err)
	}

	log.Info().
		Int("assets", model.N()).
		Float64("risk_aversion", constraints.RiskAversion).
		Int("min_assets", constraints.MinAssets).
		Int("max_assets", constraints.MaxAssets).
		Float64("penalty_weight", objective.Lambda()).
		Msg("Built QUBO objective")

	opts := solver.Options{Layers: req.SolverLayers, MaxIterations: req.SolverMaxIterations}
	samplerName := s.sampler.Name()
	samples, err := s.sampler.Sample(ctx, objective, opts)
	if err != nil {
		if !errors.Is(err, solver.ErrSolverUnavailable) || s.fallback == nil {
			return nil, err
		}
		log.Warn().
			Str("sampler", samplerName).
			Err(err).
			Msg("Sampler unavailable, substituting fallback")
		samplerName = s.fallback.Name()
		samples, err = s.fallback.Sample(ctx, objective, opts)
		if err != nil {
			return nil, err
		}
	}

	selection, err := s.interpreter.Interpret(samples, model, constraints)
	if err != nil {
		return nil, err
	}

	alloc, err := s.allocator.Allocate(selection.Indices, model, req.Budget)
	if err != nil {
		return nil, err
	}

	assets := model.Assets()
	selected := make([]string, len(selection.Indices))
	for i, idx := range selection.Indices {
		selected[i] = assets[idx]
	}

	result := &Result{
		RunID:          runID,
		CreatedAt:      time.Now().UTC(),
		Sampler:        samplerName,
		Universe:       assets,
		Selection:      selection.Indices,
		SelectedAssets: selected,
		Objective:      selection.Objective,
		Energy:         selection.Energy,
		Allocation:     alloc,
	}

	s.persist(result, log)

	log.Info().
		Strs("selected", selected).
		Float64("expected_return", alloc.ExpectedReturn).
		Float64("volatility", alloc.Volatility).
		Float64("sharpe", alloc.Sharpe).
		Msg("Optimization run complete")

	return result, nil
}

// GetRun loads a stored run result by id, or (nil, nil) when unknown.
func (s *Service) GetRun(id string) (*Result, error) {
	if s.runs == nil {
		return nil, nil
	}
	record, err := s.runs.Get(id)
	if err != nil || record == nil {
		return nil, err
	}
	var result Result
	if err := msgpack.Unmarshal(record.Payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	return &result, nil
}

// RunSummary is a lightweight listing entry for stored runs.
type RunSummary struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Sampler   string    `json:"sampler"`
}

// ListRuns returns summaries of the most recent stored runs, newest first.
func (s *Service) ListRuns(limit int) ([]RunSummary, error) {
	if s.runs == nil {
		return nil, nil
	}
	records, err := s.runs.List(limit)
	if err != nil {
		return nil, err
	}
	summaries := make([]RunSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, RunSummary{
			RunID:     record.ID,
			CreatedAt: record.CreatedAt,
			Sampler:   record.Sampler,
		})
	}
	return summaries, nil
}

// gatherPrices resolves each ticker through the cache and then the provider
// chain, preserving request order for the universe index mapping.
func (s *Service) gatherPrices(ctx context.Context, req Request) ([]string, map[string][]float64, error) {
	prices := make(map[string][]float64, len(req.Tickers))
	universe := make([]string, 0, len(req.Tickers))

	for _, symbol := range req.Tickers {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		if s.prices != nil {
			cached, err := s.prices.Get(symbol, req.Period, s.cacheMaxAge)
			if err != nil {
				s.log.Warn().Str("symbol", symbol).Err(err).Msg("Price cache read failed")
			} else if cached != nil {
				prices[symbol] = cached
				universe = append(universe, symbol)
				continue
			}
		}

		closes, err := s.market.FetchDailyCloses(ctx, symbol, req.Period)
		if err != nil {
			s.log.Warn().Str("symbol", symbol).Err(err).Msg("Skipping symbol, no data")
			continue
		}
		prices[symbol] = closes
		universe = append(universe, symbol)

		if s.prices != nil {
			if err := s.prices.Save(symbol, req.Period, closes); err != nil {
				s.log.Warn().Str("symbol", symbol).Err(err).Msg("Price cache write failed")
			}
		}
	}

	if len(universe) == 0 {
		return nil, nil, fmt.Errorf("%w: no tickers could be resolved", marketdata.ErrNoData)
	}
	return universe, prices, nil
}

// effectiveConstraints clamps the cardinality bounds to the resolved universe
// size, since tickers without data shrink the universe below the requested
// maximum.
func (s *Service) effectiveConstraints(req Request, n int, log zerolog.Logger) qubo.Constraints {
	cons := req.Constraints()
	if cons.MaxAssets > n {
		log.Warn().
			Int("requested_max", cons.MaxAssets).
			Int("universe", n).
			Msg("Clamping max assets to universe size")
		cons.MaxAssets = n
	}
	// Only the universe shrink is repaired here; a request with min > max is
	// invalid input and is left for constraint validation to reject.
	if cons.MinAssets > n {
		cons.MinAssets = n
	}
	return cons
}

// persist stores the run best effort; a storage failure is logged but never
// fails a completed optimization.
func (s *Service) persist(result *Result, log zerolog.Logger) {
	if s.runs == nil {
		return
	}
	payload, err := msgpack.Marshal(result)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode run payload")
		return
	}
	err = s.runs.Save(history.RunRecord{
		ID:        result.RunID,
		CreatedAt: result.CreatedAt,
		Sampler:   result.Sampler,
		Payload:   payload,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to store run")
	}
}
