package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mfreitas/quantfolio/internal/config"
	"github.com/mfreitas/quantfolio/internal/database"
	"github.com/mfreitas/quantfolio/internal/modules/history"
	"github.com/mfreitas/quantfolio/internal/modules/marketdata"
	"github.com/mfreitas/quantfolio/internal/modules/portfolio"
	"github.com/mfreitas/quantfolio/internal/modules/solver"
	"github.com/mfreitas/quantfolio/pkg/logger"
)

// runtime bundles everything a command needs after wiring.
type runtime struct {
	cfg     *config.Config
	log     zerolog.Logger
	db      *database.DB
	prices  *history.PriceRepository
	runs    *history.RunRepository
	market  *marketdata.Manager
	service *portfolio.Service
}

func (rt *runtime) Close() {
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			rt.log.Warn().Err(err).Msg("Failed to close database")
		}
	}
}

// buildRuntime loads configuration and wires the full pipeline. The seed
// drives the annealing sampler; pass 0 for a time-based seed.
func buildRuntime(seed int64) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{
		Level:  level,
		Pretty: true,
	})

	db, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "quantfolio.db"),
		Name: "cache",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	prices, err := history.NewPriceRepository(db.Conn(), log)
	if err != nil {
		db.Close()
		return nil, err
	}
	runs, err := history.NewRunRepository(db.Conn(), log)
	if err != nil {
		db.Close()
		return nil, err
	}

	market, err := buildMarket(cfg, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	service := portfolio.NewService(portfolio.ServiceConfig{
		Market:   market,
		Prices:   prices,
		Runs:     runs,
		Sampler:  solver.NewAnnealingSampler(seed, log),
		Fallback: solver.NewExhaustiveSampler(log),
		Log:      log,
	})

	return &runtime{
		cfg:     cfg,
		log:     log,
		db:      db,
		prices:  prices,
		runs:    runs,
		market:  market,
		service: service,
	}, nil
}

// buildMarket assembles the provider chain for the configured data source.
// "auto" registers every available provider and lets priorities decide;
// the simulated provider is always registered last so offline runs work.
func buildMarket(cfg *config.Config, log zerolog.Logger) (*marketdata.Manager, error) {
	market := marketdata.NewManager(log)

	switch cfg.DataSource {
	case "auto":
		market.AddProvider(marketdata.NewBrapiProvider())
		market.AddProvider(marketdata.NewYahooProvider())
		if cfg.AlphaVantageKey != "" {
			market.AddProvider(marketdata.NewAlphaVantageProvider(cfg.AlphaVantageKey))
		}
		market.AddProvider(marketdata.NewSimulatedProvider(time.Now().UnixNano()))
	case "brapi":
		market.AddProvider(marketdata.NewBrapiProvider())
	case "yahoo":
		market.AddProvider(marketdata.NewYahooProvider())
	case "alphavantage":
		if cfg.AlphaVantageKey == "" {
			return nil, fmt.Errorf("data source alphavantage requires ALPHA_VANTAGE_KEY")
		}
		market.AddProvider(marketdata.NewAlphaVantageProvider(cfg.AlphaVantageKey))
	case "simulated":
		market.AddProvider(marketdata.NewSimulatedProvider(42))
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}

	return market, nil
}
