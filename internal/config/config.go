// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults for the optimization surface.
const (
	DefaultBudget        = 10000.0
	DefaultRiskAversion  = 0.5 // 0 = return only, 1 = very conservative
	DefaultMinAssets     = 2
	DefaultMaxAssets     = 4
	DefaultSolverLayers  = 3
	DefaultSolverMaxIter = 100
)

// Config holds application configuration.
// It is an immutable value threaded explicitly through the pipeline;
// nothing reads process-global state after Load returns.
type Config struct {
	DataDir  string // Base directory for the price cache database
	LogLevel string
	Port     int
	DevMode  bool

	// Optimization parameters
	Budget              float64
	RiskAversion        float64 // in [0, 1]
	MinAssets           int
	MaxAssets           int
	SolverLayers        int
	SolverMaxIterations int

	// Market data
	DataSource      string   // yahoo, brapi, alphavantage, simulated, or auto
	Period          string   // history range, e.g. 1y
	Tickers         []string // default asset universe
	AlphaVantageKey string

	// Price cache refresh job
	RefreshEnabled  bool
	RefreshSchedule string // cron expression
}

// Load reads configuration from environment variables (.env supported).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("QF_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvAsInt("QF_PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		Budget:              getEnvAsFloat("QF_BUDGET", DefaultBudget),
		RiskAversion:        getEnvAsFloat("QF_RISK_AVERSION", DefaultRiskAversion),
		MinAssets:           getEnvAsInt("QF_MIN_ASSETS", DefaultMinAssets),
		MaxAssets:           getEnvAsInt("QF_MAX_ASSETS", DefaultMaxAssets),
		SolverLayers:        getEnvAsInt("QF_SOLVER_LAYERS", DefaultSolverLayers),
		SolverMaxIterations: getEnvAsInt("QF_SOLVER_MAX_ITERATIONS", DefaultSolverMaxIter),

		DataSource:      getEnv("QF_DATA_SOURCE", "auto"),
		Period:          getEnv("QF_PERIOD", "1y"),
		Tickers:         getEnvAsList("QF_TICKERS", []string{"PETR4", "VALE3", "ITUB4", "BBDC4", "WEGE3"}),
		AlphaVantageKey: getEnv("ALPHA_VANTAGE_KEY", ""),

		RefreshEnabled:  getEnvAsBool("QF_REFRESH_ENABLED", false),
		RefreshSchedule: getEnv("QF_REFRESH_SCHEDULE", "0 30 18 * * MON-FRI"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Budget <= 0 {
		return fmt.Errorf("budget must be positive, got %.2f", c.Budget)
	}
	if c.RiskAversion < 0 || c.RiskAversion > 1 {
		return fmt.Errorf("risk aversion must be in [0, 1], got %.2f", c.RiskAversion)
	}
	if c.MinAssets < 1 {
		return fmt.Errorf("min assets must be at least 1, got %d", c.MinAssets)
	}
	if c.MaxAssets < c.MinAssets {
		return fmt.Errorf("max assets %d is below min assets %d", c.MaxAssets, c.MinAssets)
	}
	if c.SolverLayers < 1 {
		return fmt.Errorf("solver layers must be at least 1, got %d", c.SolverLayers)
	}
	if c.SolverMaxIterations < 1 {
		return fmt.Errorf("solver max iterations must be at least 1, got %d", c.SolverMaxIterations)
	}
	if len(c.Tickers) == 0 {
		return fmt.Errorf("at least one ticker is required")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
