package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfreitas/quantfolio/internal/modules/portfolio"
	"github.com/mfreitas/quantfolio/internal/modules/report"
)

var (
	optTickers      []string
	optBudget       float64
	optRiskAversion float64
	optMinAssets    int
	optMaxAssets    int
	optSeed         int64
)

// optimizeCmd runs a single optimization and prints the allocation
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run one optimization and print the allocation",
	Long: `Runs the full pipeline once: fetch prices, build the QUBO, sample
it, and allocate the budget across the selected assets.

Example:
  quantfolio optimize
  quantfolio optimize --tickers PETR4,VALE3,ITUB4 --budget 5000 --min-assets 2 --max-assets 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(optSeed)
		if err != nil {
			return err
		}
		defer rt.Close()

		req := portfolio.RequestFromConfig(rt.cfg)
		if cmd.Flags().Changed("tickers") {
			req.Tickers = optTickers
		}
		if cmd.Flags().Changed("budget") {
			req.Budget = optBudget
		}
		if cmd.Flags().Changed("risk-aversion") {
			req.RiskAversion = optRiskAversion
		}
		if cmd.Flags().Changed("min-assets") {
			req.MinAssets = optMinAssets
		}
		if cmd.Flags().Changed("max-assets") {
			req.MaxAssets = optMaxAssets
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		result, err := rt.service.Optimize(ctx, req)
		if err != nil {
			return err
		}

		// Trend markers come from the cache the run just warmed.
		prices := make(map[string][]float64, len(result.SelectedAssets))
		for _, symbol := range result.SelectedAssets {
			closes, err := rt.prices.Get(symbol, req.Period, time.Hour)
			if err == nil && closes != nil {
				prices[symbol] = closes
			}
		}

		reporter := report.New(rt.log)
		fmt.Print(reporter.Render(result, prices))
		return nil
	},
}

func init() {
	optimizeCmd.Flags().StringSliceVar(&optTickers, "tickers", nil, "ticker universe (comma separated)")
	optimizeCmd.Flags().Float64Var(&optBudget, "budget", 0, "investment budget")
	optimizeCmd.Flags().Float64Var(&optRiskAversion, "risk-aversion", 0, "risk aversion in [0, 1]")
	optimizeCmd.Flags().IntVar(&optMinAssets, "min-assets", 0, "minimum number of assets")
	optimizeCmd.Flags().IntVar(&optMaxAssets, "max-assets", 0, "maximum number of assets")
	optimizeCmd.Flags().Int64Var(&optSeed, "seed", 0, "annealing seed (0 uses the clock)")
	rootCmd.AddCommand(optimizeCmd)
}
