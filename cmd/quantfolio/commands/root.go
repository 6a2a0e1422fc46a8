package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quantfolio",
	Short: "QUBO-based portfolio selection and allocation",
	Long: `Quantfolio selects a portfolio from a ticker universe by encoding
the mean-variance trade-off and a cardinality constraint as a QUBO,
sampling it with simulated annealing, and allocating a budget across
the winning assets.

Examples:
  quantfolio optimize
  quantfolio optimize --tickers PETR4,VALE3,ITUB4 --budget 5000
  quantfolio serve --port 8080`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
