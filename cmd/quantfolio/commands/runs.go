package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfreitas/quantfolio/internal/modules/report"
)

var runsLimit int

// runsCmd lists stored optimization runs
var runsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "List stored runs, or show one by id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(0)
		if err != nil {
			return err
		}
		defer rt.Close()

		if len(args) == 1 {
			result, err := rt.service.GetRun(args[0])
			if err != nil {
				return err
			}
			if result == nil {
				return fmt.Errorf("run %s not found", args[0])
			}
			reporter := report.New(rt.log)
			fmt.Print(reporter.Render(result, nil))
			return nil
		}

		summaries, err := rt.service.ListRuns(runsLimit)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("No stored runs.")
			return nil
		}
		for _, s := range summaries {
			fmt.Printf("%s  %s  %s\n", s.RunID, s.CreatedAt.Format(time.RFC3339), s.Sampler)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
