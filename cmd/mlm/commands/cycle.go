package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// cycleCmd runs one evaluation cycle immediately.
var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run one evaluation cycle",
	Long: `Evaluates the full universe for one calendar date: trend signals,
the market-wide volatility gate, target actions, and (on a tradable
rebalance day) order planning and submission.

The cycle is deterministic for a given date and price history, so
re-running it is safe for inspection; use --dry-run to keep order
submission off.

Example:
  go run ./cmd/mlm cycle
  go run ./cmd/mlm cycle --date 2026-08-25 --dry-run`,
	RunE: runCycle,
}

var cycleDate string

func init() {
	rootCmd.AddCommand(cycleCmd)
	cycleCmd.Flags().StringVar(&cycleDate, "date", "", "evaluation date as YYYY-MM-DD (default today)")
}

func runCycle(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	date := time.Now()
	if cycleDate != "" {
		date, err = time.Parse("2006-01-02", cycleDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", cycleDate, err)
		}
	}

	fmt.Printf("Evaluating cycle for %s", date.Format("2006-01-02"))
	if dryRun {
		fmt.Print(" (dry-run)")
	}
	fmt.Println()

	if err := a.evaluation.RunForDate(context.Background(), date); err != nil {
		return fmt.Errorf("cycle failed: %w", err)
	}

	summary, err := a.cycleRepo.GetCycleByDate(context.Background(), date)
	if err != nil {
		// Persistence is best-effort; the cycle itself succeeded
		fmt.Println("Cycle finished (result not persisted)")
		return nil
	}

	printSummary(summary)
	return nil
}
