package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdowell/mlmbot/internal/schedule"
)

// statusCmd shows the latest cycle and the next rebalance date.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest cycle result",
	Long: `Prints the most recently evaluated cycle from the database and the
next scheduled rebalance date.

Example:
  go run ./cmd/mlm status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	policy := schedule.NewRebalancePolicy(a.strategy.Schedule.RebalanceDay)
	next := policy.NextRebalance(time.Now())
	fmt.Printf("Strategy: %s (universe: %d instruments)\n", a.strategy.Meta.StrategyID, len(a.strategy.Universe))
	fmt.Printf("Next rebalance: %s\n", next.Format("2006-01-02"))

	summary, err := a.cycleRepo.GetLatestCycle(context.Background())
	if err != nil {
		fmt.Println("No cycle recorded yet.")
		return nil
	}

	printSummary(summary)

	acks, err := a.orderRepo.GetByRun(context.Background(), summary.RunID)
	if err == nil && len(acks) > 0 {
		fmt.Println("\nOrders:")
		for _, ack := range acks {
			fmt.Printf("  %s  %s  %s\n", ack.OrderID, ack.Symbol, ack.Status)
		}
	}

	return nil
}
