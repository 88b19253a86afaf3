package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	dryRun       bool
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mlm",
	Short: "MLM futures trend-following decision engine",
	Long: `MLM Futures Bot

Monthly trend-following over a diversified futures universe:
200-day moving-average signals, a market-wide realized-volatility
gate, and market orders on the front-month contract through the IB
gateway.

Usage:
  go run ./cmd/mlm [command]

Examples:
  go run ./cmd/mlm cycle --date 2026-08-25 --dry-run
  go run ./cmd/mlm daemon
  go run ./cmd/mlm serve
  go run ./cmd/mlm status`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML file (default from STRATEGY_FILE)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "plan orders but do not submit them")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
