package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jdowell/mlmbot/internal/scheduler"
	"github.com/jdowell/mlmbot/internal/scheduler/jobs"
)

// daemonCmd runs the scheduler daemon.
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the scheduler daemon",
	Long: `Starts the long-running daemon with all scheduled jobs:

- daily_evaluation: every day at 17:30 (full evaluation pipeline)
- gateway_keepalive: every 5 minutes (brokerage session ping)

The daemon stops cleanly on Ctrl+C or SIGTERM.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched := scheduler.New(a.log)

	if err := sched.AddJob(a.evaluation); err != nil {
		return fmt.Errorf("add evaluation job: %w", err)
	}
	if err := sched.AddJob(jobs.NewKeepaliveJob(a.gateway, keepaliveSchedule, a.log)); err != nil {
		return fmt.Errorf("add keepalive job: %w", err)
	}

	sched.Start()

	stream := a.startOrderStream(context.Background())
	fmt.Println("Scheduler started. Press Ctrl+C to stop.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	if stream != nil {
		stream.Disconnect()
	}
	sched.Stop()
	return nil
}
