package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdowell/mlmbot/internal/api"
	"github.com/jdowell/mlmbot/internal/api/handlers"
	"github.com/jdowell/mlmbot/internal/scheduler"
	"github.com/jdowell/mlmbot/internal/scheduler/jobs"
)

// serveCmd runs the API server together with the scheduler.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server and scheduler",
	Long: `Starts the operator-facing HTTP API alongside the scheduler daemon.

Endpoints:
  GET /health
  GET /api/cycles/latest
  GET /api/cycles/{date}
  GET /api/jobs

Example:
  go run ./cmd/mlm serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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

	router := api.NewRouter(
		handlers.NewCycleHandler(a.cycleRepo, a.log),
		handlers.NewJobsHandler(sched, a.log),
		a.log,
	)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if stream != nil {
			stream.Disconnect()
		}
		sched.Stop()
		return err
	case <-quit:
	}

	fmt.Println("\nShutting down...")
	if stream != nil {
		stream.Disconnect()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		a.log.WithError(err).Error("Server shutdown failed")
	}
	sched.Stop()

	return nil
}
