package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jdowell/mlmbot/internal/contracts"
	"github.com/jdowell/mlmbot/internal/engine"
	"github.com/jdowell/mlmbot/internal/orders"
	"github.com/jdowell/mlmbot/pkg/logger"
)

// CycleRepository persists completed cycles.
type CycleRepository interface {
	SaveCycle(ctx context.Context, summary *contracts.CycleSummary, configHash string) error
}

// OrderRepository persists gateway acknowledgements.
type OrderRepository interface {
	SaveAck(ctx context.Context, runID string, req *contracts.OrderRequest, ack *contracts.OrderAck) error
}

// EvaluationJob runs the full daily pipeline: evaluate the cycle,
// persist it, then plan and submit orders when the cycle traded.
type EvaluationJob struct {
	engine     *engine.Engine
	planner    *orders.Planner
	executor   *orders.Executor
	cycles     CycleRepository
	orderStore OrderRepository
	universe   []contracts.Instrument
	configHash string
	schedule   string
	logger     *logger.Logger
}

// NewEvaluationJob creates the daily evaluation job. The schedule is a
// six-field cron expression; the decision of whether today is a
// rebalance day belongs to the engine, so the job runs every day.
func NewEvaluationJob(
	eng *engine.Engine,
	planner *orders.Planner,
	executor *orders.Executor,
	cycles CycleRepository,
	orderStore OrderRepository,
	universe []contracts.Instrument,
	configHash string,
	schedule string,
	log *logger.Logger,
) *EvaluationJob {
	return &EvaluationJob{
		engine:     eng,
		planner:    planner,
		executor:   executor,
		cycles:     cycles,
		orderStore: orderStore,
		universe:   universe,
		configHash: configHash,
		schedule:   schedule,
		logger:     log,
	}
}

func (j *EvaluationJob) Name() string     { return "daily_evaluation" }
func (j *EvaluationJob) Schedule() string { return j.schedule }

// Retryable is false: a re-run after partial order submission would
// submit the same orders again.
func (j *EvaluationJob) Retryable() bool { return false }

// Run evaluates today's cycle.
func (j *EvaluationJob) Run(ctx context.Context) error {
	return j.RunForDate(ctx, time.Now())
}

// RunForDate evaluates the cycle for an explicit date. Used by the
// scheduler via Run and directly by the CLI for backdated evaluations.
func (j *EvaluationJob) RunForDate(ctx context.Context, date time.Time) error {
	summary, err := j.engine.EvaluateCycle(ctx, date)
	if err != nil {
		return fmt.Errorf("evaluate cycle: %w", err)
	}

	if j.cycles != nil {
		if err := j.cycles.SaveCycle(ctx, summary, j.configHash); err != nil {
			// Persistence failure must not stop order submission
			j.logger.WithError(err).Error("Failed to persist cycle")
		}
	}

	if summary.TradeCount() == 0 {
		j.logger.WithField("run_id", summary.RunID).Info("Cycle produced no trades")
		return nil
	}

	plan := j.planner.Plan(ctx, j.universe, summary.Actions, date)
	for symbol, planErr := range plan.Failures {
		j.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  planErr.Error(),
		}).Error("Order planning failed")
	}

	result := j.executor.Submit(ctx, plan.Orders)
	for symbol, execErr := range result.Failures {
		j.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  execErr.Error(),
		}).Error("Order submission failed")
	}

	if j.orderStore != nil {
		j.saveAcks(ctx, summary.RunID, plan.Orders, result.Acks)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    summary.RunID,
		"planned":   len(plan.Orders),
		"submitted": len(result.Acks),
		"failed":    len(plan.Failures) + len(result.Failures),
	}).Info("Evaluation pipeline finished")

	return nil
}

func (j *EvaluationJob) saveAcks(ctx context.Context, runID string, reqs []*contracts.OrderRequest, acks []*contracts.OrderAck) {
	bySymbol := make(map[string]*contracts.OrderRequest, len(reqs))
	for _, req := range reqs {
		bySymbol[req.Symbol] = req
	}

	for _, ack := range acks {
		req, ok := bySymbol[ack.Symbol]
		if !ok {
			continue
		}
		if err := j.orderStore.SaveAck(ctx, runID, req, ack); err != nil {
			j.logger.WithError(err).WithField("order_id", ack.OrderID).Error("Failed to persist order ack")
		}
	}
}
