package orders

import (
	"context"

	"github.com/jdowell/mlmbot/internal/contracts"
	"github.com/jdowell/mlmbot/pkg/logger"
)

// Executor submits planned orders through the gateway. Submission
// failures are wrapped and reported, never retried; the operator
// decides whether to re-run the cycle.
type Executor struct {
	gateway contracts.OrderGateway
	dryRun  bool
	logger  *logger.Logger
}

// NewExecutor creates an order executor. In dry-run mode orders are
// logged but never reach the gateway.
func NewExecutor(gateway contracts.OrderGateway, dryRun bool, log *logger.Logger) *Executor {
	return &Executor{
		gateway: gateway,
		dryRun:  dryRun,
		logger:  log,
	}
}

// ExecResult collects per-order submission outcomes for one cycle.
type ExecResult struct {
	Acks     []*contracts.OrderAck
	Failures map[string]error
}

// Submit sends each order in sequence. A rejected or failed submission
// records a SubmissionError for its symbol and the run continues.
func (e *Executor) Submit(ctx context.Context, requests []*contracts.OrderRequest) *ExecResult {
	result := &ExecResult{
		Acks:     make([]*contracts.OrderAck, 0, len(requests)),
		Failures: make(map[string]error),
	}

	for _, req := range requests {
		log := e.logger.WithFields(map[string]interface{}{
			"symbol":   req.Symbol,
			"side":     req.Side,
			"quantity": req.Quantity,
		})

		if e.dryRun {
			log.Info("[DRY-RUN] Order not submitted")
			continue
		}

		ack, err := e.gateway.Submit(ctx, req)
		if err != nil {
			result.Failures[req.Symbol] = &contracts.SubmissionError{Symbol: req.Symbol, Err: err}
			log.WithError(err).Error("Order submission failed")
			continue
		}

		log.WithFields(map[string]interface{}{
			"order_id": ack.OrderID,
			"status":   ack.Status,
		}).Info("Order submitted")

		result.Acks = append(result.Acks, ack)
	}

	return result
}
