package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jdowell/mlmbot/internal/contracts"
	"github.com/jdowell/mlmbot/internal/regime"
	"github.com/jdowell/mlmbot/internal/schedule"
	"github.com/jdowell/mlmbot/internal/signal"
	"github.com/jdowell/mlmbot/pkg/logger"
)

// Cycle states. One deterministic pass per cycle; no retries, no
// cross-cycle state beyond the freshly supplied price series.
type cycleState string

const (
	stateAwaitingSchedule cycleState = "AwaitingSchedule"
	stateComputingSignals cycleState = "ComputingSignals"
	stateGatingVolatility cycleState = "GatingVolatility"
	stateEmittingActions  cycleState = "EmittingActions"
)

// Engine orchestrates one rebalance cycle: schedule check, per-
// instrument signals, market-wide volatility gate, target actions.
// Given identical series and configuration it produces identical
// actions; the only clock it sees is the supplied evaluation date.
type Engine struct {
	signals *signal.Calculator
	gate    *regime.Gate
	policy  schedule.RebalancePolicy
	history contracts.HistoryProvider

	universe     []contracts.Instrument
	maWindow     int
	lookbackDays int
	contractSize int

	logger *logger.Logger
}

// Config holds the engine's immutable per-construction settings.
type Config struct {
	Universe     []contracts.Instrument
	MAWindow     int
	LookbackDays int
	ContractSize int
}

// New creates a decision engine.
func New(
	signals *signal.Calculator,
	gate *regime.Gate,
	policy schedule.RebalancePolicy,
	history contracts.HistoryProvider,
	cfg Config,
	log *logger.Logger,
) *Engine {
	return &Engine{
		signals:      signals,
		gate:         gate,
		policy:       policy,
		history:      history,
		universe:     cfg.Universe,
		maWindow:     cfg.MAWindow,
		lookbackDays: cfg.LookbackDays,
		contractSize: cfg.ContractSize,
		logger:       log,
	}
}

// instrumentOutcome is the per-instrument result of the signal stage.
type instrumentOutcome struct {
	inst       contracts.Instrument
	signal     *contracts.SignalResult
	barCount   int
	failReason string
}

// EvaluateCycle runs one full cycle for the given calendar date and
// returns an action for every instrument in the universe, in universe
// order. A data problem in one instrument never blocks the rest.
func (e *Engine) EvaluateCycle(ctx context.Context, date time.Time) (*contracts.CycleSummary, error) {
	startTime := time.Now()

	summary := &contracts.CycleSummary{
		RunID: GenerateRunID(date),
		Date:  date,
	}

	e.logger.WithFields(map[string]interface{}{
		"run_id":      summary.RunID,
		"date":        date.Format("2006-01-02"),
		"instruments": len(e.universe),
	}).Info("Starting rebalance cycle")

	// AwaitingSchedule
	e.logState(summary.RunID, stateAwaitingSchedule)
	summary.RebalanceDay = e.policy.ShouldRebalance(date)
	if !summary.RebalanceDay {
		summary.Actions = e.allNoAction(contracts.ReasonNotRebalanceDay)
		summary.Duration = time.Since(startTime)
		e.logger.WithField("run_id", summary.RunID).Info("Not a rebalance day; cycle ends with no actions")
		return summary, nil
	}

	// ComputingSignals
	e.logState(summary.RunID, stateComputingSignals)
	outcomes := e.computeSignals(ctx)

	// GatingVolatility
	e.logState(summary.RunID, stateGatingVolatility)
	signals := make([]*contracts.SignalResult, 0, len(outcomes))
	for _, o := range outcomes {
		if o.signal != nil {
			signals = append(signals, o.signal)
		}
	}
	summary.Regime = e.gate.Evaluate(signals)

	// EmittingActions
	e.logState(summary.RunID, stateEmittingActions)
	summary.Actions = e.emitActions(outcomes, summary.Regime)
	summary.Duration = time.Since(startTime)

	e.logger.WithFields(map[string]interface{}{
		"run_id":   summary.RunID,
		"tradable": summary.Regime.Tradable,
		"trades":   summary.TradeCount(),
		"duration": summary.Duration,
	}).Info("Rebalance cycle completed")

	return summary, nil
}

// computeSignals evaluates every instrument independently. Failures
// degrade the instrument to a reasoned NO_ACTION; they are logged and
// recorded, never swallowed, and never abort the cycle.
func (e *Engine) computeSignals(ctx context.Context) []instrumentOutcome {
	outcomes := make([]instrumentOutcome, 0, len(e.universe))

	for _, inst := range e.universe {
		outcome := instrumentOutcome{inst: inst}

		series, err := e.history.FetchDailyBars(ctx, inst, e.lookbackDays)
		if err != nil {
			outcome.failReason = contracts.ReasonDataUnavailable
			e.logger.WithFields(map[string]interface{}{
				"symbol": inst.Symbol,
				"error":  err.Error(),
			}).Warn("History unavailable; instrument degrades to NO_ACTION")
			outcomes = append(outcomes, outcome)
			continue
		}

		result, err := e.signals.Compute(series)
		if err != nil {
			var ipe *contracts.InvalidPriceError
			if errors.As(err, &ipe) {
				outcome.failReason = contracts.ReasonInvalidPrice
			} else {
				outcome.failReason = contracts.ReasonDataUnavailable
			}
			e.logger.WithFields(map[string]interface{}{
				"symbol": inst.Symbol,
				"error":  err.Error(),
			}).Warn("Signal computation failed; instrument degrades to NO_ACTION")
			outcomes = append(outcomes, outcome)
			continue
		}

		outcome.signal = result
		outcome.barCount = series.Len()
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

// emitActions combines the regime with per-instrument signals. Buy for
// LONG, Sell for SHORT; everything else is a reasoned NO_ACTION.
func (e *Engine) emitActions(outcomes []instrumentOutcome, market *contracts.MarketRegime) []contracts.TargetAction {
	actions := make([]contracts.TargetAction, 0, len(outcomes))

	for _, o := range outcomes {
		action := contracts.TargetAction{
			Symbol: o.inst.Symbol,
			Signal: o.signal,
		}

		switch {
		case o.failReason != "":
			action.Direction = contracts.ActionNoAction
			action.Reason = o.failReason

		case !market.Tradable:
			action.Direction = contracts.ActionNoAction
			action.Reason = contracts.ReasonRegimeNotTradable

		case o.signal.Direction == contracts.TrendLong:
			action.Direction = contracts.ActionBuy
			action.Quantity = e.contractSize

		case o.signal.Direction == contracts.TrendShort:
			action.Direction = contracts.ActionSell
			action.Quantity = e.contractSize

		default: // FLAT
			action.Direction = contracts.ActionNoAction
			if o.barCount < e.maWindow {
				action.Reason = contracts.ReasonInsufficientHistory
			} else {
				action.Reason = contracts.ReasonFlatSignal
			}
		}

		actions = append(actions, action)
	}

	return actions
}

// allNoAction emits the same reasoned NO_ACTION for every instrument.
func (e *Engine) allNoAction(reason string) []contracts.TargetAction {
	actions := make([]contracts.TargetAction, 0, len(e.universe))
	for _, inst := range e.universe {
		actions = append(actions, contracts.TargetAction{
			Symbol:    inst.Symbol,
			Direction: contracts.ActionNoAction,
			Reason:    reason,
		})
	}
	return actions
}

func (e *Engine) logState(runID string, state cycleState) {
	e.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"state":  string(state),
	}).Debug("Cycle state transition")
}

// GenerateRunID derives the cycle's run ID from the evaluation date.
// Date-derived, not wall-clock-derived, so repeated evaluations of the
// same date are recognizably the same cycle.
func GenerateRunID(date time.Time) string {
	return fmt.Sprintf("cycle_%s", date.Format("20060102"))
}
