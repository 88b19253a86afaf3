package orders

import (
	"context"
	"time"

	"github.com/jdowell/mlmbot/internal/contracts"
	"github.com/jdowell/mlmbot/pkg/logger"
)

// SizingPolicy turns a target action into an order quantity. The
// default keeps the action's fixed quantity; richer policies
// (volatility-scaled, equity-fraction) plug in without touching the
// planner.
type SizingPolicy interface {
	Quantity(action contracts.TargetAction) int
}

// FixedSize sizes every order at the action's own quantity, falling
// back to a configured minimum when the action carries none.
type FixedSize struct {
	Contracts int
}

func (f FixedSize) Quantity(action contracts.TargetAction) int {
	if action.Quantity > 0 {
		return action.Quantity
	}
	if f.Contracts > 0 {
		return f.Contracts
	}
	return 1
}

// Planner converts tradable actions into concrete market-order
// requests against resolved contracts.
// SSOT: action -> order translation happens here only.
type Planner struct {
	resolver contracts.ContractResolver
	sizing   SizingPolicy
	logger   *logger.Logger
}

// NewPlanner creates an order planner. A nil sizing policy defaults to
// fixed single-contract sizing.
func NewPlanner(resolver contracts.ContractResolver, sizing SizingPolicy, log *logger.Logger) *Planner {
	if sizing == nil {
		sizing = FixedSize{Contracts: 1}
	}
	return &Planner{
		resolver: resolver,
		sizing:   sizing,
		logger:   log,
	}
}

// PlanOrder builds the market-order request for one tradable action.
// The contract must already be resolved; a nil contract is an
// UnresolvedContractError, never a silently skipped order.
func (p *Planner) PlanOrder(action contracts.TargetAction, contract *contracts.ResolvedContract) (*contracts.OrderRequest, error) {
	if !action.IsTrade() {
		return nil, nil
	}
	if contract == nil {
		return nil, &contracts.UnresolvedContractError{Symbol: action.Symbol}
	}

	return &contracts.OrderRequest{
		Symbol:    action.Symbol,
		Contract:  *contract,
		Side:      action.Direction,
		Quantity:  p.sizing.Quantity(action),
		OrderType: contracts.OrderTypeMarket,
	}, nil
}

// PlanResult pairs each tradable action with its order or the error
// that prevented one. Failures are per-instrument; one unresolvable
// contract never blocks the rest of the cycle's orders.
type PlanResult struct {
	Orders   []*contracts.OrderRequest
	Failures map[string]error
}

// Plan resolves contracts and builds orders for every tradable action
// in the cycle, in action order.
func (p *Planner) Plan(ctx context.Context, universe []contracts.Instrument, actions []contracts.TargetAction, asOf time.Time) *PlanResult {
	result := &PlanResult{
		Orders:   make([]*contracts.OrderRequest, 0),
		Failures: make(map[string]error),
	}

	for _, action := range actions {
		if !action.IsTrade() {
			continue
		}

		inst, ok := contracts.FindInstrument(universe, action.Symbol)
		if !ok {
			result.Failures[action.Symbol] = &contracts.NoTradableContractError{Symbol: action.Symbol}
			p.logger.WithField("symbol", action.Symbol).Error("Action references unknown instrument")
			continue
		}

		contract, err := p.resolver.ResolveTradable(ctx, inst, asOf)
		if err != nil {
			result.Failures[action.Symbol] = err
			p.logger.WithFields(map[string]interface{}{
				"symbol": action.Symbol,
				"error":  err.Error(),
			}).Warn("Contract resolution failed; order skipped")
			continue
		}

		order, err := p.PlanOrder(action, contract)
		if err != nil {
			result.Failures[action.Symbol] = err
			continue
		}

		p.logger.WithFields(map[string]interface{}{
			"symbol":   order.Symbol,
			"side":     order.Side,
			"quantity": order.Quantity,
			"contract": contract.ContractID,
			"expiry":   contract.Expiry,
		}).Info("Planned market order")

		result.Orders = append(result.Orders, order)
	}

	return result
}
