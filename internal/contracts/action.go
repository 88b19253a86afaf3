package contracts

import "time"

// ActionDirection is the trade direction of a target action.
type ActionDirection string

const (
	ActionBuy      ActionDirection = "BUY"
	ActionSell     ActionDirection = "SELL"
	ActionNoAction ActionDirection = "NO_ACTION"
)

// NoAction reasons. Every NO_ACTION carries exactly one so a cycle
// summary accounts for every instrument in the universe.
const (
	ReasonNotRebalanceDay     = "not_rebalance_day"
	ReasonRegimeNotTradable   = "regime_not_tradable"
	ReasonInsufficientHistory = "insufficient_history"
	ReasonFlatSignal          = "flat_signal"
	ReasonDataUnavailable     = "data_unavailable"
	ReasonInvalidPrice        = "invalid_price"
)

// TargetAction is the engine's decision for one instrument in one
// cycle. Direction != NO_ACTION implies a non-flat signal in a tradable
// regime.
type TargetAction struct {
	Symbol    string          `json:"symbol"`
	Direction ActionDirection `json:"direction"`
	Quantity  int             `json:"quantity"`

	// Reason is set only for NO_ACTION.
	Reason string `json:"reason,omitempty"`

	// Signal is nil when the instrument's data could not be fetched.
	Signal *SignalResult `json:"signal,omitempty"`
}

// IsTrade reports whether the action results in an order.
func (a *TargetAction) IsTrade() bool {
	return a.Direction == ActionBuy || a.Direction == ActionSell
}

// CycleSummary is the full output of one rebalance cycle: one action
// per universe instrument, in universe order, plus the shared regime.
type CycleSummary struct {
	RunID        string         `json:"run_id"`
	Date         time.Time      `json:"date"`
	RebalanceDay bool           `json:"rebalance_day"`
	Regime       *MarketRegime  `json:"regime,omitempty"`
	Actions      []TargetAction `json:"actions"`
	Duration     time.Duration  `json:"duration"`
}

// TradeCount returns the number of actionable decisions in the cycle.
func (c *CycleSummary) TradeCount() int {
	count := 0
	for i := range c.Actions {
		if c.Actions[i].IsTrade() {
			count++
		}
	}
	return count
}

// Get returns the action for a symbol.
func (c *CycleSummary) Get(symbol string) (*TargetAction, bool) {
	for i := range c.Actions {
		if c.Actions[i].Symbol == symbol {
			return &c.Actions[i], true
		}
	}
	return nil, false
}
