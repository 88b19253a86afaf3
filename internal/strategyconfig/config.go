package strategyconfig

import (
	"github.com/jdowell/mlmbot/internal/contracts"
)

// Config is the full strategy definition loaded from YAML. It is the
// immutable configuration structure injected into the engine; there are
// no process-wide singletons.
type Config struct {
	Meta     Meta                   `yaml:"meta" json:"meta"`
	Signal   Signal                 `yaml:"signal" json:"signal"`
	Regime   Regime                 `yaml:"regime" json:"regime"`
	Schedule Schedule               `yaml:"schedule" json:"schedule"`
	Sizing   Sizing                 `yaml:"sizing" json:"sizing"`
	History  History                `yaml:"history" json:"history"`
	Universe []contracts.Instrument `yaml:"universe" json:"universe"`
}

// Meta identifies the strategy for audit.
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
	Timezone   string `yaml:"timezone" json:"timezone"`
}

// Signal holds the trend and volatility windows.
type Signal struct {
	MAWindow  int `yaml:"ma_window" json:"ma_window"`   // default 200
	VolWindow int `yaml:"vol_window" json:"vol_window"` // default 20
}

// Regime holds the market-wide volatility gate settings.
//
// VolThreshold has no default: the operator must supply it. A
// principled choice is a historical percentile of the same mean-
// volatility statistic computed over a reference lookback of the full
// universe (e.g. the 40th percentile over the past five years).
type Regime struct {
	VolThreshold float64 `yaml:"vol_threshold" json:"vol_threshold"`
}

// Schedule holds the monthly rebalance settings.
type Schedule struct {
	// RebalanceDay is the day-of-month on which a cycle may trade.
	// Restricted to 1-28 so every month has the day; should a wider
	// value ever be configured, months lacking the day skip the cycle.
	RebalanceDay int `yaml:"rebalance_day" json:"rebalance_day"` // default 25
}

// Sizing holds the position-sizing settings. The default policy is a
// fixed number of contracts per instrument; callers may plug in their
// own policy at engine construction.
type Sizing struct {
	ContractSize int `yaml:"contract_size" json:"contract_size"` // default 1
}

// History holds the bar-retrieval settings.
type History struct {
	LookbackDays int `yaml:"lookback_days" json:"lookback_days"` // default 730 (2 years)
}

// Defaults applied by Load for omitted optional fields. VolThreshold
// deliberately has no default.
const (
	DefaultMAWindow     = 200
	DefaultVolWindow    = 20
	DefaultRebalanceDay = 25
	DefaultContractSize = 1
	DefaultLookbackDays = 730
)

// applyDefaults fills optional zero-valued fields.
func (c *Config) applyDefaults() {
	if c.Signal.MAWindow == 0 {
		c.Signal.MAWindow = DefaultMAWindow
	}
	if c.Signal.VolWindow == 0 {
		c.Signal.VolWindow = DefaultVolWindow
	}
	if c.Schedule.RebalanceDay == 0 {
		c.Schedule.RebalanceDay = DefaultRebalanceDay
	}
	if c.Sizing.ContractSize == 0 {
		c.Sizing.ContractSize = DefaultContractSize
	}
	if c.History.LookbackDays == 0 {
		c.History.LookbackDays = DefaultLookbackDays
	}
}
