package strategyconfig

import "fmt"

// Validate checks the strategy configuration for internal consistency.
func Validate(c *Config) error {
	if c.Meta.StrategyID == "" {
		return fmt.Errorf("meta.strategy_id is required")
	}

	if c.Signal.MAWindow < 2 {
		return fmt.Errorf("signal.ma_window must be at least 2, got %d", c.Signal.MAWindow)
	}
	if c.Signal.VolWindow < 2 {
		return fmt.Errorf("signal.vol_window must be at least 2, got %d", c.Signal.VolWindow)
	}

	// No default: the operator must choose the threshold explicitly.
	if c.Regime.VolThreshold <= 0 {
		return fmt.Errorf("regime.vol_threshold is required and must be positive")
	}

	if c.Schedule.RebalanceDay < 1 || c.Schedule.RebalanceDay > 28 {
		return fmt.Errorf("schedule.rebalance_day must be in [1,28], got %d", c.Schedule.RebalanceDay)
	}

	if c.Sizing.ContractSize < 1 {
		return fmt.Errorf("sizing.contract_size must be at least 1, got %d", c.Sizing.ContractSize)
	}

	if c.History.LookbackDays < c.Signal.MAWindow {
		return fmt.Errorf("history.lookback_days (%d) must cover signal.ma_window (%d)",
			c.History.LookbackDays, c.Signal.MAWindow)
	}

	if len(c.Universe) == 0 {
		return fmt.Errorf("universe must contain at least one instrument")
	}

	seen := make(map[string]bool, len(c.Universe))
	for i, inst := range c.Universe {
		if inst.Symbol == "" {
			return fmt.Errorf("universe[%d]: symbol is required", i)
		}
		if inst.Exchange == "" {
			return fmt.Errorf("universe[%d] (%s): exchange is required", i, inst.Symbol)
		}
		if inst.Currency == "" {
			return fmt.Errorf("universe[%d] (%s): currency is required", i, inst.Symbol)
		}
		if seen[inst.Symbol] {
			return fmt.Errorf("universe: duplicate symbol %s", inst.Symbol)
		}
		seen[inst.Symbol] = true
	}

	return nil
}
