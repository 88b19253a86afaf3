package regime

import (
	"github.com/jdowell/mlmbot/internal/contracts"
	"github.com/jdowell/mlmbot/pkg/logger"
)

// Gate aggregates per-instrument realized volatility into one
// market-wide regime. The whole universe trades or none of it does;
// per-instrument gating is an open design question the original
// strategy answers with aggregation, preserved here.
type Gate struct {
	threshold float64
	logger    *logger.Logger
}

// NewGate creates a volatility gate. The threshold is operator-supplied
// with no default; a principled choice derives from a historical
// percentile of the same mean-volatility statistic over a reference
// lookback of the full universe.
func NewGate(threshold float64, log *logger.Logger) *Gate {
	return &Gate{
		threshold: threshold,
		logger:    log,
	}
}

// Evaluate computes the arithmetic mean of all defined volatilities in
// the cycle's signal set. Tradable iff mean >= threshold. When no
// instrument has a defined volatility the regime is not tradable
// (fail-safe default).
func (g *Gate) Evaluate(signals []*contracts.SignalResult) *contracts.MarketRegime {
	regime := &contracts.MarketRegime{
		Threshold: g.threshold,
	}

	sum := 0.0
	for _, s := range signals {
		if s == nil || !s.HasVolatility() {
			continue
		}
		sum += *s.Volatility
		regime.DefinedCount++
	}

	if regime.DefinedCount == 0 {
		g.logger.Warn("No instrument has a defined volatility; regime not tradable")
		return regime
	}

	regime.MeanVolatility = sum / float64(regime.DefinedCount)
	regime.Tradable = regime.MeanVolatility >= g.threshold

	g.logger.WithFields(map[string]interface{}{
		"mean_volatility": regime.MeanVolatility,
		"threshold":       g.threshold,
		"defined_count":   regime.DefinedCount,
		"tradable":        regime.Tradable,
	}).Info("Evaluated market regime")

	return regime
}
