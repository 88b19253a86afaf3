package contracts

// TrendDirection is the trend signal derived from the moving-average
// crossover.
type TrendDirection string

const (
	TrendLong  TrendDirection = "LONG"
	TrendShort TrendDirection = "SHORT"
	TrendFlat  TrendDirection = "FLAT"
)

// SignalResult holds one instrument's trend signal and realized
// volatility for a cycle. Immutable once produced.
type SignalResult struct {
	Symbol    string         `json:"symbol"`
	Direction TrendDirection `json:"direction"`

	// MovingAvg and Close are zero when Direction is FLAT due to
	// insufficient history.
	MovingAvg float64 `json:"moving_avg"`
	Close     float64 `json:"close"`

	// Volatility is the sample standard deviation of trailing daily
	// returns; nil when the series has too few bars to define it.
	Volatility *float64 `json:"volatility,omitempty"`
}

// HasVolatility reports whether realized volatility is defined.
func (s *SignalResult) HasVolatility() bool {
	return s.Volatility != nil
}

// MarketRegime is the market-wide volatility state shared by every
// instrument in a cycle. The gate aggregates across the universe; it is
// deliberately not per-instrument.
type MarketRegime struct {
	MeanVolatility float64 `json:"mean_volatility"`
	Threshold      float64 `json:"threshold"`
	Tradable       bool    `json:"tradable"`

	// DefinedCount is how many instruments contributed a defined
	// volatility to the mean. Zero forces Tradable=false.
	DefinedCount int `json:"defined_count"`
}
