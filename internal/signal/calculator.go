package signal

import (
	"math"

	"github.com/jdowell/mlmbot/internal/contracts"
	"github.com/jdowell/mlmbot/pkg/logger"
)

// Calculator derives the trend signal and realized volatility from a
// price series. Pure: no side effects, output is a function of the
// series and the two windows only.
type Calculator struct {
	maWindow  int
	volWindow int
	logger    *logger.Logger
}

// NewCalculator creates a signal calculator with the given windows.
func NewCalculator(maWindow, volWindow int, log *logger.Logger) *Calculator {
	return &Calculator{
		maWindow:  maWindow,
		volWindow: volWindow,
		logger:    log,
	}
}

// Compute evaluates one instrument's series.
//
// Direction is LONG when the latest close is strictly above the
// trailing maWindow-bar simple moving average, SHORT when strictly
// below, FLAT when equal or when fewer than maWindow bars exist.
// Volatility is the sample standard deviation of the trailing
// volWindow simple daily returns; nil when fewer than volWindow+1 bars
// exist. A series with a single bar yields FLAT with nil volatility,
// never an error.
func (c *Calculator) Compute(series *contracts.PriceSeries) (*contracts.SignalResult, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if err := c.validateCloses(series); err != nil {
		return nil, err
	}

	result := &contracts.SignalResult{
		Symbol:    series.Symbol,
		Direction: contracts.TrendFlat,
	}

	bars := series.Bars

	if len(bars) >= c.maWindow {
		ma := trailingMean(bars, c.maWindow)
		close := bars[len(bars)-1].Close

		result.MovingAvg = ma
		result.Close = close

		switch {
		case close > ma:
			result.Direction = contracts.TrendLong
		case close < ma:
			result.Direction = contracts.TrendShort
		}
	}

	if vol, ok := c.realizedVol(bars); ok {
		result.Volatility = &vol
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":    result.Symbol,
		"direction": result.Direction,
		"bars":      len(bars),
	}).Debug("Computed trend signal")

	return result, nil
}

// validateCloses rejects zero or negative closes anywhere in the
// series. Returns are undefined across such bars.
func (c *Calculator) validateCloses(series *contracts.PriceSeries) error {
	for _, bar := range series.Bars {
		if bar.Close <= 0 {
			return &contracts.InvalidPriceError{
				Symbol: series.Symbol,
				Date:   bar.Date,
				Close:  bar.Close,
				Reason: "close must be positive",
			}
		}
	}
	return nil
}

// trailingMean is the simple moving average of the last n closes.
func trailingMean(bars []contracts.Bar, n int) float64 {
	sum := 0.0
	for _, bar := range bars[len(bars)-n:] {
		sum += bar.Close
	}
	return sum / float64(n)
}

// realizedVol is the sample standard deviation of the trailing
// volWindow simple daily returns. Needs volWindow+1 bars to produce
// volWindow returns.
func (c *Calculator) realizedVol(bars []contracts.Bar) (float64, bool) {
	if len(bars) < c.volWindow+1 {
		return 0, false
	}

	window := bars[len(bars)-(c.volWindow+1):]
	returns := make([]float64, 0, c.volWindow)
	for i := 1; i < len(window); i++ {
		returns = append(returns, window[i].Close/window[i-1].Close-1)
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	// Sample variance (n-1 denominator)
	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance), true
}
