package signal

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jdowell/mlmbot/internal/contracts"
	"github.com/jdowell/mlmbot/pkg/config"
	"github.com/jdowell/mlmbot/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

// flatSeries builds n bars with a constant close.
func flatSeries(symbol string, n int, close float64) *contracts.PriceSeries {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.Bar, n)
	for i := range bars {
		bars[i] = contracts.Bar{Date: start.AddDate(0, 0, i), Close: close}
	}
	return &contracts.PriceSeries{Symbol: symbol, Bars: bars}
}

// trendingSeries builds n bars climbing (or falling) by step per day.
func trendingSeries(symbol string, n int, start, step float64) *contracts.PriceSeries {
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.Bar, n)
	for i := range bars {
		bars[i] = contracts.Bar{Date: first.AddDate(0, 0, i), Close: start + step*float64(i)}
	}
	return &contracts.PriceSeries{Symbol: symbol, Bars: bars}
}

func TestCompute_InsufficientHistoryIsFlat(t *testing.T) {
	calc := NewCalculator(200, 20, testLogger())

	for _, n := range []int{1, 50, 199} {
		result, err := calc.Compute(flatSeries("CL", n, 80))
		if err != nil {
			t.Fatalf("Compute(%d bars) failed: %v", n, err)
		}
		if result.Direction != contracts.TrendFlat {
			t.Errorf("Compute(%d bars) direction = %s, want FLAT", n, result.Direction)
		}
	}
}

func TestCompute_SingleBar(t *testing.T) {
	calc := NewCalculator(200, 20, testLogger())

	result, err := calc.Compute(flatSeries("CL", 1, 80))
	if err != nil {
		t.Fatalf("Compute(1 bar) must not error: %v", err)
	}
	if result.Direction != contracts.TrendFlat {
		t.Errorf("direction = %s, want FLAT", result.Direction)
	}
	if result.HasVolatility() {
		t.Error("volatility should be nil for a single bar")
	}
}

func TestCompute_TrendDirection(t *testing.T) {
	calc := NewCalculator(200, 20, testLogger())

	// Rising: latest close above the trailing MA
	up, err := calc.Compute(trendingSeries("GC", 250, 1000, 1))
	if err != nil {
		t.Fatal(err)
	}
	if up.Direction != contracts.TrendLong {
		t.Errorf("rising series direction = %s, want LONG", up.Direction)
	}
	if up.Close <= up.MovingAvg {
		t.Errorf("rising series close %v should exceed MA %v", up.Close, up.MovingAvg)
	}

	// Falling: latest close below the trailing MA
	down, err := calc.Compute(trendingSeries("GC", 250, 1000, -1))
	if err != nil {
		t.Fatal(err)
	}
	if down.Direction != contracts.TrendShort {
		t.Errorf("falling series direction = %s, want SHORT", down.Direction)
	}

	// Constant: close equals MA exactly
	flat, err := calc.Compute(flatSeries("GC", 250, 1000))
	if err != nil {
		t.Fatal(err)
	}
	if flat.Direction != contracts.TrendFlat {
		t.Errorf("constant series direction = %s, want FLAT", flat.Direction)
	}
}

func TestCompute_MovingAverageValue(t *testing.T) {
	// 5-bar MA over closes 1..6: trailing five are 2,3,4,5,6 -> MA 4
	calc := NewCalculator(5, 3, testLogger())

	result, err := calc.Compute(trendingSeries("ZC", 6, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(result.MovingAvg-4.0) > 1e-12 {
		t.Errorf("MovingAvg = %v, want 4.0", result.MovingAvg)
	}
	if result.Direction != contracts.TrendLong {
		t.Errorf("direction = %s, want LONG (close 6 > MA 4)", result.Direction)
	}
}

func TestCompute_VolatilityDefinedness(t *testing.T) {
	calc := NewCalculator(200, 20, testLogger())

	// Exactly volWindow bars: one too few for volWindow returns
	r, err := calc.Compute(flatSeries("SI", 20, 30))
	if err != nil {
		t.Fatal(err)
	}
	if r.HasVolatility() {
		t.Error("volatility should be nil with volWindow bars")
	}

	// volWindow+1 bars: defined
	r, err = calc.Compute(flatSeries("SI", 21, 30))
	if err != nil {
		t.Fatal(err)
	}
	if !r.HasVolatility() {
		t.Fatal("volatility should be defined with volWindow+1 bars")
	}
	if *r.Volatility != 0 {
		t.Errorf("flat series volatility = %v, want 0", *r.Volatility)
	}
}

func TestCompute_VolatilityNonNegative(t *testing.T) {
	calc := NewCalculator(200, 20, testLogger())

	series := trendingSeries("NG", 250, 100, 0.5)
	result, err := calc.Compute(series)
	if err != nil {
		t.Fatal(err)
	}
	if !result.HasVolatility() {
		t.Fatal("volatility should be defined")
	}
	if *result.Volatility < 0 {
		t.Errorf("volatility = %v, must be non-negative", *result.Volatility)
	}
}

func TestCompute_VolatilityValue(t *testing.T) {
	// Closes 100, 110, 99: returns +0.10, -0.10. Sample stddev of
	// {0.1, -0.1} is sqrt(2*(0.1)^2/1) = 0.1*sqrt(2).
	calc := NewCalculator(200, 2, testLogger())

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := &contracts.PriceSeries{
		Symbol: "HG",
		Bars: []contracts.Bar{
			{Date: start, Close: 100},
			{Date: start.AddDate(0, 0, 1), Close: 110},
			{Date: start.AddDate(0, 0, 2), Close: 99},
		},
	}

	result, err := calc.Compute(series)
	if err != nil {
		t.Fatal(err)
	}
	if !result.HasVolatility() {
		t.Fatal("volatility should be defined")
	}
	want := 0.1 * math.Sqrt2
	if math.Abs(*result.Volatility-want) > 1e-9 {
		t.Errorf("volatility = %v, want %v", *result.Volatility, want)
	}
}

func TestCompute_RejectsNonPositiveCloses(t *testing.T) {
	calc := NewCalculator(200, 20, testLogger())

	for _, bad := range []float64{0, -1.5} {
		series := flatSeries("KC", 10, 100)
		series.Bars[5].Close = bad

		_, err := calc.Compute(series)
		if err == nil {
			t.Fatalf("Compute() should reject close=%v", bad)
		}
		var ipe *contracts.InvalidPriceError
		if !errors.As(err, &ipe) {
			t.Errorf("error type = %T, want *InvalidPriceError", err)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	calc := NewCalculator(200, 20, testLogger())
	series := trendingSeries("CT", 260, 70, 0.2)

	first, err := calc.Compute(series)
	if err != nil {
		t.Fatal(err)
	}
	second, err := calc.Compute(series)
	if err != nil {
		t.Fatal(err)
	}

	if first.Direction != second.Direction ||
		first.MovingAvg != second.MovingAvg ||
		first.Close != second.Close ||
		*first.Volatility != *second.Volatility {
		t.Error("Compute() must be deterministic for identical input")
	}
}
