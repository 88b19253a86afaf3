package regime

import (
	"math"
	"testing"

	"github.com/jdowell/mlmbot/internal/contracts"
	"github.com/jdowell/mlmbot/pkg/config"
	"github.com/jdowell/mlmbot/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func vol(v float64) *float64 { return &v }

func TestEvaluate_MeanAndThreshold(t *testing.T) {
	tests := []struct {
		name         string
		threshold    float64
		signals      []*contracts.SignalResult
		wantTradable bool
		wantMean     float64
		wantDefined  int
	}{
		{
			name:      "mean above threshold",
			threshold: 0.015,
			signals: []*contracts.SignalResult{
				{Symbol: "CL", Volatility: vol(0.02)},
				{Symbol: "GC", Volatility: vol(0.03)},
			},
			wantTradable: true,
			wantMean:     0.025,
			wantDefined:  2,
		},
		{
			name:      "mean below threshold",
			threshold: 0.015,
			signals: []*contracts.SignalResult{
				{Symbol: "CL", Volatility: vol(0.01)},
				{Symbol: "GC", Volatility: vol(0.012)},
			},
			wantTradable: false,
			wantMean:     0.011,
			wantDefined:  2,
		},
		{
			name:      "boundary equal is tradable",
			threshold: 0.015,
			signals: []*contracts.SignalResult{
				{Symbol: "CL", Volatility: vol(0.015)},
			},
			wantTradable: true,
			wantMean:     0.015,
			wantDefined:  1,
		},
		{
			name:      "just below boundary",
			threshold: 0.015,
			signals: []*contracts.SignalResult{
				{Symbol: "CL", Volatility: vol(0.0149999)},
			},
			wantTradable: false,
			wantMean:     0.0149999,
			wantDefined:  1,
		},
		{
			name:      "nil volatilities excluded from mean",
			threshold: 0.015,
			signals: []*contracts.SignalResult{
				{Symbol: "CL", Volatility: vol(0.02)},
				{Symbol: "GC"},
				{Symbol: "SI"},
			},
			wantTradable: true,
			wantMean:     0.02,
			wantDefined:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(tt.threshold, testLogger())
			regime := gate.Evaluate(tt.signals)

			if regime.Tradable != tt.wantTradable {
				t.Errorf("Tradable = %v, want %v", regime.Tradable, tt.wantTradable)
			}
			if math.Abs(regime.MeanVolatility-tt.wantMean) > 1e-12 {
				t.Errorf("MeanVolatility = %v, want %v", regime.MeanVolatility, tt.wantMean)
			}
			if regime.DefinedCount != tt.wantDefined {
				t.Errorf("DefinedCount = %d, want %d", regime.DefinedCount, tt.wantDefined)
			}
			if regime.Threshold != tt.threshold {
				t.Errorf("Threshold = %v, want %v", regime.Threshold, tt.threshold)
			}
		})
	}
}

func TestEvaluate_NoDefinedVolatilityFailsSafe(t *testing.T) {
	gate := NewGate(0.015, testLogger())

	tests := []struct {
		name    string
		signals []*contracts.SignalResult
	}{
		{"empty set", nil},
		{"all nil volatility", []*contracts.SignalResult{{Symbol: "CL"}, {Symbol: "GC"}}},
		{"nil entries", []*contracts.SignalResult{nil, nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regime := gate.Evaluate(tt.signals)
			if regime.Tradable {
				t.Error("regime must not be tradable without defined volatility")
			}
			if regime.DefinedCount != 0 {
				t.Errorf("DefinedCount = %d, want 0", regime.DefinedCount)
			}
		})
	}
}
