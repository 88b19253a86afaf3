package strategyconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jdowell/mlmbot/internal/contracts"
)

func writeStrategyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalYAML = `
meta:
  strategy_id: test_v1
  version: "1.0"
  timezone: America/New_York
regime:
  vol_threshold: 0.015
universe:
  - { symbol: CL, exchange: NYMEX, currency: USD, category: Energy }
  - { symbol: GC, exchange: COMEX, currency: USD, category: Metals }
`

func TestLoad_Defaults(t *testing.T) {
	path := writeStrategyFile(t, minimalYAML)

	cfg, raw, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(raw) == 0 {
		t.Error("Load() should return raw bytes")
	}

	if cfg.Signal.MAWindow != DefaultMAWindow {
		t.Errorf("MAWindow = %d, want %d", cfg.Signal.MAWindow, DefaultMAWindow)
	}
	if cfg.Signal.VolWindow != DefaultVolWindow {
		t.Errorf("VolWindow = %d, want %d", cfg.Signal.VolWindow, DefaultVolWindow)
	}
	if cfg.Schedule.RebalanceDay != DefaultRebalanceDay {
		t.Errorf("RebalanceDay = %d, want %d", cfg.Schedule.RebalanceDay, DefaultRebalanceDay)
	}
	if cfg.Sizing.ContractSize != DefaultContractSize {
		t.Errorf("ContractSize = %d, want %d", cfg.Sizing.ContractSize, DefaultContractSize)
	}
	if cfg.History.LookbackDays != DefaultLookbackDays {
		t.Errorf("LookbackDays = %d, want %d", cfg.History.LookbackDays, DefaultLookbackDays)
	}
	if len(cfg.Universe) != 2 {
		t.Errorf("Universe size = %d, want 2", len(cfg.Universe))
	}
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeStrategyFile(t, minimalYAML+`
unknown_section:
  foo: bar
`)

	_, _, err := Load(path)
	if err == nil {
		t.Fatal("Load() should reject unknown fields")
	}
}

func TestLoad_MissingThreshold(t *testing.T) {
	path := writeStrategyFile(t, `
meta:
  strategy_id: test_v1
universe:
  - { symbol: CL, exchange: NYMEX, currency: USD, category: Energy }
`)

	_, _, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "vol_threshold") {
		t.Fatalf("Load() without vol_threshold should fail, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{
			Meta:   Meta{StrategyID: "test_v1"},
			Regime: Regime{VolThreshold: 0.015},
			Universe: []contracts.Instrument{
				{Symbol: "CL", Exchange: "NYMEX", Currency: "USD", Category: "Energy"},
			},
		}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"rebalance day too high", func(c *Config) { c.Schedule.RebalanceDay = 29 }, "rebalance_day"},
		{"rebalance day too low", func(c *Config) { c.Schedule.RebalanceDay = -1 }, "rebalance_day"},
		{"lookback below ma window", func(c *Config) { c.History.LookbackDays = 100 }, "lookback_days"},
		{"empty universe", func(c *Config) { c.Universe = nil }, "universe"},
		{"duplicate symbol", func(c *Config) {
			c.Universe = append(c.Universe, c.Universe[0])
		}, "duplicate"},
		{"missing exchange", func(c *Config) { c.Universe[0].Exchange = "" }, "exchange"},
		{"zero contract size", func(c *Config) { c.Sizing.ContractSize = -1 }, "contract_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestHash_Deterministic(t *testing.T) {
	path := writeStrategyFile(t, minimalYAML)
	cfg, _, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	h1, err := Hash(cfg)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Hash(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if h1 != h2 {
		t.Errorf("Hash() not deterministic: %s != %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("Hash() length = %d, want 64 hex chars", len(h1))
	}
}
