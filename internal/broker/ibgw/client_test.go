package ibgw

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jdowell/mlmbot/internal/contracts"
	"github.com/jdowell/mlmbot/pkg/config"
	"github.com/jdowell/mlmbot/pkg/httputil"
	"github.com/jdowell/mlmbot/pkg/logger"
	"github.com/jdowell/mlmbot/pkg/redis"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func noopCache(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	if err != nil {
		t.Fatalf("redis.New: %v", err)
	}
	return redis.NewCache(client, "test")
}

// newTestClient wires a gateway client against an httptest server. The
// handler is also responsible for the /iserver/auth/status calls the
// client makes before every operation.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/iserver/auth/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(authStatus{Authenticated: true, Connected: true})
	})
	mux.HandleFunc("/", handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	log := testLogger()
	httpClient := httputil.New(log).DisableRetry()
	cfg := config.GatewayConfig{BaseURL: server.URL, AccountID: "DU12345", Paper: true, RateLimit: 100}

	return NewClient(cfg, httpClient, noopCache(t), log), server
}

func instrument(symbol, exchange string) contracts.Instrument {
	return contracts.Instrument{Symbol: symbol, Exchange: exchange, Currency: "USD", Category: "energy"}
}

func TestResolveTradable_FrontMonth(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trsrv/futures" {
			http.NotFound(w, r)
			return
		}
		// Chain deliberately out of order, with one already-expired entry
		json.NewEncoder(w).Encode(map[string][]futuresChainEntry{
			"CL": {
				{Symbol: "CL", ConID: 333, ExpirationDate: 20270120},
				{Symbol: "CL", ConID: 111, ExpirationDate: 20250820},
				{Symbol: "CL", ConID: 222, ExpirationDate: 20261120},
			},
		})
	})

	asOf := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	resolved, err := client.ResolveTradable(context.Background(), instrument("CL", "NYMEX"), asOf)
	if err != nil {
		t.Fatalf("ResolveTradable: %v", err)
	}

	if resolved.ContractID != "222" {
		t.Errorf("ContractID = %s, want 222 (earliest unexpired)", resolved.ContractID)
	}
	if resolved.Expiry != "20261120" {
		t.Errorf("Expiry = %s, want 20261120", resolved.Expiry)
	}
}

func TestResolveTradable_NoContract(t *testing.T) {
	tests := []struct {
		name  string
		chain map[string][]futuresChainEntry
	}{
		{"empty chain", map[string][]futuresChainEntry{"CL": {}}},
		{"all expired", map[string][]futuresChainEntry{
			"CL": {{Symbol: "CL", ConID: 111, ExpirationDate: 20200101}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.chain)
			})

			_, err := client.ResolveTradable(context.Background(), instrument("CL", "NYMEX"), time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC))
			var ntc *contracts.NoTradableContractError
			if !errors.As(err, &ntc) {
				t.Fatalf("err = %v, want *NoTradableContractError", err)
			}
		})
	}
}

func TestFetchDailyBars(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/trsrv/futures":
			json.NewEncoder(w).Encode(map[string][]futuresChainEntry{
				"CL": {{Symbol: "CL", ConID: 222, ExpirationDate: 20990101}},
			})
		case "/hmds/history":
			// Points deliberately out of order
			json.NewEncoder(w).Encode(historyResponse{
				Symbol: "CL",
				Points: []historyPoint{
					{Timestamp: base.AddDate(0, 0, 2).UnixMilli(), Close: 72.1},
					{Timestamp: base.UnixMilli(), Close: 70.5},
					{Timestamp: base.AddDate(0, 0, 1).UnixMilli(), Close: 71.0},
				},
			})
		default:
			http.NotFound(w, r)
		}
	})

	series, err := client.FetchDailyBars(context.Background(), instrument("CL", "NYMEX"), 30)
	if err != nil {
		t.Fatalf("FetchDailyBars: %v", err)
	}

	if series.Len() != 3 {
		t.Fatalf("got %d bars, want 3", series.Len())
	}
	if !series.Bars[0].Date.Equal(base) {
		t.Errorf("first bar = %s, want %s (ascending order)", series.Bars[0].Date, base)
	}
	if close, ok := series.LatestClose(); !ok || close != 72.1 {
		t.Errorf("LatestClose = %v, want 72.1", close)
	}
}

func TestFetchDailyBars_Empty(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/trsrv/futures":
			json.NewEncoder(w).Encode(map[string][]futuresChainEntry{
				"CL": {{Symbol: "CL", ConID: 222, ExpirationDate: 20990101}},
			})
		case "/hmds/history":
			json.NewEncoder(w).Encode(historyResponse{Symbol: "CL"})
		default:
			http.NotFound(w, r)
		}
	})

	_, err := client.FetchDailyBars(context.Background(), instrument("CL", "NYMEX"), 30)
	var due *contracts.DataUnavailableError
	if !errors.As(err, &due) {
		t.Fatalf("err = %v, want *DataUnavailableError", err)
	}
	if due.Symbol != "CL" {
		t.Errorf("Symbol = %s, want CL", due.Symbol)
	}
}

func TestSubmit(t *testing.T) {
	var gotOrder gatewayOrder

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/iserver/account/DU12345/orders":
			var body struct {
				Orders []gatewayOrder `json:"orders"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			gotOrder = body.Orders[0]
			// First reply is a confirmation question
			json.NewEncoder(w).Encode([]orderReply{
				{ReplyID: "q-1", Messages: []string{"order size warning"}},
			})
		case "/iserver/reply/q-1":
			json.NewEncoder(w).Encode([]orderReply{
				{OrderID: "ord-42", OrderStatus: "Submitted"},
			})
		default:
			http.NotFound(w, r)
		}
	})

	req := &contracts.OrderRequest{
		Symbol: "CL",
		Contract: contracts.ResolvedContract{
			Symbol: "CL", ContractID: "222", Expiry: "20261120", Exchange: "NYMEX",
		},
		Side:      contracts.ActionBuy,
		Quantity:  1,
		OrderType: contracts.OrderTypeMarket,
	}

	ack, err := client.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if ack.OrderID != "ord-42" || ack.Status != contracts.OrderStatusSubmitted {
		t.Errorf("ack = %s/%s, want ord-42/SUBMITTED", ack.OrderID, ack.Status)
	}
	if gotOrder.ConID != 222 || gotOrder.OrderType != "MKT" || gotOrder.Side != "BUY" || gotOrder.Quantity != 1 {
		t.Errorf("gateway order = %+v, want conid 222 MKT BUY qty 1", gotOrder)
	}
}

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		in   string
		want contracts.OrderStatus
	}{
		{"Filled", contracts.OrderStatusFilled},
		{"Cancelled", contracts.OrderStatusCanceled},
		{"Inactive", contracts.OrderStatusRejected},
		{"PreSubmitted", contracts.OrderStatusPending},
		{"Submitted", contracts.OrderStatusSubmitted},
	}

	for _, tt := range tests {
		if got := parseOrderStatus(tt.in); got != tt.want {
			t.Errorf("parseOrderStatus(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
