package contracts

import (
	"context"
	"time"
)

// HistoryProvider fetches daily bars of the continuous series for an
// instrument. Implementations fail with *DataUnavailableError when no
// bars exist.
type HistoryProvider interface {
	FetchDailyBars(ctx context.Context, inst Instrument, lookbackDays int) (*PriceSeries, error)
}

// ContractResolver resolves the concrete tradable (front-month)
// contract for an instrument. Implementations fail with
// *NoTradableContractError when no valid dated contract exists.
type ContractResolver interface {
	ResolveTradable(ctx context.Context, inst Instrument, asOf time.Time) (*ResolvedContract, error)
}

// OrderGateway submits orders to the execution venue. Paper vs live is
// a property of the binding; the decision engine produces identical
// output regardless of mode.
type OrderGateway interface {
	Submit(ctx context.Context, req *OrderRequest) (*OrderAck, error)
}
