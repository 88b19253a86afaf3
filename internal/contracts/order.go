package contracts

import "time"

// ResolvedContract is the concrete tradable (dated) contract for an
// instrument, resolved externally. The engine treats it as opaque input
// needed only to stamp orders.
type ResolvedContract struct {
	Symbol     string `json:"symbol"`
	ContractID string `json:"contract_id"`
	// Expiry is the contract month in YYYYMM (or YYYYMMDD) form, as
	// reported by the gateway.
	Expiry     string    `json:"expiry"`
	Exchange   string    `json:"exchange"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// OrderType represents market or limit order
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderStatus represents the broker-side order state.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusSubmitted OrderStatus = "SUBMITTED"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

// OrderRequest is a concrete order against a resolved contract,
// produced by the planner and consumed by the gateway.
type OrderRequest struct {
	Symbol    string           `json:"symbol"`
	Contract  ResolvedContract `json:"contract"`
	Side      ActionDirection  `json:"side"` // BUY or SELL
	Quantity  int              `json:"quantity"`
	OrderType OrderType        `json:"order_type"`
}

// OrderAck is the gateway's acknowledgement of a submitted order.
type OrderAck struct {
	OrderID     string      `json:"order_id"`
	Symbol      string      `json:"symbol"`
	Status      OrderStatus `json:"status"`
	Message     string      `json:"message,omitempty"`
	SubmittedAt time.Time   `json:"submitted_at"`
}
