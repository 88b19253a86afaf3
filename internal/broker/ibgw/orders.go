package ibgw

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jdowell/mlmbot/internal/contracts"
)

// maxConfirmHops bounds the gateway's order-confirmation question
// chain (precautionary warnings the API expects a client to confirm).
const maxConfirmHops = 3

// gatewayOrder is the order payload the gateway accepts.
type gatewayOrder struct {
	ConID     int64  `json:"conid"`
	OrderType string `json:"orderType"`
	Side      string `json:"side"`
	Quantity  int    `json:"quantity"`
	TIF       string `json:"tif"`
}

// orderReply is either a placed order or a confirmation question; the
// gateway uses one shape for both.
type orderReply struct {
	OrderID     string   `json:"order_id"`
	OrderStatus string   `json:"order_status"`
	ReplyID     string   `json:"id"`
	Messages    []string `json:"message"`
}

// Submit places a market order for a resolved contract. Gateway
// confirmation questions (order-size warnings and the like) are
// acknowledged automatically up to maxConfirmHops. A failure is
// terminal for this cycle; submission is never retried.
func (c *Client) Submit(ctx context.Context, req *contracts.OrderRequest) (*contracts.OrderAck, error) {
	if err := c.EnsureSession(ctx); err != nil {
		return nil, fmt.Errorf("submit %s: %w", req.Symbol, err)
	}

	conid, err := strconv.ParseInt(req.Contract.ContractID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("submit %s: bad contract id %q: %w", req.Symbol, req.Contract.ContractID, err)
	}

	body := map[string]interface{}{
		"orders": []gatewayOrder{{
			ConID:     conid,
			OrderType: "MKT",
			Side:      string(req.Side),
			Quantity:  req.Quantity,
			TIF:       "DAY",
		}},
	}

	path := fmt.Sprintf("/iserver/account/%s/orders", c.cfg.AccountID)

	var replies []orderReply
	if err := c.postJSON(ctx, path, body, &replies); err != nil {
		return nil, fmt.Errorf("submit %s: %w", req.Symbol, err)
	}

	// Walk the confirmation chain until the gateway reports an order
	for hop := 0; hop < maxConfirmHops; hop++ {
		if len(replies) == 0 {
			return nil, fmt.Errorf("submit %s: empty gateway reply", req.Symbol)
		}

		reply := replies[0]
		if reply.OrderID != "" {
			ack := &contracts.OrderAck{
				OrderID:     reply.OrderID,
				Symbol:      req.Symbol,
				Status:      parseOrderStatus(reply.OrderStatus),
				SubmittedAt: time.Now(),
			}

			c.logger.WithFields(map[string]interface{}{
				"symbol":   req.Symbol,
				"side":     req.Side,
				"quantity": req.Quantity,
				"order_id": ack.OrderID,
				"status":   ack.Status,
			}).Info("Order placed at gateway")

			return ack, nil
		}

		if reply.ReplyID == "" {
			return nil, fmt.Errorf("submit %s: gateway reply carries neither order nor question: %v",
				req.Symbol, reply.Messages)
		}

		c.logger.WithFields(map[string]interface{}{
			"symbol":   req.Symbol,
			"messages": reply.Messages,
		}).Debug("Confirming gateway order question")

		confirmPath := fmt.Sprintf("/iserver/reply/%s", reply.ReplyID)
		replies = nil
		if err := c.postJSON(ctx, confirmPath, map[string]bool{"confirmed": true}, &replies); err != nil {
			return nil, fmt.Errorf("submit %s: confirm: %w", req.Symbol, err)
		}
	}

	return nil, fmt.Errorf("submit %s: confirmation chain exceeded %d hops", req.Symbol, maxConfirmHops)
}

// parseOrderStatus maps gateway status strings onto the domain enum.
func parseOrderStatus(s string) contracts.OrderStatus {
	switch s {
	case "Filled":
		return contracts.OrderStatusFilled
	case "Cancelled", "Canceled":
		return contracts.OrderStatusCanceled
	case "Inactive", "Rejected":
		return contracts.OrderStatusRejected
	case "PreSubmitted", "PendingSubmit":
		return contracts.OrderStatusPending
	default:
		return contracts.OrderStatusSubmitted
	}
}
