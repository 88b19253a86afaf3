package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdowell/mlmbot/internal/contracts"
)

// Repository persists submitted orders and their acknowledgements.
// SSOT: order persistence lives here only.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new order repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveAck records a gateway acknowledgement, keyed by broker order ID.
// Status updates from the order stream upsert over the same row.
func (r *Repository) SaveAck(ctx context.Context, runID string, req *contracts.OrderRequest, ack *contracts.OrderAck) error {
	query := `
		INSERT INTO mlm.orders (
			order_id, run_id, symbol, contract_id, expiry, side,
			quantity, order_type, status, message, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (order_id) DO UPDATE SET
			status = EXCLUDED.status,
			message = EXCLUDED.message
	`

	_, err := r.pool.Exec(ctx, query,
		ack.OrderID, runID, req.Symbol, req.Contract.ContractID, req.Contract.Expiry,
		req.Side, req.Quantity, req.OrderType, ack.Status, ack.Message, ack.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save order ack: %w", err)
	}

	return nil
}

// UpdateStatus applies a broker-side status change from the order
// status stream.
func (r *Repository) UpdateStatus(ctx context.Context, orderID string, status contracts.OrderStatus, message string) error {
	query := `
		UPDATE mlm.orders
		SET status = $1, message = $2, updated_at = $3
		WHERE order_id = $4
	`

	_, err := r.pool.Exec(ctx, query, status, message, time.Now(), orderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return nil
}

// GetByRun retrieves all orders submitted for a cycle run.
func (r *Repository) GetByRun(ctx context.Context, runID string) ([]contracts.OrderAck, error) {
	query := `
		SELECT order_id, symbol, status, message, submitted_at
		FROM mlm.orders
		WHERE run_id = $1
		ORDER BY submitted_at ASC
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	acks := make([]contracts.OrderAck, 0)

	for rows.Next() {
		var ack contracts.OrderAck
		if err := rows.Scan(&ack.OrderID, &ack.Symbol, &ack.Status, &ack.Message, &ack.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		acks = append(acks, ack)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return acks, nil
}
