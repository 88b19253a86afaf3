package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdowell/mlmbot/internal/contracts"
)

// Repository persists cycle summaries and their actions.
// SSOT: cycle persistence lives here only.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new cycle repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveCycle stores a completed cycle and all of its actions in one
// transaction. Re-running the same date replaces the previous record,
// matching the engine's idempotent evaluation.
func (r *Repository) SaveCycle(ctx context.Context, summary *contracts.CycleSummary, configHash string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cycleQuery := `
		INSERT INTO mlm.cycles (
			run_id, cycle_date, rebalance_day, tradable, mean_volatility,
			vol_threshold, defined_count, duration_ms, config_hash, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id) DO UPDATE SET
			rebalance_day = EXCLUDED.rebalance_day,
			tradable = EXCLUDED.tradable,
			mean_volatility = EXCLUDED.mean_volatility,
			vol_threshold = EXCLUDED.vol_threshold,
			defined_count = EXCLUDED.defined_count,
			duration_ms = EXCLUDED.duration_ms,
			config_hash = EXCLUDED.config_hash,
			created_at = EXCLUDED.created_at
	`

	var tradable bool
	var meanVol, threshold float64
	var definedCount int
	if summary.Regime != nil {
		tradable = summary.Regime.Tradable
		meanVol = summary.Regime.MeanVolatility
		threshold = summary.Regime.Threshold
		definedCount = summary.Regime.DefinedCount
	}

	_, err = tx.Exec(ctx, cycleQuery,
		summary.RunID, summary.Date.Truncate(24*time.Hour), summary.RebalanceDay,
		tradable, meanVol, threshold, definedCount,
		summary.Duration.Milliseconds(), configHash, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save cycle: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM mlm.cycle_actions WHERE run_id = $1`, summary.RunID); err != nil {
		return fmt.Errorf("failed to clear cycle actions: %w", err)
	}

	actionQuery := `
		INSERT INTO mlm.cycle_actions (
			run_id, symbol, direction, quantity, reason,
			trend, moving_avg, close, volatility
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, a := range summary.Actions {
		var trend *string
		var movingAvg, close, volatility *float64
		if a.Signal != nil {
			t := string(a.Signal.Direction)
			trend = &t
			movingAvg = &a.Signal.MovingAvg
			close = &a.Signal.Close
			volatility = a.Signal.Volatility
		}

		_, err := tx.Exec(ctx, actionQuery,
			summary.RunID, a.Symbol, a.Direction, a.Quantity, a.Reason,
			trend, movingAvg, close, volatility,
		)
		if err != nil {
			return fmt.Errorf("failed to save action for %s: %w", a.Symbol, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cycle: %w", err)
	}

	return nil
}

// GetCycleByDate retrieves the cycle evaluated for a calendar date.
func (r *Repository) GetCycleByDate(ctx context.Context, date time.Time) (*contracts.CycleSummary, error) {
	query := `
		SELECT run_id, cycle_date, rebalance_day, tradable, mean_volatility,
		       vol_threshold, defined_count, duration_ms
		FROM mlm.cycles
		WHERE cycle_date = $1
	`
	return r.scanCycle(ctx, r.pool.QueryRow(ctx, query, date.Truncate(24*time.Hour)))
}

// GetLatestCycle retrieves the most recently evaluated cycle.
func (r *Repository) GetLatestCycle(ctx context.Context) (*contracts.CycleSummary, error) {
	query := `
		SELECT run_id, cycle_date, rebalance_day, tradable, mean_volatility,
		       vol_threshold, defined_count, duration_ms
		FROM mlm.cycles
		ORDER BY cycle_date DESC
		LIMIT 1
	`
	return r.scanCycle(ctx, r.pool.QueryRow(ctx, query))
}

func (r *Repository) scanCycle(ctx context.Context, row pgx.Row) (*contracts.CycleSummary, error) {
	var summary contracts.CycleSummary
	var regime contracts.MarketRegime
	var durationMs int64

	err := row.Scan(
		&summary.RunID, &summary.Date, &summary.RebalanceDay,
		&regime.Tradable, &regime.MeanVolatility, &regime.Threshold,
		&regime.DefinedCount, &durationMs,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cycle not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle: %w", err)
	}

	summary.Regime = &regime
	summary.Duration = time.Duration(durationMs) * time.Millisecond

	actions, err := r.getActions(ctx, summary.RunID)
	if err != nil {
		return nil, err
	}
	summary.Actions = actions

	return &summary, nil
}

func (r *Repository) getActions(ctx context.Context, runID string) ([]contracts.TargetAction, error) {
	query := `
		SELECT symbol, direction, quantity, reason, trend, moving_avg, close, volatility
		FROM mlm.cycle_actions
		WHERE run_id = $1
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	actions := make([]contracts.TargetAction, 0)

	for rows.Next() {
		var a contracts.TargetAction
		var trend *string
		var movingAvg, close, volatility *float64

		if err := rows.Scan(&a.Symbol, &a.Direction, &a.Quantity, &a.Reason,
			&trend, &movingAvg, &close, &volatility); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}

		if trend != nil {
			a.Signal = &contracts.SignalResult{
				Symbol:     a.Symbol,
				Direction:  contracts.TrendDirection(*trend),
				Volatility: volatility,
			}
			if movingAvg != nil {
				a.Signal.MovingAvg = *movingAvg
			}
			if close != nil {
				a.Signal.Close = *close
			}
		}

		actions = append(actions, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate actions: %w", err)
	}

	return actions, nil
}
