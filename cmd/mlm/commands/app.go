package commands

import (
	"context"
	"fmt"

	"github.com/jdowell/mlmbot/internal/broker/ibgw"
	"github.com/jdowell/mlmbot/internal/engine"
	"github.com/jdowell/mlmbot/internal/orders"
	"github.com/jdowell/mlmbot/internal/regime"
	"github.com/jdowell/mlmbot/internal/schedule"
	"github.com/jdowell/mlmbot/internal/scheduler/jobs"
	"github.com/jdowell/mlmbot/internal/signal"
	"github.com/jdowell/mlmbot/internal/strategyconfig"
	"github.com/jdowell/mlmbot/pkg/config"
	"github.com/jdowell/mlmbot/pkg/database"
	"github.com/jdowell/mlmbot/pkg/httputil"
	"github.com/jdowell/mlmbot/pkg/logger"
	"github.com/jdowell/mlmbot/pkg/redis"
)

// app holds the wired dependencies shared by the CLI commands.
type app struct {
	cfg      *config.Config
	strategy *strategyconfig.Config
	log      *logger.Logger
	db       *database.DB
	gateway  *ibgw.Client

	engine     *engine.Engine
	cycleRepo  *engine.Repository
	orderRepo  *orders.Repository
	evaluation *jobs.EvaluationJob
}

// initApp builds the full dependency graph from environment and
// strategy configuration. Every command goes through here so wiring
// exists in exactly one place.
func initApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	strategyPath := cfg.StrategyFile
	if strategyFile != "" {
		strategyPath = strategyFile
	}

	strategy, _, err := strategyconfig.Load(strategyPath)
	if err != nil {
		return nil, fmt.Errorf("load strategy %s: %w", strategyPath, err)
	}

	configHash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return nil, fmt.Errorf("hash strategy: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"strategy":    strategy.Meta.StrategyID,
		"config_hash": configHash[:12],
		"instruments": len(strategy.Universe),
		"paper":       cfg.Gateway.Paper,
	}).Info("Strategy loaded")

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	cache := redis.NewCache(redisClient, "mlm")

	gateway := ibgw.NewClient(cfg.Gateway, httputil.New(log), cache, log)

	calc := signal.NewCalculator(strategy.Signal.MAWindow, strategy.Signal.VolWindow, log)
	gate := regime.NewGate(strategy.Regime.VolThreshold, log)
	policy := schedule.NewRebalancePolicy(strategy.Schedule.RebalanceDay)

	eng := engine.New(calc, gate, policy, gateway, engine.Config{
		Universe:     strategy.Universe,
		MAWindow:     strategy.Signal.MAWindow,
		LookbackDays: strategy.History.LookbackDays,
		ContractSize: strategy.Sizing.ContractSize,
	}, log)

	planner := orders.NewPlanner(gateway, orders.FixedSize{Contracts: strategy.Sizing.ContractSize}, log)
	executor := orders.NewExecutor(gateway, dryRun, log)

	cycleRepo := engine.NewRepository(db.Pool)
	orderRepo := orders.NewRepository(db.Pool)

	evaluation := jobs.NewEvaluationJob(
		eng, planner, executor,
		cycleRepo, orderRepo,
		strategy.Universe, configHash,
		evaluationSchedule, log,
	)

	return &app{
		cfg:        cfg,
		strategy:   strategy,
		log:        log,
		db:         db,
		gateway:    gateway,
		engine:     eng,
		cycleRepo:  cycleRepo,
		orderRepo:  orderRepo,
		evaluation: evaluation,
	}, nil
}

// close releases the app's connections.
func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

// startOrderStream follows the gateway's order-status stream and folds
// broker-side status changes into the order store. Best-effort: the
// daemon keeps running without the stream.
func (a *app) startOrderStream(ctx context.Context) *ibgw.OrderStream {
	stream := ibgw.NewOrderStream(a.cfg.Gateway, a.log)

	stream.OnUpdate(func(update *ibgw.OrderUpdate) {
		if err := a.orderRepo.UpdateStatus(ctx, update.OrderID, update.Status, update.Message); err != nil {
			a.log.WithError(err).WithField("order_id", update.OrderID).Warn("Failed to record order status update")
		}
	})

	if err := stream.Connect(ctx); err != nil {
		a.log.WithError(err).Warn("Order stream unavailable; continuing without it")
		return nil
	}
	return stream
}

// Daemon schedules. Evaluation runs every day after the US futures
// close; the engine itself decides whether the date is a rebalance day.
const (
	evaluationSchedule = "0 30 17 * * *" // 17:30 daily
	keepaliveSchedule  = "0 */5 * * * *" // every 5 minutes
)
