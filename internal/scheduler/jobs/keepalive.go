package jobs

import (
	"context"
	"fmt"

	"github.com/jdowell/mlmbot/pkg/logger"
)

// SessionKeeper is the slice of the gateway client the keepalive job
// needs.
type SessionKeeper interface {
	Tickle(ctx context.Context) error
}

// KeepaliveJob pings the gateway periodically so the brokerage session
// does not expire between daily cycles.
type KeepaliveJob struct {
	gateway  SessionKeeper
	schedule string
	logger   *logger.Logger
}

// NewKeepaliveJob creates the gateway keepalive job.
func NewKeepaliveJob(gateway SessionKeeper, schedule string, log *logger.Logger) *KeepaliveJob {
	return &KeepaliveJob{
		gateway:  gateway,
		schedule: schedule,
		logger:   log,
	}
}

func (j *KeepaliveJob) Name() string     { return "gateway_keepalive" }
func (j *KeepaliveJob) Schedule() string { return j.schedule }
func (j *KeepaliveJob) Retryable() bool  { return true }

// Run sends one keepalive ping.
func (j *KeepaliveJob) Run(ctx context.Context) error {
	if err := j.gateway.Tickle(ctx); err != nil {
		return fmt.Errorf("gateway keepalive: %w", err)
	}
	return nil
}
