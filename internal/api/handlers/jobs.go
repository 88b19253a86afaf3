package handlers

import (
	"net/http"

	"github.com/jdowell/mlmbot/internal/scheduler"
	"github.com/jdowell/mlmbot/pkg/logger"
)

// JobStatsProvider is the slice of the scheduler the API needs.
type JobStatsProvider interface {
	GetJobStats() []scheduler.JobStats
}

// JobsHandler serves scheduler job statistics.
type JobsHandler struct {
	stats  JobStatsProvider
	logger *logger.Logger
}

// NewJobsHandler creates a jobs handler.
func NewJobsHandler(stats JobStatsProvider, log *logger.Logger) *JobsHandler {
	return &JobsHandler{
		stats:  stats,
		logger: log,
	}
}

// List returns execution statistics for all scheduled jobs.
// GET /api/jobs
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.GetJobStats())
}
