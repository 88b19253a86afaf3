package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jdowell/mlmbot/internal/contracts"
	"github.com/jdowell/mlmbot/pkg/logger"
)

// CycleReader is the slice of the cycle repository the API needs.
type CycleReader interface {
	GetLatestCycle(ctx context.Context) (*contracts.CycleSummary, error)
	GetCycleByDate(ctx context.Context, date time.Time) (*contracts.CycleSummary, error)
}

// CycleHandler serves persisted cycle results.
type CycleHandler struct {
	cycles CycleReader
	logger *logger.Logger
}

// NewCycleHandler creates a cycle handler.
func NewCycleHandler(cycles CycleReader, log *logger.Logger) *CycleHandler {
	return &CycleHandler{
		cycles: cycles,
		logger: log,
	}
}

// GetLatest returns the most recently evaluated cycle.
// GET /api/cycles/latest
func (h *CycleHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	summary, err := h.cycles.GetLatestCycle(r.Context())
	if err != nil {
		h.logger.WithError(err).Warn("Latest cycle lookup failed")
		writeError(w, http.StatusNotFound, "no cycle found")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// GetByDate returns the cycle evaluated for a calendar date.
// GET /api/cycles/{date} (date as YYYY-MM-DD)
func (h *CycleHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := mux.Vars(r)["date"]

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	summary, err := h.cycles.GetCycleByDate(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).WithField("date", dateStr).Warn("Cycle lookup failed")
		writeError(w, http.StatusNotFound, "no cycle for date")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
