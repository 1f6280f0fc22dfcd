package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/logger"
)

// BacktestReader reads stored backtest runs
type BacktestReader interface {
	GetBacktest(ctx context.Context, runID string) (*contracts.BacktestReport, error)
}

// BacktestHandler handles backtest API endpoints
type BacktestHandler struct {
	store  BacktestReader
	logger *logger.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(store BacktestReader, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{store: store, logger: log}
}

// GetBacktest returns one run with its periods
// GET /api/backtests/{id}
func (h *BacktestHandler) GetBacktest(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	report, err := h.store.GetBacktest(r.Context(), id)
	if isNotFound(err) {
		respondError(w, http.StatusNotFound, "backtest not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", id).Error("Failed to get backtest")
		respondError(w, http.StatusInternalServerError, "Failed to get backtest")
		return
	}

	respondJSON(w, http.StatusOK, report)
}
