package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/propick/internal/selection"
	"github.com/wonny/propick/internal/storage"
	"github.com/wonny/propick/pkg/logger"
)

// RankingReader reads stored rankings
type RankingReader interface {
	ListRankings(ctx context.Context, strategy int, refDate time.Time) ([]storage.RankingRecord, error)
	LatestRefDate(ctx context.Context, strategy int) (time.Time, error)
}

// RankingHandler handles ranking-related API endpoints
// ⭐ SSOT: 랭킹 API 핸들러는 이 구조체에서만
type RankingHandler struct {
	store  RankingReader
	logger *logger.Logger
}

// NewRankingHandler creates a new ranking handler
func NewRankingHandler(store RankingReader, log *logger.Logger) *RankingHandler {
	return &RankingHandler{store: store, logger: log}
}

// StrategyItem is one entry of the strategy catalogue
type StrategyItem struct {
	ID     int    `json:"id"`
	Prefix string `json:"prefix"`
	Title  string `json:"title"`
}

// RankingResponse is the payload of GET /api/rankings
type RankingResponse struct {
	Strategy int                     `json:"strategy"`
	Title    string                  `json:"title"`
	RefDate  string                  `json:"ref_date"`
	Count    int                     `json:"count"`
	Rows     []storage.RankingRecord `json:"rows"`
}

// ListStrategies returns the strategy catalogue
// GET /api/strategies
func (h *RankingHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	all := selection.All()
	items := make([]StrategyItem, len(all))
	for i, s := range all {
		items[i] = StrategyItem{ID: s.ID, Prefix: s.Prefix, Title: s.Title}
	}
	respondJSON(w, http.StatusOK, items)
}

// GetRankings returns one strategy's stored ranking
// GET /api/rankings?strategy=N&date=YYYYMMDD (date 생략 시 최신)
func (h *RankingHandler) GetRankings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	id, err := strconv.Atoi(q.Get("strategy"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "strategy must be a number between 1 and 14")
		return
	}
	strategy, err := selection.Lookup(id)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var refDate time.Time
	if raw := q.Get("date"); raw != "" {
		refDate, err = time.Parse(storage.DateLayout, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYYMMDD")
			return
		}
	} else {
		refDate, err = h.store.LatestRefDate(ctx, id)
		if err != nil {
			h.logger.WithError(err).Error("Failed to get latest ref date")
			respondError(w, http.StatusInternalServerError, "Failed to get latest ranking date")
			return
		}
		if refDate.IsZero() {
			respondError(w, http.StatusNotFound, "no ranking stored for this strategy")
			return
		}
	}

	rows, err := h.store.ListRankings(ctx, id, refDate)
	if err != nil {
		h.logger.WithError(err).WithField("strategy", id).Error("Failed to list rankings")
		respondError(w, http.StatusInternalServerError, "Failed to list rankings")
		return
	}
	if rows == nil {
		rows = []storage.RankingRecord{}
	}

	respondJSON(w, http.StatusOK, RankingResponse{
		Strategy: id,
		Title:    strategy.Title,
		RefDate:  refDate.Format(storage.DateLayout),
		Count:    len(rows),
		Rows:     rows,
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
