package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/propick/internal/api/handlers"
	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/internal/storage"
	"github.com/wonny/propick/pkg/logger"
)

type fakeStore struct {
	rankings map[string][]storage.RankingRecord // "strategy@date"
	latest   map[int]time.Time
	reports  map[string]*contracts.BacktestReport
}

func rankingKey(strategy int, d time.Time) string {
	return fmt.Sprintf("%d@%s", strategy, d.Format(storage.DateLayout))
}

func (f *fakeStore) ListRankings(ctx context.Context, strategy int, refDate time.Time) ([]storage.RankingRecord, error) {
	return f.rankings[rankingKey(strategy, refDate)], nil
}

func (f *fakeStore) LatestRefDate(ctx context.Context, strategy int) (time.Time, error) {
	return f.latest[strategy], nil
}

func (f *fakeStore) GetBacktest(ctx context.Context, runID string) (*contracts.BacktestReport, error) {
	if r, ok := f.reports[runID]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("backtest %s: %w", runID, storage.ErrNotFound)
}

func newTestRouter() http.Handler {
	apr1 := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		rankings: map[string][]storage.RankingRecord{
			rankingKey(2, apr1): {
				{StrategyNumber: 2, RefDate: "20240401", Rank: 1, Ticker: "005930", PER: contracts.Missing()},
			},
		},
		latest: map[int]time.Time{2: apr1},
		reports: map[string]*contracts.BacktestReport{
			"run-1": {RunID: "run-1", TopN: 30, CAGR: contracts.Missing()},
		},
	}
	log := logger.Nop()
	return NewRouter(handlers.NewRankingHandler(store, log), handlers.NewBacktestHandler(store, log), log)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestRouter(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestStrategies(t *testing.T) {
	rec := get(t, newTestRouter(), "/api/strategies")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []handlers.StrategyItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 14)
	assert.Equal(t, 14, items[13].ID)
	assert.Equal(t, "오늘 최적 종합 추천주", items[13].Title)
}

func TestRankings(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name   string
		target string
		status int
		count  int
	}{
		{"explicit date", "/api/rankings?strategy=2&date=20240401", http.StatusOK, 1},
		{"latest date", "/api/rankings?strategy=2", http.StatusOK, 1},
		{"other date is empty", "/api/rankings?strategy=2&date=20240402", http.StatusOK, 0},
		{"never stored", "/api/rankings?strategy=3", http.StatusNotFound, 0},
		{"unknown strategy", "/api/rankings?strategy=15", http.StatusBadRequest, 0},
		{"missing strategy", "/api/rankings", http.StatusBadRequest, 0},
		{"bad date", "/api/rankings?strategy=2&date=2024-04-01", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.target)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				return
			}

			var resp handlers.RankingResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, 2, resp.Strategy)
			assert.Equal(t, tt.count, resp.Count)
		})
	}

	rec := get(t, router, "/api/rankings?strategy=2")
	assert.Contains(t, rec.Body.String(), `"per":null`)
}

func TestBacktest(t *testing.T) {
	router := newTestRouter()

	rec := get(t, router, "/api/backtests/run-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"run-1"`)
	assert.Contains(t, rec.Body.String(), `"cagr":null`)

	rec = get(t, router, "/api/backtests/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := get(t, h, "/anything")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/strategies", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
