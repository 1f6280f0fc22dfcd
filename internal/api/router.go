package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/propick/internal/api/handlers"
	"github.com/wonny/propick/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(rankingHandler *handlers.RankingHandler, backtestHandler *handlers.BacktestHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(recoveryMiddleware(log), accessLogMiddleware(log))

	r.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	// 조회 전용 API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/strategies", rankingHandler.ListStrategies).Methods(http.MethodGet)
	api.HandleFunc("/rankings", rankingHandler.GetRankings).Methods(http.MethodGet)
	api.HandleFunc("/backtests/{id}", backtestHandler.GetBacktest).Methods(http.MethodGet)

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "propick-api",
		"time":    time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// accessLogMiddleware logs every request; 5xx at Warn, the rest at Debug
func accessLogMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			entry := log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"query":    r.URL.RawQuery,
				"status":   rec.status,
				"duration": time.Since(start),
			})
			if rec.status >= http.StatusInternalServerError {
				entry.Warn("HTTP request failed")
				return
			}
			entry.Debug("HTTP request")
		})
	}
}

// recoveryMiddleware turns a handler panic into a 500 response
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithFields(map[string]interface{}{
						"panic": rec,
						"path":  r.URL.Path,
					}).Error("Panic recovered")
					writeJSON(w, http.StatusInternalServerError, map[string]string{
						"error": "internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
