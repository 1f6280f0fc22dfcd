package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/wonny/propick/internal/brain"
	"github.com/wonny/propick/internal/calendar"
	"github.com/wonny/propick/internal/export"
	"github.com/wonny/propick/internal/external/krx"
	"github.com/wonny/propick/internal/external/naver"
	"github.com/wonny/propick/internal/s1_universe"
	"github.com/wonny/propick/internal/s2_signals"
	"github.com/wonny/propick/internal/selection"
	"github.com/wonny/propick/internal/storage"
	"github.com/wonny/propick/internal/strategyconfig"
	"github.com/wonny/propick/internal/upload"
	"github.com/wonny/propick/pkg/config"
	"github.com/wonny/propick/pkg/httputil"
	"github.com/wonny/propick/pkg/logger"
	"github.com/wonny/propick/pkg/redis"
)

// krxRateLimit bounds KRX calls across every running process
var krxRateLimit = redis.RateLimitConfig{Key: "krx", Limit: 5, Window: time.Second}

// app holds the wired dependencies shared by every command
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg    *config.Config
	params *strategyconfig.Config
	log    *logger.Logger

	redis *redis.Client
	store storage.Store

	krx    *krx.Client
	naver  *naver.Client
	oracle *calendar.MarketCapOracle
	scorer *s2_signals.Scorer
	engine *selection.Engine
	writer *export.Writer
}

// newApp loads configuration and wires the pipeline
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyConfigFile != "" {
		cfg.StrategyConfigPath = strategyConfigFile
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Strategy parameters (YAML)
	params, err := strategyconfig.LoadOrDefault(cfg.StrategyConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load strategy config: %w", err)
	}
	hash, err := strategyconfig.Hash(params)
	if err != nil {
		return nil, fmt.Errorf("hash strategy config: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"name":    params.Meta.Name,
		"version": params.Meta.Version,
		"hash":    hash,
	}).Debug("Strategy config loaded")

	// 4. Redis (cache + shared rate limit); 연결 실패 시 캐시 없이 진행
	rc, err := redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without cache")
		rc = redis.Disabled()
	}

	// 5. External clients
	krxHTTP := httputil.New(log).WithLimiter(cfg.KRX.RequestDelay)
	if rc.Enabled() {
		krxHTTP = krxHTTP.WithRateLimiter(redis.NewRateLimiter(rc, "ratelimit"), krxRateLimit)
	}
	krxClient := krx.NewClient(krxHTTP, redis.NewCache(rc, "krx"), cfg.KRX.BaseURL, log)
	naverClient := naver.NewClient(httputil.New(log), redis.NewCache(rc, "naver"), cfg.Naver, log)

	// 6. Result store (Postgres or SQLite)
	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("open result store: %w", err)
	}

	// 7. Pipeline stages
	builder := s1_universe.NewBuilder(krxClient, params.Universe, log)
	scorer, err := s2_signals.NewScorer(builder, s2_signals.Weights{
		Value:    params.Weights.Value,
		Quality:  params.Weights.Quality,
		Momentum: params.Weights.Momentum,
		LowRisk:  params.Weights.LowRisk,
	}, log)
	if err != nil {
		_ = store.Close()
		_ = rc.Close()
		return nil, err
	}

	engine := selection.NewEngine(selection.Config{
		Gates: selection.Gates{
			MinTradingValue: params.Gates.MinTradingValue,
			MinVolume:       params.Gates.MinVolume,
			MaxPrice:        params.Gates.MaxPrice,
			MinMarketCap:    params.Gates.MinMarketCap,
		},
		MetaPerStrategy: params.Output.MetaPerStrategy,
	}, log)

	return &app{
		cfg:    cfg,
		params: params,
		log:    log,
		redis:  rc,
		store:  store,
		krx:    krxClient,
		naver:  naverClient,
		oracle: calendar.NewMarketCapOracle(krxClient, log),
		scorer: scorer,
		engine: engine,
		writer: export.NewWriter(cfg.ResultDir, params.Output.MetaCSVRows, log),
	}, nil
}

// Close releases the store and the Redis connection
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close result store")
	}
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
}

// uploader returns nil when Supabase credentials are not configured
func (a *app) uploader() *upload.Uploader {
	if !a.cfg.Supabase.Enabled() {
		return nil
	}
	client := upload.NewSupabaseClient(httputil.New(a.log), a.cfg.Supabase)
	return upload.NewUploader(a.cfg.ResultDir, client, client, a.log)
}

// orchestrator wires the ranking pipeline; withUpload=false skips publishing
func (a *app) orchestrator(withUpload bool) *brain.Orchestrator {
	var publisher brain.Publisher
	if withUpload {
		if u := a.uploader(); u != nil {
			publisher = u
		} else {
			a.log.Warn("SUPABASE_URL/SUPABASE_KEY not set, upload disabled")
		}
	}

	return brain.NewOrchestrator(
		a.oracle,
		a.scorer,
		a.engine,
		a.writer,
		a.store,
		publisher,
		brain.Options{
			TopNToShow:   a.params.Output.TopNToShow,
			LookbackDays: a.params.Backtest.LookbackDays,
			Console:      os.Stdout,
		},
		a.log,
	)
}

// parseDate accepts YYYYMMDD or YYYY-MM-DD
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (YYYYMMDD)", s)
}
