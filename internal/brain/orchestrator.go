package brain

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/internal/export"
	"github.com/wonny/propick/internal/render"
	"github.com/wonny/propick/internal/s2_signals"
	"github.com/wonny/propick/internal/selection"
	"github.com/wonny/propick/internal/upload"
	"github.com/wonny/propick/pkg/logger"
)

// TradingDayResolver resolves "today" to the latest trading day
type TradingDayResolver interface {
	RecentTradingDay(ctx context.Context, maxBack int) (time.Time, error)
}

// TableScorer scores the universe as of a date
type TableScorer interface {
	Score(ctx context.Context, asOf time.Time) (*contracts.ScoredTable, error)
}

// Publisher uploads today's ranking files
type Publisher interface {
	Run(ctx context.Context) (*upload.Summary, error)
}

// Orchestrator coordinates the ranking pipeline
// 기준일 → 점수 → 전략 필터 → CSV → 저장 → 업로드
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	calendar  TradingDayResolver
	scorer    TableScorer
	engine    *selection.Engine
	writer    *export.Writer
	sink      contracts.ResultSink // nil = 저장 생략
	publisher Publisher            // nil = 업로드 생략
	out       io.Writer

	topN     int
	lookback int
	now      func() time.Time
	logger   *logger.Logger
}

// Options holds the orchestrator's tunables
type Options struct {
	TopNToShow   int
	LookbackDays int
	Console      io.Writer
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	Strategies []int
	Render     bool // 콘솔 표 + 코멘트 출력
	Upload     bool
}

// StrategyResult is the outcome of one strategy
type StrategyResult struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Rows    int    `json:"rows"`
	Relaxed bool   `json:"relaxed"`
	Path    string `json:"path,omitempty"`
	Skipped bool   `json:"skipped"`
}

// RunResult holds the results of a pipeline run
type RunResult struct {
	RefDate         time.Time        `json:"ref_date"`
	Stamp           time.Time        `json:"stamp"`
	Success         bool             `json:"success"`
	CompletedStages []string         `json:"completed_stages"`
	Strategies      []StrategyResult `json:"strategies"`
	Upload          *upload.Summary  `json:"upload,omitempty"`
	Duration        time.Duration    `json:"duration"`
}

// NewOrchestrator creates a new orchestrator. sink and publisher may be nil.
func NewOrchestrator(
	calendar TradingDayResolver,
	scorer TableScorer,
	engine *selection.Engine,
	writer *export.Writer,
	sink contracts.ResultSink,
	publisher Publisher,
	opts Options,
	log *logger.Logger,
) *Orchestrator {
	if opts.TopNToShow <= 0 {
		opts.TopNToShow = 30
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 10
	}
	if opts.Console == nil {
		opts.Console = io.Discard
	}
	return &Orchestrator{
		calendar:  calendar,
		scorer:    scorer,
		engine:    engine,
		writer:    writer,
		sink:      sink,
		publisher: publisher,
		out:       opts.Console,
		topN:      opts.TopNToShow,
		lookback:  opts.LookbackDays,
		now:       time.Now,
		logger:    log,
	}
}

// WithClock replaces the clock used for file timestamps (tests)
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// AllStrategies returns 1..14
func AllStrategies() []int {
	ids := make([]int, 0, selection.MetaStrategyID)
	for _, s := range selection.All() {
		ids = append(ids, s.ID)
	}
	return ids
}

// RunAll writes and saves every strategy, then uploads
func (o *Orchestrator) RunAll(ctx context.Context) (*RunResult, error) {
	return o.Run(ctx, RunConfig{Strategies: AllStrategies(), Upload: true})
}

// RunOne runs a single strategy and prints its table and comments
func (o *Orchestrator) RunOne(ctx context.Context, id int) (*RunResult, error) {
	if _, err := selection.Lookup(id); err != nil {
		return nil, err
	}
	return o.Run(ctx, RunConfig{Strategies: []int{id}, Render: true})
}

// Run executes the pipeline for the configured strategies
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	startTime := time.Now()

	result := &RunResult{
		Stamp:           o.now(),
		CompletedStages: make([]string, 0),
		Strategies:      make([]StrategyResult, 0, len(cfg.Strategies)),
	}

	// 1. 기준일
	refDate, err := o.calendar.RecentTradingDay(ctx, o.lookback)
	if err != nil {
		return result, fmt.Errorf("resolve trading day: %w", err)
	}
	result.RefDate = refDate
	result.CompletedStages = append(result.CompletedStages, "Calendar")

	o.logger.WithFields(map[string]interface{}{
		"ref_date":   refDate.Format("20060102"),
		"strategies": cfg.Strategies,
	}).Info("Starting ranking run")

	// 2. 점수
	table, err := o.scorer.Score(ctx, refDate)
	if err != nil {
		return result, fmt.Errorf("score: %w", err)
	}
	result.CompletedStages = append(result.CompletedStages, "Scorer")

	// 3. 전략별 필터 → CSV → 저장
	for _, id := range cfg.Strategies {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		sr, err := o.runStrategy(ctx, table, refDate, result.Stamp, id, cfg.Render)
		if err != nil {
			return result, fmt.Errorf("strategy %d: %w", id, err)
		}
		result.Strategies = append(result.Strategies, *sr)
	}
	result.CompletedStages = append(result.CompletedStages, "Strategies")

	// 4. 업로드
	if cfg.Upload && o.publisher != nil {
		summary, err := o.publisher.Run(ctx)
		if err != nil {
			return result, fmt.Errorf("upload: %w", err)
		}
		result.Upload = summary
		result.CompletedStages = append(result.CompletedStages, "Upload")
	}

	result.Success = true
	result.Duration = time.Since(startTime)

	o.logger.WithFields(map[string]interface{}{
		"ref_date": refDate.Format("20060102"),
		"stages":   result.CompletedStages,
		"duration": result.Duration.Seconds(),
	}).Info("Ranking run completed")

	return result, nil
}

func (o *Orchestrator) runStrategy(ctx context.Context, table *contracts.ScoredTable, refDate, stamp time.Time, id int, show bool) (*StrategyResult, error) {
	res, err := o.engine.Apply(table, id)
	if err != nil {
		return nil, err
	}

	sr := &StrategyResult{ID: id, Title: res.Title(), Rows: len(res.Rows), Relaxed: res.Relaxed}
	if res.Empty() {
		o.logger.WithFields(map[string]interface{}{
			"strategy": id,
			"title":    res.Title(),
		}).Warn("No stock satisfies the strategy; skipping")
		sr.Skipped = true
		return sr, nil
	}

	labeled := s2_signals.Label(res.Rows)

	if show {
		top := labeled
		if len(top) > o.topN {
			top = top[:o.topN]
		}
		if err := render.RankingTable(o.out, res.Title(), refDate, top); err != nil {
			return nil, err
		}
		render.Comments(o.out, res.Title(), top)
	}

	// CSV, 로컬 저장소, 업로드가 같은 행을 보도록 여기서 자름
	run := &contracts.RankingRun{
		Strategy:     id,
		StrategyName: res.Title(),
		RefDate:      refDate,
		Rows:         o.writer.Limit(id, labeled),
	}

	path, err := o.writer.WriteRanking(run, stamp)
	if err != nil {
		return nil, err
	}
	sr.Path = path

	if o.sink == nil {
		return sr, nil
	}

	hash, err := export.FileMD5(path)
	if err != nil {
		return nil, err
	}
	run.StoragePath = path
	run.FileHash = hash

	if err := o.sink.SaveRanking(ctx, run); err != nil {
		return nil, fmt.Errorf("save ranking: %w", err)
	}
	return sr, nil
}
