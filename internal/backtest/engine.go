package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/logger"
)

// CheckpointBuilder produces rebalance dates
type CheckpointBuilder interface {
	BuildCheckpoints(ctx context.Context, start time.Time, end *time.Time) ([]time.Time, error)
}

// Engine runs a full backtest: checkpoints → simulation → result sink
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Engine struct {
	checkpoints CheckpointBuilder
	simulator   *Simulator
	sink        contracts.ResultSink
	logger      *logger.Logger
}

// Config holds backtest configuration
type Config struct {
	StartDate time.Time
	EndDate   *time.Time // nil = 최근 거래일
	Params
}

// NewEngine creates a new backtest engine. sink may be nil.
func NewEngine(checkpoints CheckpointBuilder, simulator *Simulator, sink contracts.ResultSink, log *logger.Logger) *Engine {
	return &Engine{
		checkpoints: checkpoints,
		simulator:   simulator,
		sink:        sink,
		logger:      log,
	}
}

// Run executes a backtest simulation
func (e *Engine) Run(ctx context.Context, cfg Config) (*contracts.BacktestReport, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}

	end := "LATEST"
	if cfg.EndDate != nil {
		end = cfg.EndDate.Format("20060102")
	}
	e.logger.WithFields(map[string]interface{}{
		"start_date":      cfg.StartDate.Format("20060102"),
		"end_date":        end,
		"initial_capital": cfg.InitialCapital,
		"top_n":           cfg.TopN,
	}).Info("Building rebalance checkpoints")

	startTime := time.Now()

	dates, err := e.checkpoints.BuildCheckpoints(ctx, cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, fmt.Errorf("build checkpoints: %w", err)
	}

	report, err := e.simulator.Run(ctx, dates, cfg.Params)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	if e.sink != nil {
		if err := e.sink.SaveBacktest(ctx, report); err != nil {
			return report, fmt.Errorf("save backtest %s: %w", report.RunID, err)
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"run_id":   report.RunID,
		"duration": time.Since(startTime).Seconds(),
	}).Info("Backtest finished")

	return report, nil
}
