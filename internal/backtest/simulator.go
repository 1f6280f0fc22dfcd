package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/internal/selection"
	"github.com/wonny/propick/pkg/logger"
)

var (
	// ErrNoPeriods is returned when the checkpoints form no rebalance period
	ErrNoPeriods = errors.New("backtest produced no periods")

	// ErrInvalidParams is returned for non-positive top-N or capital
	ErrInvalidParams = errors.New("invalid backtest parameters")
)

// TableScorer scores the universe as of a date
type TableScorer interface {
	Score(ctx context.Context, asOf time.Time) (*contracts.ScoredTable, error)
}

// Params holds simulation parameters
type Params struct {
	TopN            int
	MinTradingValue float64
	InitialCapital  float64
	StrategyID      int // 0 = 종합점수 상위, 1~14 = 전략 필터 결과 상위
}

// Validate checks the parameters
func (p Params) Validate() error {
	if p.TopN <= 0 {
		return fmt.Errorf("%w: top_n must be positive, got %d", ErrInvalidParams, p.TopN)
	}
	if p.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial_capital must be positive, got %v", ErrInvalidParams, p.InitialCapital)
	}
	if p.StrategyID != 0 {
		if _, err := selection.Lookup(p.StrategyID); err != nil {
			return err
		}
	}
	return nil
}

// Simulator walks rebalance checkpoints and compounds an equal-weight portfolio
// ⭐ SSOT: 백테스팅 시뮬레이션은 여기서만
type Simulator struct {
	scorer   TableScorer
	selector *selection.Engine
	prices   contracts.PriceProvider
	logger   *logger.Logger
}

// NewSimulator creates a new simulator. selector is only used when
// Params.StrategyID is non-zero.
func NewSimulator(scorer TableScorer, selector *selection.Engine, prices contracts.PriceProvider, log *logger.Logger) *Simulator {
	return &Simulator{
		scorer:   scorer,
		selector: selector,
		prices:   prices,
		logger:   log,
	}
}

// Run simulates every adjacent checkpoint pair in order. Equity compounds
// across periods, so periods are never evaluated out of order.
func (s *Simulator) Run(ctx context.Context, checkpoints []time.Time, p Params) (*contracts.BacktestReport, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(checkpoints) < 2 {
		return nil, fmt.Errorf("%w: %d checkpoints", ErrNoPeriods, len(checkpoints))
	}

	report := &contracts.BacktestReport{
		RunID:           uuid.NewString(),
		TopN:            p.TopN,
		MinTradingValue: p.MinTradingValue,
		InitialCapital:  p.InitialCapital,
		StrategyID:      p.StrategyID,
		Periods:         make([]contracts.PeriodRecord, 0, len(checkpoints)-1),
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":      report.RunID,
		"checkpoints": len(checkpoints),
		"top_n":       p.TopN,
		"strategy_id": p.StrategyID,
	}).Info("Starting backtest")

	equity := p.InitialCapital
	for i := 0; i+1 < len(checkpoints); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start, end := checkpoints[i], checkpoints[i+1]
		ret, positions, err := s.PeriodReturn(ctx, start, end, p)
		if err != nil {
			return nil, err
		}

		equity *= 1 + ret
		report.Periods = append(report.Periods, contracts.PeriodRecord{
			Start:       start,
			End:         end,
			Return:      ret,
			EquityAfter: equity,
			Positions:   positions,
		})

		s.logger.WithFields(map[string]interface{}{
			"start":     start.Format("20060102"),
			"end":       end.Format("20060102"),
			"return":    fmt.Sprintf("%.2f%%", ret*100),
			"equity":    fmt.Sprintf("%.0f", equity),
			"positions": positions,
		}).Info("Backtest period completed")
	}

	if err := summarize(report); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":       report.RunID,
		"periods":      report.PeriodCount,
		"total_return": fmt.Sprintf("%.2f%%", report.TotalReturn*100),
		"cagr":         fmt.Sprintf("%.2f%%", report.CAGR.Float()*100),
		"max_drawdown": fmt.Sprintf("%.2f%%", report.MaxDrawdown*100),
		"win_rate":     fmt.Sprintf("%.2f%%", report.WinRate*100),
	}).Info("Backtest completed")

	return report, nil
}

// PeriodReturn scores the universe at start, picks the portfolio and returns
// the equal-weight mean return over [start, end] with the number of tickers
// that contributed. An empty selection is a zero return, not an error.
func (s *Simulator) PeriodReturn(ctx context.Context, start, end time.Time, p Params) (float64, int, error) {
	table, err := s.scorer.Score(ctx, start)
	if err != nil {
		return 0, 0, fmt.Errorf("score %s: %w", start.Format("20060102"), err)
	}

	picks, err := s.pick(table, p)
	if err != nil {
		return 0, 0, err
	}
	if len(picks) == 0 {
		s.logger.WithFields(map[string]interface{}{
			"date":              start.Format("20060102"),
			"min_trading_value": p.MinTradingValue,
			"strategy_id":       p.StrategyID,
		}).Warn("No stock selected for period; treating return as 0")
		return 0, 0, nil
	}

	sum := 0.0
	used := 0
	skipped := make([]string, 0)

	for _, r := range picks {
		ret, ok := s.tickerReturn(ctx, r.Ticker, start, end)
		if !ok {
			skipped = append(skipped, r.Ticker)
			continue
		}
		sum += ret
		used++
	}

	if len(skipped) > 0 {
		s.logger.WithFields(map[string]interface{}{
			"date":    start.Format("20060102"),
			"skipped": skipped,
			"used":    used,
		}).Warn("Skipped tickers without a usable price series")
	}

	if used == 0 {
		return 0, 0, nil
	}
	return sum / float64(used), used, nil
}

// pick selects the portfolio for one checkpoint
func (s *Simulator) pick(table *contracts.ScoredTable, p Params) ([]contracts.ScoredRecord, error) {
	if p.StrategyID == 0 {
		liquid := make([]contracts.ScoredRecord, 0, table.Len())
		for _, r := range table.Rows {
			if r.TradingValue.Valid() && r.TradingValue.V >= p.MinTradingValue {
				liquid = append(liquid, r)
			}
		}
		return selection.TopByTotal(liquid, p.TopN), nil
	}

	if s.selector == nil {
		return nil, fmt.Errorf("%w: strategy %d requires a filter engine", ErrInvalidParams, p.StrategyID)
	}
	result, err := s.selector.Apply(table, p.StrategyID)
	if err != nil {
		return nil, err
	}
	if len(result.Rows) > p.TopN {
		return result.Rows[:p.TopN], nil
	}
	return result.Rows, nil
}

// tickerReturn is exit/entry - 1 over the series; false when unusable
func (s *Simulator) tickerReturn(ctx context.Context, ticker string, start, end time.Time) (float64, bool) {
	series, err := s.prices.GetPrices(ctx, ticker, start, end)
	if err != nil {
		s.logger.WithError(err).WithField("ticker", ticker).Debug("Price series unavailable")
		return 0, false
	}
	if len(series) < 2 {
		return 0, false
	}

	entry, exit := series[0].Close, series[len(series)-1].Close
	if entry <= 0 || exit <= 0 {
		return 0, false
	}
	return exit/entry - 1, true
}

// summarize fills the aggregate statistics from the period sequence
func summarize(report *contracts.BacktestReport) error {
	if len(report.Periods) == 0 {
		return ErrNoPeriods
	}

	first, last := report.Periods[0], report.Periods[len(report.Periods)-1]
	equity := make([]float64, len(report.Periods))
	returns := make([]float64, len(report.Periods))
	for i, period := range report.Periods {
		equity[i] = period.EquityAfter
		returns[i] = period.Return
	}

	report.StartDate = first.Start
	report.EndDate = last.End
	report.Days = calendarDays(first.Start, last.End)
	report.FinalEquity = last.EquityAfter
	report.TotalReturn = TotalReturn(report.InitialCapital, report.FinalEquity)
	report.CAGR = contracts.Some(CAGR(report.InitialCapital, report.FinalEquity, report.Days))
	report.MaxDrawdown = MaxDrawdown(equity)
	report.WinRate = WinRate(returns)
	report.PeriodCount = len(report.Periods)

	return nil
}
