package storage

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/wonny/propick/internal/contracts"
)

// Queries are written with ? placeholders; Postgres rebinds them to $n.

const insertRankingSQL = `
	INSERT INTO stock_rankings (
		strategy_number, strategy_name, ref_date, rank_no,
		ticker, name, market, cap_bucket, risk_bucket, style,
		market_cap_eok, trading_value,
		total_score, value_score, quality_score, momentum_score, risk_score,
		per, pbr, div_yield, mom_3m, mom_12m,
		storage_path, file_hash
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const deleteRankingSQL = `DELETE FROM stock_rankings WHERE strategy_number = ? AND ref_date = ?`

const rankingExistsSQL = `SELECT EXISTS (SELECT 1 FROM stock_rankings WHERE strategy_number = ? AND ref_date = ?)`

const hashExistsSQL = `SELECT EXISTS (SELECT 1 FROM stock_rankings WHERE file_hash = ?)`

const latestRefDateSQL = `SELECT COALESCE(MAX(ref_date), '') FROM stock_rankings WHERE strategy_number = ?`

const selectRankingsSQL = `
	SELECT
		strategy_number, strategy_name, ref_date, rank_no,
		ticker, name, market, cap_bucket, risk_bucket, style,
		market_cap_eok, trading_value,
		total_score, value_score, quality_score, momentum_score, risk_score,
		per, pbr, div_yield, mom_3m, mom_12m,
		storage_path, file_hash
	FROM stock_rankings
	WHERE strategy_number = ? AND ref_date = ?
	ORDER BY rank_no`

const insertBacktestRunSQL = `
	INSERT INTO backtest_runs (
		run_id, strategy_id, top_n, min_trading_value, initial_capital,
		start_date, end_date, days, final_equity,
		total_return, cagr, max_drawdown, win_rate, period_count
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertBacktestPeriodSQL = `
	INSERT INTO backtest_periods (
		run_id, seq, start_date, end_date, period_return, equity_after, num_positions
	) VALUES (?, ?, ?, ?, ?, ?, ?)`

const selectBacktestRunSQL = `
	SELECT
		run_id, strategy_id, top_n, min_trading_value, initial_capital,
		start_date, end_date, days, final_equity,
		total_return, cagr, max_drawdown, win_rate, period_count
	FROM backtest_runs
	WHERE run_id = ?`

const selectBacktestPeriodsSQL = `
	SELECT start_date, end_date, period_return, equity_after, num_positions
	FROM backtest_periods
	WHERE run_id = ?
	ORDER BY seq`

// rebind rewrites ? placeholders to $1, $2, ...
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 16)

	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// rankingArgs returns insertRankingSQL arguments in column order
func rankingArgs(r *RankingRecord) []interface{} {
	return []interface{}{
		r.StrategyNumber, r.StrategyName, r.RefDate, r.Rank,
		r.Ticker, r.Name, r.Market, r.CapBucket, r.RiskBucket, r.Style,
		nullFloat(r.MarketCapEok), nullFloat(r.TradingValue),
		r.TotalScore, r.ValueScore, r.QualityScore, r.MomentumScore, r.RiskScore,
		nullFloat(r.PER), nullFloat(r.PBR), nullFloat(r.DIV), nullFloat(r.Mom3), nullFloat(r.Mom12),
		r.StoragePath, r.FileHash,
	}
}

// rankingScanner holds nullable destinations for one selectRankingsSQL row
type rankingScanner struct {
	rec                        RankingRecord
	marcap, tradingValue       sql.NullFloat64
	per, pbr, div, mom3, mom12 sql.NullFloat64
}

func (s *rankingScanner) dest() []interface{} {
	r := &s.rec
	return []interface{}{
		&r.StrategyNumber, &r.StrategyName, &r.RefDate, &r.Rank,
		&r.Ticker, &r.Name, &r.Market, &r.CapBucket, &r.RiskBucket, &r.Style,
		&s.marcap, &s.tradingValue,
		&r.TotalScore, &r.ValueScore, &r.QualityScore, &r.MomentumScore, &r.RiskScore,
		&s.per, &s.pbr, &s.div, &s.mom3, &s.mom12,
		&r.StoragePath, &r.FileHash,
	}
}

func (s *rankingScanner) record() RankingRecord {
	r := s.rec
	r.MarketCapEok = fromNull(s.marcap)
	r.TradingValue = fromNull(s.tradingValue)
	r.PER = fromNull(s.per)
	r.PBR = fromNull(s.pbr)
	r.DIV = fromNull(s.div)
	r.Mom3 = fromNull(s.mom3)
	r.Mom12 = fromNull(s.mom12)
	return r
}

func backtestRunArgs(r *contracts.BacktestReport) []interface{} {
	return []interface{}{
		r.RunID, r.StrategyID, r.TopN, r.MinTradingValue, r.InitialCapital,
		r.StartDate.Format(DateLayout), r.EndDate.Format(DateLayout), r.Days, r.FinalEquity,
		r.TotalReturn, nullFloat(r.CAGR), r.MaxDrawdown, r.WinRate, r.PeriodCount,
	}
}

func backtestPeriodArgs(runID string, seq int, p contracts.PeriodRecord) []interface{} {
	return []interface{}{
		runID, seq, p.Start.Format(DateLayout), p.End.Format(DateLayout), p.Return, p.EquityAfter, p.Positions,
	}
}

// backtestScanner holds destinations for one selectBacktestRunSQL row
type backtestScanner struct {
	rep        contracts.BacktestReport
	start, end string
	cagr       sql.NullFloat64
}

func (s *backtestScanner) dest() []interface{} {
	r := &s.rep
	return []interface{}{
		&r.RunID, &r.StrategyID, &r.TopN, &r.MinTradingValue, &r.InitialCapital,
		&s.start, &s.end, &r.Days, &r.FinalEquity,
		&r.TotalReturn, &s.cagr, &r.MaxDrawdown, &r.WinRate, &r.PeriodCount,
	}
}

func (s *backtestScanner) report() (*contracts.BacktestReport, error) {
	r := s.rep
	var err error
	if r.StartDate, err = parseDate(s.start); err != nil {
		return nil, err
	}
	if r.EndDate, err = parseDate(s.end); err != nil {
		return nil, err
	}
	r.CAGR = fromNull(s.cagr)
	r.Periods = make([]contracts.PeriodRecord, 0, r.PeriodCount)
	return &r, nil
}

// periodScanner holds destinations for one selectBacktestPeriodsSQL row
type periodScanner struct {
	p          contracts.PeriodRecord
	start, end string
}

func (s *periodScanner) dest() []interface{} {
	return []interface{}{&s.start, &s.end, &s.p.Return, &s.p.EquityAfter, &s.p.Positions}
}

func (s *periodScanner) period() (contracts.PeriodRecord, error) {
	p := s.p
	var err error
	if p.Start, err = parseDate(s.start); err != nil {
		return p, err
	}
	if p.End, err = parseDate(s.end); err != nil {
		return p, err
	}
	return p, nil
}
