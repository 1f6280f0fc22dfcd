package contracts

import "time"

// PeriodRecord is one rebalance period of a backtest
type PeriodRecord struct {
	Start       time.Time `json:"start_date"`
	End         time.Time `json:"end_date"`
	Return      float64   `json:"period_return"`
	EquityAfter float64   `json:"equity_after"`
	Positions   int       `json:"num_positions_used"`
}

// BacktestReport is the period sequence plus summary statistics of one run
// ⭐ SSOT: Simulator → Result Sink 전달
type BacktestReport struct {
	RunID string `json:"run_id"`

	// Parameters
	TopN            int     `json:"top_n"`
	MinTradingValue float64 `json:"min_trading_value"`
	InitialCapital  float64 `json:"initial_capital"`
	StrategyID      int     `json:"strategy_id"` // 0 = total_score

	// Summary
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Days        int       `json:"days"`
	FinalEquity float64   `json:"final_equity"`
	TotalReturn float64   `json:"total_return"`
	CAGR        Num       `json:"cagr"` // missing when the span is not positive
	MaxDrawdown float64   `json:"max_drawdown"`
	WinRate     float64   `json:"win_rate"`
	PeriodCount int       `json:"period_count"`

	Periods []PeriodRecord `json:"periods"`
}
