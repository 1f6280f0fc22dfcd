package contracts

import (
	"context"
	"time"
)

// AttributeProvider supplies the raw attribute table as of a date
type AttributeProvider interface {
	GetAttributes(ctx context.Context, asOf time.Time) (*AttributeTable, error)
}

// TradingCalendar resolves the latest trading day on or before date,
// searching at most maxBack calendar days (date itself included).
type TradingCalendar interface {
	LatestTradingDay(ctx context.Context, date time.Time, maxBack int) (time.Time, error)
}

// PriceProvider supplies ascending daily closes over [start, end]
type PriceProvider interface {
	GetPrices(ctx context.Context, ticker string, start, end time.Time) ([]PricePoint, error)
}

// ResultSink persists published rankings and backtest runs
type ResultSink interface {
	SaveRanking(ctx context.Context, run *RankingRun) error
	SaveBacktest(ctx context.Context, report *BacktestReport) error
}
