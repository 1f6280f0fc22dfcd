package calendar

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wonny/propick/pkg/logger"
)

// ErrNoTradingDay is returned when the lookback window holds no trading day
var ErrNoTradingDay = errors.New("no trading day within lookback window")

// DefaultLookbackDays is the backward search window, the start date included
const DefaultLookbackDays = 10

// MarketCapSource returns the aggregate market capitalization on a date
type MarketCapSource interface {
	TotalMarketCap(ctx context.Context, date time.Time) (float64, error)
}

// Clock returns the current time
type Clock func() time.Time

// MarketCapOracle treats a date as a trading day when the total market cap
// reported for it is finite and positive. Weekends, holidays and pre-open
// snapshots come back as zero.
type MarketCapOracle struct {
	source     MarketCapSource
	logger     *logger.Logger
	now        Clock
	errorPause time.Duration
}

// NewMarketCapOracle creates an oracle over source
func NewMarketCapOracle(source MarketCapSource, log *logger.Logger) *MarketCapOracle {
	return &MarketCapOracle{
		source:     source,
		logger:     log,
		now:        time.Now,
		errorPause: 100 * time.Millisecond,
	}
}

// WithClock overrides the clock used by RecentTradingDay
func (o *MarketCapOracle) WithClock(now Clock) *MarketCapOracle {
	o.now = now
	return o
}

// WithErrorPause overrides the pause after a failed source call
func (o *MarketCapOracle) WithErrorPause(d time.Duration) *MarketCapOracle {
	o.errorPause = d
	return o
}

// LatestTradingDay checks date, date-1, ..., date-(maxBack-1).
// A failing source call counts as "not a trading day" for that date.
func (o *MarketCapOracle) LatestTradingDay(ctx context.Context, date time.Time, maxBack int) (time.Time, error) {
	d := truncateDay(date)
	for i := 0; i < maxBack; i++ {
		if err := ctx.Err(); err != nil {
			return time.Time{}, err
		}

		total, err := o.source.TotalMarketCap(ctx, d)
		if err != nil {
			o.logger.WithError(err).WithField("date", d.Format("20060102")).Debug("Market cap lookup failed")
			if err := sleep(ctx, o.errorPause); err != nil {
				return time.Time{}, err
			}
		} else if isTradingTotal(total) {
			return d, nil
		}

		d = d.AddDate(0, 0, -1)
	}

	return time.Time{}, fmt.Errorf("%w: %s (%d days)", ErrNoTradingDay, date.Format("20060102"), maxBack)
}

// RecentTradingDay is LatestTradingDay from today
func (o *MarketCapOracle) RecentTradingDay(ctx context.Context, maxBack int) (time.Time, error) {
	return o.LatestTradingDay(ctx, o.now(), maxBack)
}

func isTradingTotal(total float64) bool {
	return !math.IsNaN(total) && !math.IsInf(total, 0) && total > 0
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
