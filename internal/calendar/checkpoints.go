package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/logger"
)

// ErrTooFewCheckpoints is returned when fewer than two rebalance dates resolve
var ErrTooFewCheckpoints = errors.New("at least two rebalance checkpoints are required")

// Scheduler builds monthly rebalance checkpoints
// ⭐ SSOT: 리밸런싱 일정 계산은 여기서만
type Scheduler struct {
	calendar contracts.TradingCalendar
	lookback int
	now      Clock
	logger   *logger.Logger
}

// NewScheduler creates a scheduler resolving dates through cal
func NewScheduler(cal contracts.TradingCalendar, log *logger.Logger) *Scheduler {
	return &Scheduler{
		calendar: cal,
		lookback: DefaultLookbackDays,
		now:      time.Now,
		logger:   log,
	}
}

// WithLookback overrides the backward search window
func (s *Scheduler) WithLookback(days int) *Scheduler {
	if days > 0 {
		s.lookback = days
	}
	return s
}

// WithClock overrides the clock used when end is nil
func (s *Scheduler) WithClock(now Clock) *Scheduler {
	s.now = now
	return s
}

// BuildCheckpoints steps from the first of start's month, one month at a time,
// while the first-of-month is <= end, resolving each to the latest trading day
// on or before it. Unresolvable months are skipped; consecutive duplicates
// collapse. end == nil means the latest trading day from today.
func (s *Scheduler) BuildCheckpoints(ctx context.Context, start time.Time, end *time.Time) ([]time.Time, error) {
	var last time.Time
	if end != nil {
		last = *end
	} else {
		resolved, err := s.calendar.LatestTradingDay(ctx, s.now(), s.lookback)
		if err != nil {
			return nil, fmt.Errorf("resolve latest trading day: %w", err)
		}
		last = resolved
	}
	// 달력 날짜 기준 비교: start 와 같은 location 의 자정으로 맞춤
	last = dateIn(last, start.Location())

	dates := make([]time.Time, 0)
	skipped := 0

	for cur := firstOfMonth(start); !cur.After(last); cur = cur.AddDate(0, 1, 0) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		d, err := s.calendar.LatestTradingDay(ctx, cur, s.lookback)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			skipped++
			s.logger.WithError(err).WithField("month", cur.Format("2006-01")).
				Warn("No trading day found for month; skipping")
			continue
		}

		if len(dates) == 0 || !dates[len(dates)-1].Equal(d) {
			dates = append(dates, d)
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"start":       start.Format("20060102"),
		"end":         last.Format("20060102"),
		"checkpoints": len(dates),
		"skipped":     skipped,
	}).Info("Rebalance checkpoints built")

	if len(dates) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewCheckpoints, len(dates))
	}
	return dates, nil
}

// dateIn keeps t's calendar date and moves it to midnight in loc
func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func firstOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
