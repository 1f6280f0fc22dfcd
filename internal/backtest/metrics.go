package backtest

import (
	"math"
	"time"
)

// TotalReturn is final/initial - 1
func TotalReturn(initial, final float64) float64 {
	return final/initial - 1
}

// CAGR annualizes the growth over days calendar days (years = days/365).
// The result is NaN when the span is not positive.
func CAGR(initial, final float64, days int) float64 {
	years := float64(days) / 365
	if years <= 0 {
		return math.NaN()
	}
	return math.Pow(final/initial, 1/years) - 1
}

// MaxDrawdown returns the minimum of equity/running_max - 1 over the curve.
// It is <= 0; an empty curve yields 0.
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}

	maxDrawdown := 0.0
	peak := equity[0]

	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if drawdown := e/peak - 1; drawdown < maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown
}

// WinRate is the fraction of strictly positive period returns
func WinRate(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(returns))
}

// calendarDays counts whole calendar days between two dates
func calendarDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}
