package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/redis"
)

var chartRowPattern = regexp.MustCompile(`\["(\d{8})",\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+)`)

// GetPrices returns ascending daily closes of ticker over [start, end].
// The chart API is tried first; the sise_day page is the fallback.
// ⭐ SSOT: 일별 종가 조회는 이 함수에서만
func (c *Client) GetPrices(ctx context.Context, ticker string, start, end time.Time) ([]contracts.PricePoint, error) {
	key := redis.PriceSeriesKey(ticker, start.Format("20060102"), end.Format("20060102"))

	var points []contracts.PricePoint
	if c.cache != nil {
		if found, err := c.cache.Get(ctx, key, &points); err == nil && found {
			return points, nil
		}
	}

	points, err := c.FetchPrices(ctx, ticker, start, end)
	if err != nil || len(points) == 0 {
		c.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"error":  err,
		}).Debug("Chart API gave no prices; falling back to sise_day")

		points, err = c.FetchDailyPage(ctx, ticker, start, end)
		if err != nil {
			return nil, err
		}
	}

	if c.cache != nil && len(points) > 0 && c.isPast(end) {
		if err := c.cache.Set(ctx, key, points, redis.TTLDaily); err != nil {
			c.logger.WithError(err).WithField("key", key).Debug("Cache set failed")
		}
	}
	return points, nil
}

// FetchPrices fetches the fchart siseJson daily series
func (c *Client) FetchPrices(ctx context.Context, ticker string, start, end time.Time) ([]contracts.PricePoint, error) {
	body, err := c.fetch(ctx, c.chartURL, "/siseJson.naver", url.Values{
		"symbol":      {ticker},
		"requestType": {"1"},
		"startTime":   {start.Format("20060102")},
		"endTime":     {end.Format("20060102")},
		"timeframe":   {"day"},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch chart %s: %w", ticker, err)
	}

	points := inRange(parseChart(string(body)), start, end)

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(points),
	}).Debug("Fetched prices")
	return points, nil
}

// parseChart parses the single-quoted JS array, falling back to a regex
func parseChart(body string) []contracts.PricePoint {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		return parseChartJSON(rawData)
	}
	return parseChartRegex(body)
}

// parseChartJSON reads [date, open, high, low, close, volume, ...] rows after the header
func parseChartJSON(rawData [][]interface{}) []contracts.PricePoint {
	points := make([]contracts.PricePoint, 0, len(rawData))
	for i, row := range rawData {
		if i == 0 || len(row) < 5 {
			continue
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		tradeDate, err := time.Parse("20060102", strings.TrimSpace(dateStr))
		if err != nil {
			continue
		}

		points = append(points, contracts.PricePoint{Date: tradeDate, Close: toFloat(row[4])})
	}
	return points
}

func parseChartRegex(body string) []contracts.PricePoint {
	matches := chartRowPattern.FindAllStringSubmatch(body, -1)

	points := make([]contracts.PricePoint, 0, len(matches))
	for _, match := range matches {
		tradeDate, err := time.Parse("20060102", match[1])
		if err != nil {
			continue
		}
		closePrice, _ := strconv.ParseFloat(match[5], 64)
		points = append(points, contracts.PricePoint{Date: tradeDate, Close: closePrice})
	}
	return points
}

// inRange keeps [start, end] and sorts ascending by date
func inRange(points []contracts.PricePoint, start, end time.Time) []contracts.PricePoint {
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]contracts.PricePoint, 0, len(points))
	for _, p := range points {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// toFloat converts JSON numbers and numeric strings
func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(val), ",", ""), 64)
		return f
	default:
		return 0
	}
}
