package naver

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/propick/internal/contracts"
)

var siseDatePattern = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`)

// FetchDailyPage scrapes item/sise_day pages (newest first) until a row
// older than start shows up, the last page is reached, or maxPages.
func (c *Client) FetchDailyPage(ctx context.Context, ticker string, start, end time.Time) ([]contracts.PricePoint, error) {
	var all []contracts.PricePoint

	for page := 1; page <= c.maxPages; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		body, err := c.fetch(ctx, c.baseURL, "/item/sise_day.naver", url.Values{
			"code": {ticker},
			"page": {strconv.Itoa(page)},
		})
		if err != nil {
			return nil, fmt.Errorf("fetch sise_day %s page %d: %w", ticker, page, err)
		}

		points, oldest, hasMore, err := parseSiseDay(body)
		if err != nil {
			return nil, fmt.Errorf("parse sise_day %s page %d: %w", ticker, page, err)
		}
		all = append(all, points...)

		if len(points) == 0 || oldest.Before(start) || !hasMore {
			break
		}
	}

	return inRange(all, start, end), nil
}

// parseSiseDay reads 날짜 | 종가 | 전일비 | 시가 | 고가 | 저가 | 거래량 rows
func parseSiseDay(html []byte) ([]contracts.PricePoint, time.Time, bool, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, time.Time{}, false, err
	}

	var points []contracts.PricePoint
	var oldest time.Time

	doc.Find("table.type2 tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		if !siseDatePattern.MatchString(dateText) {
			return
		}
		tradeDate, err := time.Parse("2006.01.02", dateText)
		if err != nil {
			return
		}

		closePrice := toFloat(cells.Eq(1).Text())
		points = append(points, contracts.PricePoint{Date: tradeDate, Close: closePrice})

		if oldest.IsZero() || tradeDate.Before(oldest) {
			oldest = tradeDate
		}
	})

	hasMore := doc.Find(".pgRR").Length() > 0
	return points, oldest, hasMore, nil
}
