package krx

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/redis"
)

// MarketCap is one row of the daily market-cap table (MDCSTAT01501)
type MarketCap struct {
	Ticker       string       `json:"ticker"`
	Name         string       `json:"name"`
	Close        contracts.Num `json:"close"`
	Volume       contracts.Num `json:"volume"`
	TradingValue contracts.Num `json:"trading_value"`
	MarketCap    contracts.Num `json:"market_cap"`
	Shares       contracts.Num `json:"shares"`
}

type marketCapRow struct {
	Ticker       string `json:"ISU_SRT_CD"`
	Name         string `json:"ISU_ABBRV"`
	Close        string `json:"TDD_CLSPRC"`
	Volume       string `json:"ACC_TRDVOL"`
	TradingValue string `json:"ACC_TRDVAL"`
	MarketCap    string `json:"MKTCAP"`
	Shares       string `json:"LIST_SHRS"`
}

// FetchMarketCaps fetches close, volume, trading value and market cap of every listing
// ⭐ SSOT: KRX 시가총액 조회는 이 함수에서만
func (c *Client) FetchMarketCaps(ctx context.Context, date time.Time, market contracts.Market) ([]MarketCap, error) {
	mktID, err := marketID(market)
	if err != nil {
		return nil, err
	}
	trdDd := date.Format("20060102")

	return cached(ctx, c, redis.MarketCapKey(mktID, trdDd), date, func() ([]MarketCap, error) {
		rows, err := fetchRows[marketCapRow](ctx, c, "dbms/MDC/STAT/standard/MDCSTAT01501", url.Values{
			"mktId": {mktID},
			"trdDd": {trdDd},
			"share": {"1"},
			"money": {"1"},
		})
		if err != nil {
			return nil, fmt.Errorf("fetch %s market caps %s: %w", market, trdDd, err)
		}

		result := make([]MarketCap, 0, len(rows))
		for _, row := range rows {
			if row.Ticker == "" {
				continue
			}
			result = append(result, MarketCap{
				Ticker:       row.Ticker,
				Name:         row.Name,
				Close:        parseKRXNumber(row.Close),
				Volume:       parseKRXNumber(row.Volume),
				TradingValue: parseKRXNumber(row.TradingValue),
				MarketCap:    parseKRXNumber(row.MarketCap),
				Shares:       parseKRXNumber(row.Shares),
			})
		}

		c.logger.WithFields(map[string]interface{}{
			"market":     market,
			"trade_date": trdDd,
			"count":      len(result),
		}).Debug("Fetched market caps from KRX")
		return result, nil
	}, func(rows []MarketCap) bool { return totalMarketCap(rows) > 0 })
}

// TotalMarketCap sums |market cap| over both segments. Weekends, holidays
// and pre-open snapshots come back as 0.
func (c *Client) TotalMarketCap(ctx context.Context, date time.Time) (float64, error) {
	total := 0.0
	for _, market := range []contracts.Market{contracts.MarketKOSPI, contracts.MarketKOSDAQ} {
		rows, err := c.FetchMarketCaps(ctx, date, market)
		if err != nil {
			return 0, err
		}
		total += totalMarketCap(rows)
	}
	return total, nil
}

func totalMarketCap(rows []MarketCap) float64 {
	total := 0.0
	for _, r := range rows {
		if r.MarketCap.Valid() {
			total += math.Abs(r.MarketCap.V)
		}
	}
	return total
}
