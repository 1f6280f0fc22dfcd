package krx

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/redis"
)

// PriceChange is one row of the period price-change table (MDCSTAT01602)
type PriceChange struct {
	Ticker     string        `json:"ticker"`
	ChangeRate contracts.Num `json:"change_rate"` // 등락률 (%)
}

type priceChangeRow struct {
	Ticker     string `json:"ISU_SRT_CD"`
	ChangeRate string `json:"FLUC_RT"`
}

// FetchPriceChanges fetches the adjusted % change of every listing over [from, to]
func (c *Client) FetchPriceChanges(ctx context.Context, from, to time.Time, market contracts.Market) ([]PriceChange, error) {
	mktID, err := marketID(market)
	if err != nil {
		return nil, err
	}
	strtDd, endDd := from.Format("20060102"), to.Format("20060102")

	return cached(ctx, c, redis.PriceChangeKey(mktID, strtDd, endDd), to, func() ([]PriceChange, error) {
		rows, err := fetchRows[priceChangeRow](ctx, c, "dbms/MDC/STAT/standard/MDCSTAT01602", url.Values{
			"mktId":     {mktID},
			"strtDd":    {strtDd},
			"endDd":     {endDd},
			"adjStkPrc": {"2"}, // 수정주가
		})
		if err != nil {
			return nil, fmt.Errorf("fetch %s price changes %s-%s: %w", market, strtDd, endDd, err)
		}

		result := make([]PriceChange, 0, len(rows))
		for _, row := range rows {
			if row.Ticker == "" {
				continue
			}
			result = append(result, PriceChange{Ticker: row.Ticker, ChangeRate: parseKRXNumber(row.ChangeRate)})
		}
		return result, nil
	}, func(rows []PriceChange) bool { return len(rows) > 0 })
}
