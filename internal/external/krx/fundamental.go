package krx

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/redis"
)

// Fundamental is one row of the daily PER/PBR/DIV table (MDCSTAT03501)
type Fundamental struct {
	Ticker string        `json:"ticker"`
	EPS    contracts.Num `json:"eps"`
	PER    contracts.Num `json:"per"`
	BPS    contracts.Num `json:"bps"`
	PBR    contracts.Num `json:"pbr"`
	DIV    contracts.Num `json:"div"`
}

type fundamentalRow struct {
	Ticker string `json:"ISU_SRT_CD"`
	EPS    string `json:"EPS"`
	PER    string `json:"PER"`
	BPS    string `json:"BPS"`
	PBR    string `json:"PBR"`
	DIV    string `json:"DVD_YLD"`
}

// FetchFundamentals fetches EPS/PER/BPS/PBR/dividend yield of one segment
func (c *Client) FetchFundamentals(ctx context.Context, date time.Time, market contracts.Market) ([]Fundamental, error) {
	mktID, err := marketID(market)
	if err != nil {
		return nil, err
	}
	trdDd := date.Format("20060102")

	return cached(ctx, c, redis.FundamentalKey(mktID, trdDd), date, func() ([]Fundamental, error) {
		rows, err := fetchRows[fundamentalRow](ctx, c, "dbms/MDC/STAT/standard/MDCSTAT03501", url.Values{
			"mktId": {mktID},
			"trdDd": {trdDd},
		})
		if err != nil {
			return nil, fmt.Errorf("fetch %s fundamentals %s: %w", market, trdDd, err)
		}

		result := make([]Fundamental, 0, len(rows))
		for _, row := range rows {
			if row.Ticker == "" {
				continue
			}
			result = append(result, Fundamental{
				Ticker: row.Ticker,
				EPS:    parseKRXNumber(row.EPS),
				PER:    parseKRXNumber(row.PER),
				BPS:    parseKRXNumber(row.BPS),
				PBR:    parseKRXNumber(row.PBR),
				DIV:    parseKRXNumber(row.DIV),
			})
		}
		return result, nil
	}, func(rows []Fundamental) bool { return len(rows) > 0 })
}
