package s1_universe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/internal/external/krx"
	"github.com/wonny/propick/internal/strategyconfig"
	"github.com/wonny/propick/pkg/logger"
)

type fakeMarketData struct {
	caps         map[contracts.Market][]krx.MarketCap
	fundamentals map[contracts.Market][]krx.Fundamental
	changes      map[string][]krx.PriceChange // market:from
	changeCalls  []string
	err          error
}

func (f *fakeMarketData) FetchMarketCaps(ctx context.Context, date time.Time, market contracts.Market) ([]krx.MarketCap, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.caps[market], nil
}

func (f *fakeMarketData) FetchFundamentals(ctx context.Context, date time.Time, market contracts.Market) ([]krx.Fundamental, error) {
	return f.fundamentals[market], nil
}

func (f *fakeMarketData) FetchPriceChanges(ctx context.Context, from, to time.Time, market contracts.Market) ([]krx.PriceChange, error) {
	key := string(market) + ":" + from.Format("20060102")
	f.changeCalls = append(f.changeCalls, key+"-"+to.Format("20060102"))
	return f.changes[key], nil
}

func listing(ticker string, marcap float64) krx.MarketCap {
	return krx.MarketCap{
		Ticker:       ticker,
		Name:         "종목" + ticker,
		Close:        contracts.Some(10_000),
		Volume:       contracts.Some(1e6),
		TradingValue: contracts.Some(1e10),
		MarketCap:    contracts.Some(marcap),
	}
}

func universeConfig(size int) strategyconfig.Universe {
	u := strategyconfig.Default().Universe
	u.SizePerMarket = size
	return u
}

func TestBuilder_GetAttributes(t *testing.T) {
	asOf := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	missingCap := listing("000004", 0)
	missingCap.MarketCap = contracts.Missing()

	data := &fakeMarketData{
		caps: map[contracts.Market][]krx.MarketCap{
			contracts.MarketKOSPI:  {listing("000001", 1e12), listing("000002", 5e12), missingCap, listing("000003", 3e12)},
			contracts.MarketKOSDAQ: {listing("100001", 2e11)},
		},
		fundamentals: map[contracts.Market][]krx.Fundamental{
			contracts.MarketKOSPI: {{
				Ticker: "000002",
				PER:    contracts.Some(8),
				PBR:    contracts.Some(0.9),
				DIV:    contracts.Some(3.1),
				EPS:    contracts.Some(5000),
				BPS:    contracts.Some(40000),
			}},
		},
		changes: map[string][]krx.PriceChange{
			"KOSPI:20240102": {{Ticker: "000002", ChangeRate: contracts.Some(12.5)}},
			"KOSPI:20230407": {{Ticker: "000002", ChangeRate: contracts.Some(-4)}},
		},
	}

	table, err := NewBuilder(data, universeConfig(2), logger.Nop()).GetAttributes(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, contracts.AllColumns, table.Columns)
	assert.Empty(t, table.MissingColumns(contracts.ColPER, contracts.ColMom12))

	tickers := make([]string, len(table.Rows))
	for i, r := range table.Rows {
		tickers[i] = r.Ticker
	}
	assert.Equal(t, []string{"000002", "000003", "100001"}, tickers)

	top := table.Rows[0]
	assert.Equal(t, contracts.MarketKOSPI, top.Market)
	assert.Equal(t, 8.0, top.PER.V)
	assert.Equal(t, 12.5, top.Mom3.V)
	assert.Equal(t, -4.0, top.Mom12.V)

	second := table.Rows[1]
	assert.False(t, second.PER.Valid())
	assert.False(t, second.Mom3.Valid())
	assert.True(t, second.MarketCap.Valid())
	assert.Equal(t, contracts.MarketKOSDAQ, table.Rows[2].Market)

	// 90 and 360 days back
	assert.Contains(t, data.changeCalls, "KOSPI:20240102-20240401")
	assert.Contains(t, data.changeCalls, "KOSDAQ:20230407-20240401")
}

func TestBuilder_ProviderErrorIsFatal(t *testing.T) {
	data := &fakeMarketData{err: errors.New("krx 503")}
	_, err := NewBuilder(data, universeConfig(500), logger.Nop()).GetAttributes(context.Background(), time.Now())
	assert.ErrorContains(t, err, "krx 503")
}

func TestTopByMarketCap_MissingLast(t *testing.T) {
	missing := listing("X", 0)
	missing.MarketCap = contracts.Missing()
	caps := []krx.MarketCap{missing, listing("A", 1), listing("B", 3)}

	got := topByMarketCap(caps, 0)
	assert.Equal(t, "B", got[0].Ticker)
	assert.Equal(t, "A", got[1].Ticker)
	assert.Equal(t, "X", got[2].Ticker)
	assert.Equal(t, "X", caps[0].Ticker)
}
