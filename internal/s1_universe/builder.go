package s1_universe

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/internal/external/krx"
	"github.com/wonny/propick/internal/strategyconfig"
	"github.com/wonny/propick/pkg/logger"
)

// MarketData is the KRX surface the builder needs
type MarketData interface {
	FetchMarketCaps(ctx context.Context, date time.Time, market contracts.Market) ([]krx.MarketCap, error)
	FetchFundamentals(ctx context.Context, date time.Time, market contracts.Market) ([]krx.Fundamental, error)
	FetchPriceChanges(ctx context.Context, from, to time.Time, market contracts.Market) ([]krx.PriceChange, error)
}

// markets in output order: KOSPI rows first, then KOSDAQ
var markets = []contracts.Market{contracts.MarketKOSPI, contracts.MarketKOSDAQ}

// Builder constructs the attribute table of the investable universe
type Builder struct {
	data   MarketData
	config strategyconfig.Universe
	logger *logger.Logger
}

// NewBuilder creates a new Universe Builder
func NewBuilder(data MarketData, config strategyconfig.Universe, log *logger.Logger) *Builder {
	return &Builder{
		data:   data,
		config: config,
		logger: log,
	}
}

// GetAttributes builds the universe as of asOf: top N by market cap per
// segment, left-joined with fundamentals and 3m/12m momentum.
// ⭐ SSOT: S1 → S2 유니버스 생성
func (b *Builder) GetAttributes(ctx context.Context, asOf time.Time) (*contracts.AttributeTable, error) {
	table := &contracts.AttributeTable{
		AsOf:    asOf,
		Rows:    make([]contracts.Instrument, 0, 2*b.config.SizePerMarket),
		Columns: contracts.AllColumns,
	}

	shortStart := asOf.AddDate(0, 0, -b.config.DaysPerMonth*b.config.ShortMomentumMon)
	longStart := asOf.AddDate(0, 0, -b.config.DaysPerMonth*b.config.LongMomentumMon)

	for _, market := range markets {
		caps, err := b.data.FetchMarketCaps(ctx, asOf, market)
		if err != nil {
			return nil, fmt.Errorf("universe %s: %w", market, err)
		}
		fundamentals, err := b.data.FetchFundamentals(ctx, asOf, market)
		if err != nil {
			return nil, fmt.Errorf("fundamentals %s: %w", market, err)
		}
		mom3, err := b.data.FetchPriceChanges(ctx, shortStart, asOf, market)
		if err != nil {
			return nil, fmt.Errorf("momentum %dm %s: %w", b.config.ShortMomentumMon, market, err)
		}
		mom12, err := b.data.FetchPriceChanges(ctx, longStart, asOf, market)
		if err != nil {
			return nil, fmt.Errorf("momentum %dm %s: %w", b.config.LongMomentumMon, market, err)
		}

		rows := b.join(market, topByMarketCap(caps, b.config.SizePerMarket), fundamentals, mom3, mom12)
		table.Rows = append(table.Rows, rows...)

		b.logger.WithFields(map[string]interface{}{
			"as_of":    asOf.Format("20060102"),
			"market":   market,
			"listings": len(caps),
			"universe": len(rows),
		}).Debug("Universe segment built")
	}

	return table, nil
}

// join attaches fundamentals and momentum by ticker; absent tickers get missing cells
func (b *Builder) join(market contracts.Market, caps []krx.MarketCap, fundamentals []krx.Fundamental, mom3, mom12 []krx.PriceChange) []contracts.Instrument {
	fund := make(map[string]krx.Fundamental, len(fundamentals))
	for _, f := range fundamentals {
		fund[f.Ticker] = f
	}
	short := changeIndex(mom3)
	long := changeIndex(mom12)

	rows := make([]contracts.Instrument, 0, len(caps))
	for _, c := range caps {
		r := contracts.Instrument{
			Ticker:       c.Ticker,
			Name:         c.Name,
			Market:       market,
			PER:          contracts.Missing(),
			PBR:          contracts.Missing(),
			DIV:          contracts.Missing(),
			EPS:          contracts.Missing(),
			BPS:          contracts.Missing(),
			MarketCap:    c.MarketCap,
			TradingValue: c.TradingValue,
			Volume:       c.Volume,
			Close:        c.Close,
			Mom3:         lookupChange(short, c.Ticker),
			Mom12:        lookupChange(long, c.Ticker),
		}
		if f, ok := fund[c.Ticker]; ok {
			r.PER, r.PBR, r.DIV, r.EPS, r.BPS = f.PER, f.PBR, f.DIV, f.EPS, f.BPS
		}
		rows = append(rows, r)
	}
	return rows
}

// topByMarketCap sorts a copy by market cap descending (missing last) and keeps n
func topByMarketCap(caps []krx.MarketCap, n int) []krx.MarketCap {
	sorted := append([]krx.MarketCap(nil), caps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].MarketCap, sorted[j].MarketCap
		if a.Valid() != b.Valid() {
			return a.Valid()
		}
		return a.V > b.V
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func changeIndex(changes []krx.PriceChange) map[string]contracts.Num {
	idx := make(map[string]contracts.Num, len(changes))
	for _, c := range changes {
		idx[c.Ticker] = c.ChangeRate
	}
	return idx
}

func lookupChange(idx map[string]contracts.Num, ticker string) contracts.Num {
	if n, ok := idx[ticker]; ok {
		return n
	}
	return contracts.Missing()
}
