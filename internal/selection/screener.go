package selection

import (
	"github.com/wonny/propick/internal/contracts"
)

// Gates are the liquidity/price/size conditions of the base candidate set
type Gates struct {
	MinTradingValue float64 // 거래대금 하한 (원)
	MinVolume       float64 // 거래량 하한 (주)
	MaxPrice        float64 // 종가 상한 (원)
	MinMarketCap    float64 // 시가총액 하한 (원)
}

// DefaultGates returns 1억 / 10만주 / 7만원 / 3천억
func DefaultGates() Gates {
	return Gates{
		MinTradingValue: 100_000_000,
		MinVolume:       100_000,
		MaxPrice:        70_000,
		MinMarketCap:    300_000_000_000,
	}
}

// exclusion reasons
const (
	reasonTradingValue = "trading_value"
	reasonVolume       = "volume"
	reasonPrice        = "price"
	reasonMarketCap    = "market_cap"
)

// checkConditions returns the first failed gate, or "" when the row passes.
// A missing cell fails its gate.
func (g Gates) checkConditions(r *contracts.ScoredRecord, withTradingValue bool) string {
	if withTradingValue && !ge(r.TradingValue, g.MinTradingValue) {
		return reasonTradingValue
	}
	if !ge(r.Volume, g.MinVolume) {
		return reasonVolume
	}
	if !le(r.Close, g.MaxPrice) {
		return reasonPrice
	}
	if !ge(r.MarketCap, g.MinMarketCap) {
		return reasonMarketCap
	}
	return ""
}

// screen returns the rows passing every gate plus per-reason exclusion counts
func (g Gates) screen(rows []contracts.ScoredRecord, withTradingValue bool) ([]contracts.ScoredRecord, map[string]int) {
	passed := make([]contracts.ScoredRecord, 0, len(rows))
	filtered := make(map[string]int)

	for i := range rows {
		if reason := g.checkConditions(&rows[i], withTradingValue); reason != "" {
			filtered[reason]++
			continue
		}
		passed = append(passed, rows[i])
	}
	return passed, filtered
}
