package strategyconfig

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DateLayout is the YYYYMMDD layout used for backtest dates
const DateLayout = "20060102"

// WeightTolerance is the allowed deviation of a weight sum from 1.0
const WeightTolerance = 1e-6

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Universe ===
	if cfg.Universe.SizePerMarket <= 0 {
		return ValidationError{"universe.size_per_market", "must be > 0"}
	}
	if cfg.Universe.ShortMomentumMon <= 0 || cfg.Universe.LongMomentumMon <= 0 {
		return ValidationError{"universe.momentum_months", "must be > 0"}
	}
	if cfg.Universe.ShortMomentumMon >= cfg.Universe.LongMomentumMon {
		return ValidationError{"universe.momentum_months", "short must be < long"}
	}
	if cfg.Universe.DaysPerMonth <= 0 {
		return ValidationError{"universe.days_per_month", "must be > 0"}
	}

	// === Weights ===
	for _, w := range cfg.Weights.Slice() {
		if w < 0 {
			return ValidationError{"weights", "must be >= 0"}
		}
	}
	if err := validateWeightsSum(cfg.Weights.Slice(), 1.0, WeightTolerance); err != nil {
		return ValidationError{"weights", err.Error()}
	}

	// === Gates ===
	g := cfg.Gates
	if g.MinTradingValue <= 0 {
		return ValidationError{"gates.min_trading_value", "must be > 0"}
	}
	if g.MinVolume <= 0 {
		return ValidationError{"gates.min_volume", "must be > 0"}
	}
	if g.MaxPrice <= 0 {
		return ValidationError{"gates.max_price", "must be > 0"}
	}
	if g.MinMarketCap <= 0 {
		return ValidationError{"gates.min_market_cap", "must be > 0"}
	}

	// === Output ===
	if cfg.Output.TopNToShow <= 0 || cfg.Output.MetaPerStrategy <= 0 || cfg.Output.MetaCSVRows <= 0 {
		return ValidationError{"output", "counts must be > 0"}
	}

	// === Backtest ===
	b := cfg.Backtest
	start, err := time.Parse(DateLayout, b.Start)
	if err != nil {
		return ValidationError{"backtest.start", "must be YYYYMMDD"}
	}
	if b.End != "" {
		end, err := time.Parse(DateLayout, b.End)
		if err != nil {
			return ValidationError{"backtest.end", "must be YYYYMMDD or empty"}
		}
		if !end.After(start) {
			return ValidationError{"backtest.end", "must be after start"}
		}
	}
	if b.TopN <= 0 {
		return ValidationError{"backtest.top_n", "must be > 0"}
	}
	if b.InitialCapital <= 0 {
		return ValidationError{"backtest.initial_capital", "must be > 0"}
	}
	if b.MinTradingValue < 0 {
		return ValidationError{"backtest.min_trading_value", "must be >= 0"}
	}
	if b.StrategyID < 0 || b.StrategyID > 14 {
		return ValidationError{"backtest.strategy_id", "must be 0 (total score) or 1..14"}
	}
	if b.LookbackDays <= 0 {
		return ValidationError{"backtest.lookback_days", "must be > 0"}
	}

	return nil
}

func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}
