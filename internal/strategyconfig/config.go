package strategyconfig

// Config holds the quant parameters of the ranking and backtest pipeline
type Config struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Universe Universe `yaml:"universe" json:"universe"`
	Weights  Weights  `yaml:"weights" json:"weights"`
	Gates    Gates    `yaml:"gates" json:"gates"`
	Output   Output   `yaml:"output" json:"output"`
	Backtest Backtest `yaml:"backtest" json:"backtest"`
}

// Meta 메타 정보
type Meta struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
}

// Universe 시가총액 상위 N + 모멘텀 기간
type Universe struct {
	SizePerMarket    int `yaml:"size_per_market" json:"size_per_market"`
	ShortMomentumMon int `yaml:"short_momentum_months" json:"short_momentum_months"`
	LongMomentumMon  int `yaml:"long_momentum_months" json:"long_momentum_months"`
	DaysPerMonth     int `yaml:"days_per_month" json:"days_per_month"`
}

// Weights 종합점수 가중치 (합 = 1.0)
type Weights struct {
	Value    float64 `yaml:"value" json:"value"`
	Quality  float64 `yaml:"quality" json:"quality"`
	Momentum float64 `yaml:"momentum" json:"momentum"`
	LowRisk  float64 `yaml:"low_risk" json:"low_risk"`
}

// Slice returns the weights in value, quality, momentum, low_risk order
func (w Weights) Slice() []float64 {
	return []float64{w.Value, w.Quality, w.Momentum, w.LowRisk}
}

// Gates 기본 후보군 유동성/가격/규모 조건
type Gates struct {
	MinTradingValue float64 `yaml:"min_trading_value" json:"min_trading_value"` // 원
	MinVolume       float64 `yaml:"min_volume" json:"min_volume"`               // 주
	MaxPrice        float64 `yaml:"max_price" json:"max_price"`                 // 원
	MinMarketCap    float64 `yaml:"min_market_cap" json:"min_market_cap"`       // 원
}

// Output 출력 개수
type Output struct {
	TopNToShow      int `yaml:"top_n_to_show" json:"top_n_to_show"`
	MetaPerStrategy int `yaml:"meta_per_strategy" json:"meta_per_strategy"` // 전략 14: 하위 전략별 상위 N
	MetaCSVRows     int `yaml:"meta_csv_rows" json:"meta_csv_rows"`         // 전략 14: CSV 저장 행 수
}

// Backtest 백테스트 기본값
type Backtest struct {
	Start           string  `yaml:"start" json:"start"` // YYYYMMDD
	End             string  `yaml:"end" json:"end"`     // YYYYMMDD, 비어있으면 최근 거래일
	TopN            int     `yaml:"top_n" json:"top_n"`
	InitialCapital  float64 `yaml:"initial_capital" json:"initial_capital"`
	MinTradingValue float64 `yaml:"min_trading_value" json:"min_trading_value"`
	StrategyID      int     `yaml:"strategy_id" json:"strategy_id"` // 0 = 종합점수 상위
	LookbackDays    int     `yaml:"lookback_days" json:"lookback_days"`
}

// Default returns the built-in parameters
func Default() *Config {
	return &Config{
		Meta: Meta{Name: "propick", Version: "1"},
		Universe: Universe{
			SizePerMarket:    500,
			ShortMomentumMon: 3,
			LongMomentumMon:  12,
			DaysPerMonth:     30,
		},
		Weights: Weights{Value: 0.40, Quality: 0.25, Momentum: 0.25, LowRisk: 0.10},
		Gates: Gates{
			MinTradingValue: 100_000_000,
			MinVolume:       100_000,
			MaxPrice:        70_000,
			MinMarketCap:    300_000_000_000,
		},
		Output: Output{TopNToShow: 30, MetaPerStrategy: 80, MetaCSVRows: 50},
		Backtest: Backtest{
			Start:           "20180101",
			TopN:            30,
			InitialCapital:  100_000_000,
			MinTradingValue: 100_000_000,
			LookbackDays:    10,
		},
	}
}
