package strategyconfig

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, 500, cfg.Universe.SizePerMarket)
	assert.Equal(t, []float64{0.40, 0.25, 0.25, 0.10}, cfg.Weights.Slice())
	assert.Equal(t, 70_000.0, cfg.Gates.MaxPrice)
	assert.Equal(t, "20180101", cfg.Backtest.Start)
}

func TestLoadRepositoryConfig(t *testing.T) {
	path := "../../config/propick.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Gates, cfg.Gates)

	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
backtest:
  start: "20200101"
  top_n: 10
  strategy_id: 14
`))
	require.NoError(t, err)

	assert.Equal(t, "20200101", cfg.Backtest.Start)
	assert.Equal(t, 10, cfg.Backtest.TopN)
	assert.Equal(t, 14, cfg.Backtest.StrategyID)
	assert.Equal(t, 100_000_000.0, cfg.Backtest.InitialCapital)
}

func TestParse_UnknownFieldFails(t *testing.T) {
	_, err := Parse([]byte("gates:\n  min_trading_valu: 1\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"weights not summing to one", func(c *Config) { c.Weights.Value = 0.5 }, "weights"},
		{"negative weight", func(c *Config) { c.Weights.Value = -0.1; c.Weights.Quality = 0.75 }, "weights"},
		{"zero volume gate", func(c *Config) { c.Gates.MinVolume = 0 }, "gates.min_volume"},
		{"bad start", func(c *Config) { c.Backtest.Start = "2018-01-01" }, "backtest.start"},
		{"end before start", func(c *Config) { c.Backtest.End = "20170101" }, "backtest.end"},
		{"strategy out of range", func(c *Config) { c.Backtest.StrategyID = 15 }, "backtest.strategy_id"},
		{"momentum order", func(c *Config) { c.Universe.ShortMomentumMon = 12 }, "universe.momentum_months"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateWeightsSum_Tolerance(t *testing.T) {
	assert.NoError(t, validateWeightsSum([]float64{0.4, 0.25, 0.25, 0.1 + 5e-7}, 1.0, WeightTolerance))
	assert.Error(t, validateWeightsSum([]float64{0.4, 0.25, 0.25, 0.1 + 5e-6}, 1.0, WeightTolerance))
	assert.Error(t, validateWeightsSum(nil, 1.0, WeightTolerance))
}

func TestHash_Deterministic(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	b, _ := Hash(Default())
	assert.Equal(t, a, b)

	cfg := Default()
	cfg.Backtest.TopN = 5
	c, _ := Hash(cfg)
	assert.NotEqual(t, a, c)
}
