package commands

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/propick/internal/backtest"
	"github.com/wonny/propick/internal/strategyconfig"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"20240304", "2024-03-04"} {
		got, err := parseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := parseDate("03/04/2024")
	assert.Error(t, err)
}

// newBacktestCmd mirrors backtestRunCmd's flags on a fresh command
func newBacktestCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	backtestStart, backtestEnd = "", ""
	backtestTopN, backtestStrategy = 0, 0
	backtestCapital, backtestMinTradingValue = 0, 0

	cmd := &cobra.Command{Use: "run"}
	cmd.Flags().StringVar(&backtestStart, "start", "", "")
	cmd.Flags().StringVar(&backtestEnd, "end", "", "")
	cmd.Flags().IntVar(&backtestTopN, "top-n", 0, "")
	cmd.Flags().Float64Var(&backtestCapital, "capital", 0, "")
	cmd.Flags().Float64Var(&backtestMinTradingValue, "min-trading-value", 0, "")
	cmd.Flags().IntVar(&backtestStrategy, "strategy", 0, "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestBacktestConfig_Defaults(t *testing.T) {
	a := &app{params: strategyconfig.Default()}

	cfg, err := backtestConfig(newBacktestCmd(t), a)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartDate)
	assert.Nil(t, cfg.EndDate)
	assert.Equal(t, 30, cfg.TopN)
	assert.Equal(t, 100_000_000.0, cfg.InitialCapital)
	assert.Equal(t, 100_000_000.0, cfg.MinTradingValue)
	assert.Equal(t, 0, cfg.StrategyID)
}

func TestBacktestConfig_FlagsOverride(t *testing.T) {
	a := &app{params: strategyconfig.Default()}

	cmd := newBacktestCmd(t,
		"--start", "20200101", "--end", "2023-12-31",
		"--top-n", "10", "--capital", "5e7", "--min-trading-value", "0", "--strategy", "2")
	cfg, err := backtestConfig(cmd, a)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartDate)
	require.NotNil(t, cfg.EndDate)
	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), *cfg.EndDate)
	assert.Equal(t, 10, cfg.TopN)
	assert.Equal(t, 5e7, cfg.InitialCapital)
	assert.Equal(t, 0.0, cfg.MinTradingValue)
	assert.Equal(t, 2, cfg.StrategyID)
}

func TestBacktestConfig_Invalid(t *testing.T) {
	a := &app{params: strategyconfig.Default()}

	_, err := backtestConfig(newBacktestCmd(t, "--start", "2020"), a)
	assert.ErrorContains(t, err, "invalid start date")

	_, err = backtestConfig(newBacktestCmd(t, "--start", "20200101", "--end", "20191231"), a)
	assert.ErrorContains(t, err, "before start date")

	_, err = backtestConfig(newBacktestCmd(t, "--top-n", "0"), a)
	assert.True(t, errors.Is(err, backtest.ErrInvalidParams))
}
