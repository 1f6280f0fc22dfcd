package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyConfigFile string
	verbose            bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "propick - KOSPI/KOSDAQ 팩터 랭킹 & 백테스트",
	Long: `propick Unified CLI

KRX 시가총액 상위 종목을 가치/퀄리티/모멘텀/리스크 점수로 평가하고
14개 전략으로 필터링해 CSV로 저장하고 업로드합니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant rank
  go run ./cmd/quant rank --strategy 5
  go run ./cmd/quant backtest run --start 20200101
  go run ./cmd/quant upload
  go run ./cmd/quant api
  go run ./cmd/quant scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyConfigFile, "strategy-config", "", "전략 파라미터 YAML (기본: STRATEGY_CONFIG 또는 내장값)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
