package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/propick/internal/backtest"
	"github.com/wonny/propick/internal/calendar"
	"github.com/wonny/propick/internal/render"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "월간 리밸런싱 백테스트",
	Long: `매월 첫 거래일에 종목을 선정해 다음 리밸런싱일까지 동일가중 보유하는
전략을 시뮬레이션합니다.

지표:
- 누적 수익률, CAGR
- 최대 낙폭 (MDD)
- 승률 (수익 구간 비율)

Example:
  go run ./cmd/quant backtest run --start 20200101
  go run ./cmd/quant backtest run --start 20200101 --end 20231231 --strategy 2
  go run ./cmd/quant backtest show <run_id>`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "백테스트 실행",
		Long: `지정된 기간 동안 백테스트를 실행합니다.

Flags:
  --start              시작 날짜 (YYYYMMDD, 기본: 전략 설정)
  --end                종료 날짜 (YYYYMMDD, 기본: 최근 거래일)
  --top-n              보유 종목 수 (기본: 30)
  --capital            초기 자본 (기본: 1억원)
  --min-trading-value  최소 거래대금 (기본: 1억원)
  --strategy           전략 번호 (0 = 종합점수 상위, 1~14)

Example:
  go run ./cmd/quant backtest run --start 20200101
  go run ./cmd/quant backtest run --start 20200101 --top-n 20 --capital 50000000`,
		RunE: runBacktest,
	}

	backtestShowCmd = &cobra.Command{
		Use:   "show [run_id]",
		Short: "저장된 백테스트 조회",
		Args:  cobra.ExactArgs(1),
		RunE:  showBacktest,
	}

	// Flags
	backtestStart           string
	backtestEnd             string
	backtestTopN            int
	backtestCapital         float64
	backtestMinTradingValue float64
	backtestStrategy        int
	backtestNoCSV           bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)
	backtestCmd.AddCommand(backtestShowCmd)

	// Flags
	backtestRunCmd.Flags().StringVar(&backtestStart, "start", "", "시작 날짜 (YYYYMMDD)")
	backtestRunCmd.Flags().StringVar(&backtestEnd, "end", "", "종료 날짜 (YYYYMMDD, 기본: 최근 거래일)")
	backtestRunCmd.Flags().IntVar(&backtestTopN, "top-n", 0, "보유 종목 수")
	backtestRunCmd.Flags().Float64Var(&backtestCapital, "capital", 0, "초기 자본 (원)")
	backtestRunCmd.Flags().Float64Var(&backtestMinTradingValue, "min-trading-value", 0, "최소 거래대금 (원)")
	backtestRunCmd.Flags().IntVar(&backtestStrategy, "strategy", 0, "전략 번호 (0 = 종합점수 상위)")
	backtestRunCmd.Flags().BoolVar(&backtestNoCSV, "no-csv", false, "결과 CSV 저장 생략")
}

// backtestConfig merges flags over the strategy config defaults
func backtestConfig(cmd *cobra.Command, a *app) (backtest.Config, error) {
	defaults := a.params.Backtest
	cfg := backtest.Config{
		Params: backtest.Params{
			TopN:            defaults.TopN,
			MinTradingValue: defaults.MinTradingValue,
			InitialCapital:  defaults.InitialCapital,
			StrategyID:      defaults.StrategyID,
		},
	}

	start := defaults.Start
	if backtestStart != "" {
		start = backtestStart
	}
	startDate, err := parseDate(start)
	if err != nil {
		return cfg, fmt.Errorf("invalid start date: %w", err)
	}
	cfg.StartDate = startDate

	end := defaults.End
	if backtestEnd != "" {
		end = backtestEnd
	}
	if end != "" {
		endDate, err := parseDate(end)
		if err != nil {
			return cfg, fmt.Errorf("invalid end date: %w", err)
		}
		if endDate.Before(startDate) {
			return cfg, fmt.Errorf("end date %s is before start date %s", end, start)
		}
		cfg.EndDate = &endDate
	}

	flags := cmd.Flags()
	if flags.Changed("top-n") {
		cfg.TopN = backtestTopN
	}
	if flags.Changed("capital") {
		cfg.InitialCapital = backtestCapital
	}
	if flags.Changed("min-trading-value") {
		cfg.MinTradingValue = backtestMinTradingValue
	}
	if flags.Changed("strategy") {
		cfg.StrategyID = backtestStrategy
	}

	return cfg, cfg.Params.Validate()
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := backtestConfig(cmd, a)
	if err != nil {
		return err
	}

	endLabel := "LATEST"
	if cfg.EndDate != nil {
		endLabel = cfg.EndDate.Format("20060102")
	}

	PrintHeader("propick Backtest Engine")
	PrintKeyValue("Period", fmt.Sprintf("%s ~ %s", cfg.StartDate.Format("20060102"), endLabel), 16)
	PrintKeyValue("Initial Capital", fmt.Sprintf("%.0f원", cfg.InitialCapital), 16)
	PrintKeyValue("Top N", fmt.Sprintf("%d", cfg.TopN), 16)
	PrintKeyValue("Min Trading Val", fmt.Sprintf("%.0f원", cfg.MinTradingValue), 16)
	PrintKeyValue("Strategy", fmt.Sprintf("%d", cfg.StrategyID), 16)
	PrintSeparator()

	checkpoints := calendar.NewScheduler(a.oracle, a.log).WithLookback(a.params.Backtest.LookbackDays)
	simulator := backtest.NewSimulator(a.scorer, a.engine, a.naver, a.log)
	engine := backtest.NewEngine(checkpoints, simulator, a.store, a.log)

	startTime := time.Now()
	report, err := engine.Run(ctx, cfg)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	if err := render.BacktestSummary(stdout, report); err != nil {
		return err
	}

	if !backtestNoCSV {
		path, err := a.writer.WriteBacktest(report, cfg.StartDate.Format("20060102"), endLabel)
		if err != nil {
			return fmt.Errorf("write backtest csv: %w", err)
		}
		PrintKeyValue("CSV", path, 8)
	}
	PrintKeyValue("Run ID", report.RunID, 8)

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Backtest completed in %.2fs", time.Since(startTime).Seconds()))
	return nil
}

func showBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.store.GetBacktest(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load backtest %s: %w", args[0], err)
	}

	PrintHeader(fmt.Sprintf("Backtest %s", report.RunID))
	return render.BacktestSummary(stdout, report)
}
