package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/propick/internal/brain"
)

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "전략별 종목 랭킹 생성",
	Long: `최근 거래일 기준으로 종목 점수를 계산하고 전략별 CSV를 생성합니다.

이 명령어는:
- 최근 거래일 결정 (시가총액 합계 > 0)
- 가치/퀄리티/모멘텀/리스크 점수 계산
- 전략 1~14 필터링 → CSV 저장 → DB 저장
- 전체 실행 시 Supabase 업로드

Flags:
  --strategy    단일 전략 번호 (1~14, 기본: 전체)
  --no-upload   업로드 생략

Example:
  go run ./cmd/quant rank
  go run ./cmd/quant rank --strategy 5
  go run ./cmd/quant rank --no-upload`,
	RunE: runRank,
}

var (
	rankStrategy int
	rankNoUpload bool
)

func init() {
	rootCmd.AddCommand(rankCmd)

	// Flags
	rankCmd.Flags().IntVar(&rankStrategy, "strategy", 0, "전략 번호 (1~14, 0 = 전체)")
	rankCmd.Flags().BoolVar(&rankNoUpload, "no-upload", false, "업로드 생략")
}

func runRank(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	orch := a.orchestrator(!rankNoUpload && rankStrategy == 0)

	var result *brain.RunResult
	if rankStrategy != 0 {
		PrintHeader(fmt.Sprintf("propick Ranking - 전략 %d", rankStrategy))
		result, err = orch.RunOne(ctx, rankStrategy)
	} else {
		PrintHeader("propick Ranking - 전체 전략")
		result, err = orch.Run(ctx, brain.RunConfig{
			Strategies: brain.AllStrategies(),
			Upload:     !rankNoUpload,
		})
	}
	if err != nil {
		return fmt.Errorf("ranking run: %w", err)
	}

	fmt.Printf("\n📅 기준일: %s\n\n", result.RefDate.Format("2006-01-02"))
	if err := PrintRunResult(stdout, result); err != nil {
		return err
	}
	PrintUploadSummary(result.Upload)

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Ranking completed in %.2fs", result.Duration.Seconds()))
	return nil
}
