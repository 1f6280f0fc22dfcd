package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "오늘 생성된 전략 CSV 업로드",
	Long: `RESULT_DIR에서 오늘 날짜의 전략 CSV를 찾아 Supabase에 업로드합니다.

- 주말에는 실행하지 않습니다
- 같은 파일 해시가 이미 있으면 건너뜁니다
- 스토리지 파일과 DB 행이 모두 있으면 건너뜁니다
- 저장 경로: YYYYMMDD/strategy_N.csv

Environment:
  SUPABASE_URL, SUPABASE_KEY, SUPABASE_BUCKET

Example:
  go run ./cmd/quant upload`,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	u := a.uploader()
	if u == nil {
		return fmt.Errorf("upload requires SUPABASE_URL and SUPABASE_KEY")
	}

	PrintHeader("propick Upload")

	summary, err := u.Run(ctx)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	PrintUploadSummary(summary)

	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed to upload", summary.Failed)
	}
	PrintSuccess("Upload completed")
	return nil
}
