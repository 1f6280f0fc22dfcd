package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/wonny/propick/internal/brain"
	"github.com/wonny/propick/internal/upload"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// stdout is where tables are rendered
var stdout io.Writer = os.Stdout

// PrintHeader prints a command banner
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintDoubleSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintRunResult prints the per-strategy outcome of a ranking run
func PrintRunResult(w io.Writer, result *brain.RunResult) error {
	table := tablewriter.NewWriter(w)
	table.Header("전략", "제목", "종목수", "완화", "파일")

	for _, sr := range result.Strategies {
		rows := fmt.Sprintf("%d", sr.Rows)
		path := sr.Path
		if sr.Skipped {
			rows = "-"
			path = "(건너뜀)"
		}
		relaxed := ""
		if sr.Relaxed {
			relaxed = "✓"
		}
		if err := table.Append([]string{fmt.Sprintf("%d", sr.ID), sr.Title, rows, relaxed, path}); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintUploadSummary prints the upload counters
func PrintUploadSummary(summary *upload.Summary) {
	if summary == nil {
		return
	}
	PrintSeparator()
	PrintKeyValue("Found", fmt.Sprintf("%d", summary.Found), 10)
	PrintKeyValue("Uploaded", fmt.Sprintf("%d", summary.Uploaded), 10)
	PrintKeyValue("Inserted", fmt.Sprintf("%d", summary.Inserted), 10)
	PrintKeyValue("Skipped", fmt.Sprintf("%d", summary.Skipped), 10)
	PrintKeyValue("Failed", fmt.Sprintf("%d", summary.Failed), 10)
}
