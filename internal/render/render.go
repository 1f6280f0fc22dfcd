package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/internal/s2_signals"
	"github.com/wonny/propick/internal/storage"
)

const rule = "=========================================================="

func banner(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n=== %s ===\n%s\n\n", rule, title, rule)
}

// RankingTable prints the top rows of a strategy
func RankingTable(w io.Writer, title string, asOf time.Time, rows []contracts.LabeledRecord) error {
	banner(w, fmt.Sprintf("%s 기준 %s 상위 %d 종목", asOf.Format("20060102"), title, len(rows)))

	table := tablewriter.NewWriter(w)
	table.Header(
		"#", "종목명", "종목코드", "시장", "시총구간", "리스크구간", "스타일",
		"시가총액(억)", "거래대금", "PER", "PBR", "DIV", "EPS", "BPS",
		"mom_3m", "mom_12m", "value", "quality", "momentum", "risk", "total",
	)

	for i := range rows {
		r := &rows[i]
		if err := table.Append(
			strconv.Itoa(r.Rank), r.Name, r.Ticker, string(r.Market),
			r.CapBucket, r.RiskBucket, r.Style,
			num(storage.ToEok(r.MarketCap), 1), num(r.TradingValue, 0),
			num(r.PER, 2), num(r.PBR, 2), num(r.DIV, 2), num(r.EPS, 0), num(r.BPS, 0),
			num(r.Mom3, 2), num(r.Mom12, 2),
			score(r.ValueScore), score(r.QualityScore), score(r.MomentumScore),
			score(r.RiskScore), score(r.TotalScore),
		); err != nil {
			return fmt.Errorf("render ranking row %s: %w", r.Ticker, err)
		}
	}

	return table.Render()
}

// Comments prints the analyst comment of every row
func Comments(w io.Writer, title string, rows []contracts.LabeledRecord) {
	banner(w, title+" 상위 종목 애널리스트 코멘트")

	for i := range rows {
		fmt.Fprintf(w, "[%d] ------------------------------------------\n", i+1)
		fmt.Fprintln(w, s2_signals.Comment(&rows[i].ScoredRecord))
		fmt.Fprintln(w)
	}
}

// BacktestSummary prints the summary statistics and the period table
func BacktestSummary(w io.Writer, report *contracts.BacktestReport) error {
	banner(w, "백테스트 결과 요약")

	summary := tablewriter.NewWriter(w)
	summary.Header("항목", "값")

	cagr := "-"
	if report.CAGR.Valid() {
		cagr = pct(report.CAGR.V)
	}

	items := [][]string{
		{"run_id", report.RunID},
		{"기간", fmt.Sprintf("%s ~ %s (%d일)", report.StartDate.Format("20060102"), report.EndDate.Format("20060102"), report.Days)},
		{"리밸런싱 횟수", strconv.Itoa(report.PeriodCount)},
		{"초기 자본", money(report.InitialCapital)},
		{"최종 자산", money(report.FinalEquity)},
		{"누적 수익률", pct(report.TotalReturn)},
		{"CAGR", cagr},
		{"최대 낙폭(MDD)", pct(report.MaxDrawdown)},
		{"승률", pct(report.WinRate)},
	}
	for _, item := range items {
		if err := summary.Append(item); err != nil {
			return fmt.Errorf("render summary: %w", err)
		}
	}
	if err := summary.Render(); err != nil {
		return err
	}

	fmt.Fprintln(w)

	periods := tablewriter.NewWriter(w)
	periods.Header("리밸런싱일", "다음 리밸런싱일", "수익률", "자산", "종목수")
	for _, p := range report.Periods {
		if err := periods.Append(
			p.Start.Format("20060102"), p.End.Format("20060102"),
			pct(p.Return), money(p.EquityAfter), strconv.Itoa(p.Positions),
		); err != nil {
			return fmt.Errorf("render period: %w", err)
		}
	}
	return periods.Render()
}

func num(n contracts.Num, prec int) string {
	if !n.Valid() {
		return "-"
	}
	return strconv.FormatFloat(n.V, 'f', prec, 64)
}

func score(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// money formats won with thousands separators
func money(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, ch := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
