package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/internal/selection"
	"github.com/wonny/propick/internal/storage"
	"github.com/wonny/propick/pkg/logger"
)

// StampLayout is the file name timestamp (초 단위)
const StampLayout = "20060102150405"

// bom makes Excel open the Korean headers as UTF-8
const bom = "\ufeff"

// rankingHeader: 종목명/종목코드 먼저
var rankingHeader = []string{
	"종목명", "종목코드", "시장", "시총구간", "리스크구간", "스타일",
	"시가총액", "거래대금", "거래량", "종가",
	"PER", "PBR", "DIV", "EPS", "BPS",
	"mom_3m", "mom_12m",
	"value_score", "quality_score", "momentum_score", "risk_score", "total_score",
}

var fileNamePattern = regexp.MustCompile(`^전략\s*(\d+)\s.*_(\d{14})\.csv$`)

// Writer writes strategy rankings and backtest results as CSV
// ⭐ SSOT: CSV 파일 형식은 여기서만 정의
type Writer struct {
	dir         string
	metaCSVRows int
	logger      *logger.Logger
}

// NewWriter creates a CSV writer rooted at dir. metaCSVRows caps strategy 14.
func NewWriter(dir string, metaCSVRows int, log *logger.Logger) *Writer {
	if metaCSVRows <= 0 {
		metaCSVRows = 50
	}
	return &Writer{dir: dir, metaCSVRows: metaCSVRows, logger: log}
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}

// FileName returns "<prefix>_<YYYYMMDDHHMMSS>.csv"
func FileName(prefix string, stamp time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, stamp.Format(StampLayout))
}

// ParseFileName extracts the strategy number and timestamp of a ranking file
func ParseFileName(name string) (int, time.Time, error) {
	m := fileNamePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, time.Time{}, fmt.Errorf("not a ranking file name: %q", name)
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("strategy number in %q: %w", name, err)
	}
	stamp, err := time.ParseInLocation(StampLayout, m[2], time.Local)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("timestamp in %q: %w", name, err)
	}
	return id, stamp, nil
}

// Limit returns the rows of strategy id that get published.
// 전략 14는 상위 metaCSVRows 행만, 나머지는 전체.
func (w *Writer) Limit(id int, rows []contracts.LabeledRecord) []contracts.LabeledRecord {
	strategy, err := selection.Lookup(id)
	if err == nil && strategy.IsMeta() && len(rows) > w.metaCSVRows {
		return rows[:w.metaCSVRows]
	}
	return rows
}

// WriteRanking saves one strategy's ranked rows and returns the file path
func (w *Writer) WriteRanking(run *contracts.RankingRun, stamp time.Time) (string, error) {
	strategy, err := selection.Lookup(run.Strategy)
	if err != nil {
		return "", err
	}

	rows := w.Limit(run.Strategy, run.Rows)

	records := make([][]string, 0, len(rows)+1)
	records = append(records, rankingHeader)
	for i := range rows {
		records = append(records, rankingRow(&rows[i]))
	}

	path := filepath.Join(w.dir, FileName(strategy.Prefix, stamp))
	if err := writeCSV(path, records); err != nil {
		return "", err
	}

	w.logger.WithFields(map[string]interface{}{
		"strategy": run.Strategy,
		"title":    strategy.Title,
		"rows":     len(rows),
		"path":     path,
	}).Info("Strategy ranking saved")

	return path, nil
}

// ListFiles returns the ranking files of day in dir, sorted by name
func ListFiles(dir string, day time.Time) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+day.Format("20060102")+"*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list ranking files: %w", err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, _, err := ParseFileName(m); err == nil {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func rankingRow(r *contracts.LabeledRecord) []string {
	return []string{
		r.Name,
		PadTicker(r.Ticker),
		string(r.Market),
		r.CapBucket,
		r.RiskBucket,
		r.Style,
		formatNum(storage.ToEok(r.MarketCap)),
		formatNum(r.TradingValue),
		formatNum(r.Volume),
		formatNum(r.Close),
		formatNum(r.PER),
		formatNum(r.PBR),
		formatNum(r.DIV),
		formatNum(r.EPS),
		formatNum(r.BPS),
		formatNum(r.Mom3),
		formatNum(r.Mom12),
		formatFloat(r.ValueScore),
		formatFloat(r.QualityScore),
		formatFloat(r.MomentumScore),
		formatFloat(r.RiskScore),
		formatFloat(r.TotalScore),
	}
}

// PadTicker zero-pads a numeric code to 6 digits (270 → 000270)
func PadTicker(ticker string) string {
	if len(ticker) >= 6 {
		return ticker
	}
	return strings.Repeat("0", 6-len(ticker)) + ticker
}

func formatNum(n contracts.Num) string {
	if !n.Valid() {
		return ""
	}
	return formatFloat(n.V)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create result dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(bom); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
