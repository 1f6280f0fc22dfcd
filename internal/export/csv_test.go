package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/logger"
)

var stamp = time.Date(2024, 4, 1, 16, 30, 5, 0, time.Local)

func row(ticker string, total float64) contracts.LabeledRecord {
	return contracts.LabeledRecord{
		ScoredRecord: contracts.ScoredRecord{
			Instrument: contracts.Instrument{
				Ticker:       ticker,
				Name:         "종목" + ticker,
				Market:       contracts.MarketKOSPI,
				MarketCap:    contracts.Some(1_234_560_000_000),
				TradingValue: contracts.Some(2.5e9),
				Volume:       contracts.Some(300_000),
				Close:        contracts.Some(41_500),
				PER:          contracts.Some(7.2),
				PBR:          contracts.Missing(),
				DIV:          contracts.Some(3.1),
				Mom3:         contracts.Some(-4.5),
				Mom12:        contracts.Some(22),
			},
			ValueScore:    71.25,
			QualityScore:  40,
			MomentumScore: 55.5,
			RiskScore:     30,
			TotalScore:    total,
		},
		Rank:       1,
		CapBucket:  "중형주(1~5조)",
		RiskBucket: "저위험",
		Style:      "가치주",
	}
}

func TestFileNameRoundTrip(t *testing.T) {
	name := FileName("전략 9 우상향 단기조정 매수후보", stamp)
	assert.Equal(t, "전략 9 우상향 단기조정 매수후보_20240401163005.csv", name)

	id, got, err := ParseFileName(filepath.Join("strategies", name))
	require.NoError(t, err)
	assert.Equal(t, 9, id)
	assert.True(t, stamp.Equal(got))

	_, _, err = ParseFileName("backtest_result_20180101_LATEST.csv")
	assert.Error(t, err)
}

func TestPadTicker(t *testing.T) {
	assert.Equal(t, "000270", PadTicker("270"))
	assert.Equal(t, "005930", PadTicker("005930"))
}

func TestWriteRanking_FormatAndReadBack(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 50, logger.Nop())

	r := row("270", 66.5)
	run := &contracts.RankingRun{Strategy: 2, RefDate: stamp, Rows: []contracts.LabeledRecord{r}}
	path, err := w.WriteRanking(run, stamp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "전략 2 가치주 중심 추천_20240401163005.csv"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "\ufeff종목명,종목코드,시장"))

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "종목270,000270,KOSPI,중형주(1~5조),저위험,가치주,12345.6,2500000000,300000,41500,7.2,,3.1,"))

	file, err := ReadRankingCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, file.Strategy)
	require.Len(t, file.Rows, 1)

	got := file.Rows[0]
	assert.Equal(t, "000270", got.Ticker)
	assert.Equal(t, 1, got.Rank)
	assert.Equal(t, contracts.MarketKOSPI, got.Market)
	assert.InDelta(t, 1_234_560_000_000, got.MarketCap.V, 1)
	assert.False(t, got.PBR.Valid())
	assert.False(t, got.EPS.Valid())
	assert.Equal(t, 7.2, got.PER.V)
	assert.Equal(t, 66.5, got.TotalScore)
	assert.Equal(t, 71.25, got.ValueScore)
	assert.Equal(t, "가치주", got.Style)
}

func TestWriteRanking_MetaStrategyIsCapped(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 3, logger.Nop())

	rows := make([]contracts.LabeledRecord, 5)
	for i := range rows {
		rows[i] = row(fmt.Sprintf("00000%d", i), float64(90-i))
	}

	path, err := w.WriteRanking(&contracts.RankingRun{Strategy: 14, Rows: rows}, stamp)
	require.NoError(t, err)
	file, err := ReadRankingCSV(path)
	require.NoError(t, err)
	assert.Len(t, file.Rows, 3)

	path, err = w.WriteRanking(&contracts.RankingRun{Strategy: 1, Rows: rows}, stamp)
	require.NoError(t, err)
	file, err = ReadRankingCSV(path)
	require.NoError(t, err)
	assert.Len(t, file.Rows, 5)
	assert.Equal(t, 5, file.Rows[4].Rank)

	assert.Len(t, w.Limit(14, rows), 3)
	assert.Len(t, w.Limit(1, rows), 5)
	assert.Len(t, w.Limit(99, rows), 5)
}

func TestWriteRanking_UnknownStrategy(t *testing.T) {
	w := NewWriter(t.TempDir(), 50, logger.Nop())
	_, err := w.WriteRanking(&contracts.RankingRun{Strategy: 15}, stamp)
	assert.Error(t, err)
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 50, logger.Nop())

	for _, id := range []int{3, 1} {
		_, err := w.WriteRanking(&contracts.RankingRun{Strategy: id}, stamp)
		require.NoError(t, err)
	}
	_, err := w.WriteRanking(&contracts.RankingRun{Strategy: 2}, stamp.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes_20240401.csv"), []byte("x"), 0o644))

	files, err := ListFiles(dir, stamp)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Contains(t, files[0], "전략 1 ")
	assert.Contains(t, files[1], "전략 3 ")
}

func TestWriteBacktest(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 50, logger.Nop())

	d := func(s string) time.Time {
		v, _ := time.Parse("20060102", s)
		return v
	}
	report := &contracts.BacktestReport{
		RunID: "run-1",
		Periods: []contracts.PeriodRecord{
			{Start: d("20240102"), End: d("20240201"), Return: 0.1, EquityAfter: 110, Positions: 30},
		},
	}

	path, err := w.WriteBacktest(report, "20180101", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backtest_result_20180101_LATEST.csv"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\ufeffrebalance_date,next_date,period_return,equity,num_positions\n20240102,20240201,0.1,110,30\n", string(raw))
}

func TestMD5(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", MD5Hex(nil))

	path := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))
	sum, err := FileMD5(path)
	require.NoError(t, err)
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", sum)

	_, err = FileMD5(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
