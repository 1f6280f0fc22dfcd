package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/propick/internal/contracts"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{100_000_000, "100,000,000"},
		{-1234567, "-1,234,567"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, money(tt.in))
	}
}

func TestRankingTable(t *testing.T) {
	rows := []contracts.LabeledRecord{{
		ScoredRecord: contracts.ScoredRecord{
			Instrument: contracts.Instrument{
				Ticker:    "005930",
				Name:      "삼성전자",
				Market:    contracts.MarketKOSPI,
				MarketCap: contracts.Some(4.5e14),
				PER:       contracts.Some(12.34),
			},
			TotalScore: 71.46,
		},
		Rank:  1,
		Style: "가치주",
	}}

	var buf bytes.Buffer
	require.NoError(t, RankingTable(&buf, "가치주 중심 추천주", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), rows))

	out := buf.String()
	assert.Contains(t, out, "20240401 기준 가치주 중심 추천주 상위 1 종목")
	assert.Contains(t, out, "005930")
	assert.Contains(t, out, "4500000.0")
	assert.Contains(t, out, "12.34")
	assert.Contains(t, out, "71.5")
}

func TestComments(t *testing.T) {
	rows := []contracts.LabeledRecord{{
		ScoredRecord: contracts.ScoredRecord{
			Instrument: contracts.Instrument{Ticker: "000001", Name: "테스트", Market: contracts.MarketKOSDAQ},
		},
	}}

	var buf bytes.Buffer
	Comments(&buf, "모멘텀 추세 추종 추천주", rows)
	assert.Contains(t, buf.String(), "[1] ---")
	assert.Contains(t, buf.String(), "테스트(000001)")
}

func TestBacktestSummary(t *testing.T) {
	d := func(s string) time.Time {
		v, _ := time.Parse("20060102", s)
		return v
	}
	report := &contracts.BacktestReport{
		RunID:          "run-1",
		InitialCapital: 100_000_000,
		FinalEquity:    104_500_000,
		TotalReturn:    0.045,
		MaxDrawdown:    -0.05,
		WinRate:        0.5,
		StartDate:      d("20240102"),
		EndDate:        d("20240301"),
		Days:           59,
		PeriodCount:    1,
		Periods: []contracts.PeriodRecord{
			{Start: d("20240102"), End: d("20240301"), Return: 0.045, EquityAfter: 104_500_000, Positions: 30},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, BacktestSummary(&buf, report))

	out := buf.String()
	assert.Contains(t, out, "104,500,000")
	assert.Contains(t, out, "4.50%")
	assert.Contains(t, out, "-5.00%")
	assert.Contains(t, out, "20240102 ~ 20240301 (59일)")
}
