package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/propick/internal/contracts"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"WHERE a = ?", "WHERE a = $1"},
		{"VALUES (?, ?, ?)", "VALUES ($1, $2, $3)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, rebind(tt.in))
	}

	assert.Contains(t, rebind(insertRankingSQL), "$24)")
	assert.NotContains(t, rebind(insertRankingSQL), "?")
}

func TestToEok(t *testing.T) {
	tests := []struct {
		name string
		won  contracts.Num
		want contracts.Num
	}{
		{"rounds to 0.1", contracts.Some(123_456_000_000), contracts.Some(1234.6)},
		{"small", contracts.Some(4e7), contracts.Some(0.4)},
		{"missing stays missing", contracts.Missing(), contracts.Missing()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToEok(tt.won)
			assert.Equal(t, tt.want.Valid(), got.Valid())
			if tt.want.Valid() {
				assert.InDelta(t, tt.want.V, got.V, 1e-9)
			}
		})
	}
}

func TestRecordsFromRun(t *testing.T) {
	run := &contracts.RankingRun{
		Strategy:     2,
		StrategyName: "가치주 전략",
		RefDate:      time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		StoragePath:  "20240401/strategy_2.csv",
		FileHash:     "abc",
		Rows: []contracts.LabeledRecord{
			{
				ScoredRecord: contracts.ScoredRecord{
					Instrument: contracts.Instrument{
						Ticker:    "005930",
						Name:      "삼성전자",
						Market:    contracts.MarketKOSPI,
						MarketCap: contracts.Some(4.5e14),
						PER:       contracts.Some(12.3),
						PBR:       contracts.Missing(),
					},
					TotalScore: 71.5,
				},
				Rank:      1,
				CapBucket: "대형주",
			},
		},
	}

	records := RecordsFromRun(run)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, 2, r.StrategyNumber)
	assert.Equal(t, "20240401", r.RefDate)
	assert.Equal(t, 1, r.Rank)
	assert.Equal(t, "KOSPI", r.Market)
	assert.InDelta(t, 4_500_000.0, r.MarketCapEok.V, 1e-9)
	assert.Equal(t, 12.3, r.PER.V)
	assert.False(t, r.PBR.Valid())
	assert.Equal(t, "abc", r.FileHash)
	assert.Equal(t, "20240401/strategy_2.csv", r.StoragePath)
}
