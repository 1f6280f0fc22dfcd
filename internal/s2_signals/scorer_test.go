package s2_signals

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/logger"
)

type fakeProvider struct {
	table *contracts.AttributeTable
	err   error
}

func (f *fakeProvider) GetAttributes(ctx context.Context, asOf time.Time) (*contracts.AttributeTable, error) {
	return f.table, f.err
}

func instrument(ticker string, per, pbr, div, eps, bps, marcap, tv, mom3, mom12 float64) contracts.Instrument {
	n := func(v float64) contracts.Num {
		if math.IsNaN(v) {
			return contracts.Missing()
		}
		return contracts.Some(v)
	}
	return contracts.Instrument{
		Ticker: ticker, Name: ticker, Market: contracts.MarketKOSPI,
		PER: n(per), PBR: n(pbr), DIV: n(div), EPS: n(eps), BPS: n(bps),
		MarketCap: n(marcap), TradingValue: n(tv),
		Volume: contracts.Some(1_000_000), Close: contracts.Some(10_000),
		Mom3: n(mom3), Mom12: n(mom12),
	}
}

func table(rows ...contracts.Instrument) *contracts.AttributeTable {
	return &contracts.AttributeTable{
		AsOf:    time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Rows:    rows,
		Columns: contracts.AllColumns,
	}
}

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())

	err := Weights{Value: 0.5, Quality: 0.25, Momentum: 0.25, LowRisk: 0.10}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidWeights))

	_, err = NewScorer(&fakeProvider{}, Weights{}, logger.Nop())
	assert.True(t, errors.Is(err, ErrInvalidWeights))
}

func TestScoreTable_SingleRow(t *testing.T) {
	out, err := ScoreTable(table(instrument("A", 8, 0.9, 2, 100, 1000, 1e12, 1e9, 5, 10)), DefaultWeights())
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)

	r := out.Rows[0]
	assert.InDelta(t, 100, r.ValueScore, 1e-9)
	assert.InDelta(t, 100, r.QualityScore, 1e-9)
	assert.InDelta(t, 100, r.MomentumScore, 1e-9)
	assert.InDelta(t, 0, r.RiskScore, 1e-9)
	assert.InDelta(t, 100, r.TotalScore, 1e-9)
}

func TestScoreTable_TwoRows(t *testing.T) {
	out, err := ScoreTable(table(
		instrument("A", 5, 0.5, 3, 100, 1000, 2e12, 5e9, 10, 20),
		instrument("B", 20, 2, 1, 50, 1000, 1e12, 1e9, -5, 5),
	), DefaultWeights())
	require.NoError(t, err)

	a, b := out.Rows[0], out.Rows[1]
	assert.Equal(t, "A", a.Ticker)
	assert.Equal(t, "B", b.Ticker)

	assert.InDelta(t, 100, a.ValueScore, 1e-9)
	assert.InDelta(t, 50, b.ValueScore, 1e-9)
	assert.InDelta(t, 50, b.QualityScore, 1e-9)
	assert.InDelta(t, 50, b.MomentumScore, 1e-9)

	// risk measures smallness/illiquidity; total uses (100 - risk)
	assert.InDelta(t, 0, a.RiskScore, 1e-9)
	assert.InDelta(t, 50, b.RiskScore, 1e-9)
	assert.InDelta(t, 100, a.TotalScore, 1e-9)
	assert.InDelta(t, 50, b.TotalScore, 1e-9)
}

func TestScoreTable_ZeroPERIsMissing(t *testing.T) {
	nan := math.NaN()
	out, err := ScoreTable(table(
		instrument("A", 0, nan, nan, nan, nan, nan, nan, nan, nan),
		instrument("B", 10, nan, nan, nan, nan, nan, nan, nan, nan),
		instrument("C", 20, nan, nan, nan, nan, nan, nan, nan, nan),
	), DefaultWeights())
	require.NoError(t, err)

	// PER ranks: A imputed to median 15 → 2/3, B → 1, C → 1/3; PBR/DIV neutral 0.5
	assert.InDelta(t, 50*2.0/3+25, out.Rows[0].ValueScore, 1e-9)
	assert.InDelta(t, 75, out.Rows[1].ValueScore, 1e-9)
	assert.InDelta(t, 50.0/3+25, out.Rows[2].ValueScore, 1e-9)

	// every other subscore is neutral
	for _, r := range out.Rows {
		assert.InDelta(t, 50, r.QualityScore, 1e-9)
		assert.InDelta(t, 50, r.MomentumScore, 1e-9)
		assert.InDelta(t, 50, r.RiskScore, 1e-9)
	}
}

func TestScoreTable_ZeroBPSIsMissing(t *testing.T) {
	nan := math.NaN()
	out, err := ScoreTable(table(
		instrument("A", nan, nan, nan, 10, 0, nan, nan, nan, nan),
		instrument("B", nan, nan, nan, 10, 100, nan, nan, nan, nan),
		instrument("C", nan, nan, nan, 30, 100, nan, nan, nan, nan),
	), DefaultWeights())
	require.NoError(t, err)

	for _, r := range out.Rows {
		assert.False(t, math.IsInf(r.QualityScore, 0))
		assert.False(t, math.IsNaN(r.QualityScore))
	}
	// roe: A missing → median 0.2, B 0.1, C 0.3 → ranks 2/3, 1/3, 1
	assert.InDelta(t, (0.7*2.0/3+0.15)*100, out.Rows[0].QualityScore, 1e-9)
	assert.InDelta(t, (0.7/3+0.15)*100, out.Rows[1].QualityScore, 1e-9)
	assert.InDelta(t, (0.7+0.15)*100, out.Rows[2].QualityScore, 1e-9)
}

func TestScoreTable_MissingColumn(t *testing.T) {
	tbl := table(instrument("A", 1, 1, 1, 1, 1, 1, 1, 1, 1))
	tbl.Columns = contracts.AllColumns.Without(contracts.ColMom12)

	_, err := ScoreTable(tbl, DefaultWeights())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "mom_12m")
}

func TestScoreTable_Deterministic(t *testing.T) {
	tbl := table(
		instrument("A", 5, 0.5, 3, 100, 1000, 2e12, 5e9, 10, 20),
		instrument("B", 20, 2, 1, 50, 1000, 1e12, 1e9, -5, 5),
		instrument("C", 12, 1.1, 0, -3, 500, 4e11, 2e8, 1, -30),
	)

	first, err := ScoreTable(tbl, DefaultWeights())
	require.NoError(t, err)
	second, err := ScoreTable(tbl, DefaultWeights())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScorer_Score(t *testing.T) {
	providerErr := errors.New("krx unavailable")
	scorer, err := NewScorer(&fakeProvider{err: providerErr}, DefaultWeights(), logger.Nop())
	require.NoError(t, err)

	_, err = scorer.Score(context.Background(), time.Now())
	assert.True(t, errors.Is(err, providerErr))

	scorer, err = NewScorer(&fakeProvider{table: table(instrument("A", 1, 1, 1, 1, 1, 1, 1, 1, 1))}, DefaultWeights(), logger.Nop())
	require.NoError(t, err)

	out, err := scorer.Score(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())
}
