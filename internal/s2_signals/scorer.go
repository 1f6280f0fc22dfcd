package s2_signals

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/logger"
)

var (
	// ErrInvalidWeights is returned when factor weights do not sum to 1
	ErrInvalidWeights = errors.New("factor weights must sum to 1")

	// ErrMissingColumn is returned when the attribute table lacks a required column
	ErrMissingColumn = errors.New("attribute table is missing a required column")
)

// WeightTolerance is the allowed deviation of the weight sum from 1.0
const WeightTolerance = 1e-6

// RequiredColumns are the raw columns the scorer reads
var RequiredColumns = []contracts.Column{
	contracts.ColPER, contracts.ColPBR, contracts.ColDIV,
	contracts.ColEPS, contracts.ColBPS,
	contracts.ColMarketCap, contracts.ColTradingValue,
	contracts.ColMom3, contracts.ColMom12,
}

// Weights are the total-score weights of the four subscores
type Weights struct {
	Value    float64
	Quality  float64
	Momentum float64
	LowRisk  float64 // applied to (100 - risk_score)
}

// DefaultWeights returns 0.40 / 0.25 / 0.25 / 0.10
func DefaultWeights() Weights {
	return Weights{Value: 0.40, Quality: 0.25, Momentum: 0.25, LowRisk: 0.10}
}

// Validate rejects weights whose sum is not 1 within WeightTolerance.
// Weights are never silently normalized.
func (w Weights) Validate() error {
	sum := w.Value + w.Quality + w.Momentum + w.LowRisk
	if math.IsNaN(sum) || math.Abs(sum-1.0) > WeightTolerance {
		return fmt.Errorf("%w: got %.6f", ErrInvalidWeights, sum)
	}
	return nil
}

// Scorer computes value/quality/momentum/risk subscores and the total score
// ⭐ SSOT: 팩터 점수 계산은 여기서만
type Scorer struct {
	provider contracts.AttributeProvider
	weights  Weights
	logger   *logger.Logger
}

// NewScorer validates weights and creates a scorer
func NewScorer(provider contracts.AttributeProvider, weights Weights, log *logger.Logger) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{provider: provider, weights: weights, logger: log}, nil
}

// Score fetches the attribute table as of asOf and scores it.
// Provider errors are returned as-is (wrapped); they are fatal for this date.
func (s *Scorer) Score(ctx context.Context, asOf time.Time) (*contracts.ScoredTable, error) {
	table, err := s.provider.GetAttributes(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("get attributes %s: %w", asOf.Format("20060102"), err)
	}

	scored, err := ScoreTable(table, s.weights)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"as_of": asOf.Format("20060102"),
		"rows":  scored.Len(),
	}).Debug("Scored attribute table")

	return scored, nil
}

// ScoreTable is the pure scoring function. Output rows keep input order and
// cardinality; per-row gaps are handled by PercentileRank, never by dropping rows.
func ScoreTable(table *contracts.AttributeTable, w Weights) (*contracts.ScoredTable, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if missing := table.MissingColumns(RequiredColumns...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, contracts.JoinColumns(missing))
	}

	rows := table.Rows
	n := len(rows)
	col := func(get func(*contracts.Instrument) contracts.Num) []contracts.Num {
		out := make([]contracts.Num, n)
		for i := range rows {
			out[i] = get(&rows[i])
		}
		return out
	}
	isZero := func(v float64) bool { return v == 0 }

	// Value
	perRank := PercentileRank(col(func(r *contracts.Instrument) contracts.Num { return r.PER.MissingIf(isZero) }), false)
	pbrRank := PercentileRank(col(func(r *contracts.Instrument) contracts.Num { return r.PBR.MissingIf(isZero) }), false)
	divRank := PercentileRank(col(func(r *contracts.Instrument) contracts.Num { return r.DIV }), true)

	// Quality: EPS/BPS with BPS == 0 as missing. DIV 순위는 같은 규칙으로 별도 계산.
	roeRank := PercentileRank(col(roeProxy), true)
	qualityDivRank := PercentileRank(col(func(r *contracts.Instrument) contracts.Num { return r.DIV }), true)

	// Momentum
	mom3Rank := PercentileRank(col(func(r *contracts.Instrument) contracts.Num { return r.Mom3 }), true)
	mom12Rank := PercentileRank(col(func(r *contracts.Instrument) contracts.Num { return r.Mom12 }), true)

	// Risk: 규모·유동성이 작을수록 높음
	sizeRank := PercentileRank(col(func(r *contracts.Instrument) contracts.Num { return r.MarketCap }), true)
	liqRank := PercentileRank(col(func(r *contracts.Instrument) contracts.Num { return r.TradingValue }), true)

	out := &contracts.ScoredTable{
		AsOf: table.AsOf,
		Rows: make([]contracts.ScoredRecord, n),
	}
	for i := range rows {
		value := (0.5*perRank[i] + 0.3*pbrRank[i] + 0.2*divRank[i]) * 100
		quality := (0.7*roeRank[i] + 0.3*qualityDivRank[i]) * 100
		momentum := (0.4*mom3Rank[i] + 0.6*mom12Rank[i]) * 100
		risk := clamp(1-(0.7*sizeRank[i]+0.3*liqRank[i]), 0, 1) * 100

		out.Rows[i] = contracts.ScoredRecord{
			Instrument:    rows[i],
			ValueScore:    value,
			QualityScore:  quality,
			MomentumScore: momentum,
			RiskScore:     risk,
			TotalScore: w.Value*value +
				w.Quality*quality +
				w.Momentum*momentum +
				w.LowRisk*(100-risk),
		}
	}

	return out, nil
}

// roeProxy is EPS/BPS; missing when either side is missing or BPS is zero
func roeProxy(r *contracts.Instrument) contracts.Num {
	bps := r.BPS.MissingIf(func(v float64) bool { return v == 0 })
	if !r.EPS.Valid() || !bps.Valid() {
		return contracts.Missing()
	}
	return contracts.Some(r.EPS.V / bps.V)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
