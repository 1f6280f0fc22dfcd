package contracts

import "time"

// ScoredRecord is an Instrument with its derived factor scores
type ScoredRecord struct {
	Instrument

	ValueScore    float64 `json:"value_score"`
	QualityScore  float64 `json:"quality_score"`
	MomentumScore float64 `json:"momentum_score"`
	RiskScore     float64 `json:"risk_score"` // 높을수록 소형·저유동성
	TotalScore    float64 `json:"total_score"`
}

// ScoredTable is the scorer output for one date, in provider row order
type ScoredTable struct {
	AsOf time.Time      `json:"as_of"`
	Rows []ScoredRecord `json:"rows"`
}

// Len returns the number of rows
func (t *ScoredTable) Len() int {
	return len(t.Rows)
}

// LabeledRecord adds the descriptive labels attached to published rankings
type LabeledRecord struct {
	ScoredRecord

	Rank       int    `json:"rank"` // 1-based
	CapBucket  string `json:"cap_bucket"`
	RiskBucket string `json:"risk_bucket"`
	Style      string `json:"style"`
}

// RankingRun is one strategy's published ranking
// ⭐ SSOT: 전략 결과 → Result Sink 전달
type RankingRun struct {
	Strategy     int             `json:"strategy"`
	StrategyName string          `json:"strategy_name"`
	RefDate      time.Time       `json:"ref_date"`
	Rows         []LabeledRecord `json:"rows"`
	StoragePath  string          `json:"storage_path,omitempty"`
	FileHash     string          `json:"file_hash,omitempty"`
}

// PricePoint is one daily close
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}
