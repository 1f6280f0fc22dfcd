package selection

import (
	"errors"
	"fmt"

	"github.com/wonny/propick/internal/contracts"
)

// ErrUnknownStrategy is returned for ids outside 1..14
var ErrUnknownStrategy = errors.New("unknown strategy id")

const (
	// MetaStrategyID merges the candidates of strategies 2..13
	MetaStrategyID = 14

	trillion = 1_000_000_000_000
)

// Predicate reports whether a base-set row passes a strategy.
// minTV is the configured minimum trading value (some strategies scale it).
type Predicate func(r *contracts.ScoredRecord, minTV float64) bool

// Strategy is one declarative screen
type Strategy struct {
	ID     int
	Prefix string // 파일명 접두어
	Title  string // 화면 표시용
	Match  Predicate
}

// IsMeta reports whether this is the merged strategy 14
func (s Strategy) IsMeta() bool {
	return s.ID == MetaStrategyID
}

func ge(n contracts.Num, x float64) bool { return n.Valid() && n.V >= x }
func gt(n contracts.Num, x float64) bool { return n.Valid() && n.V > x }
func le(n contracts.Num, x float64) bool { return n.Valid() && n.V <= x }
func lt(n contracts.Num, x float64) bool { return n.Valid() && n.V < x }

func between(n contracts.Num, lo, hi float64) bool { return ge(n, lo) && le(n, hi) }

func inRange(v, lo, hi float64) bool { return v >= lo && v <= hi }

// strategies is indexed by id-1. 임계값은 고정 설정값이다.
var strategies = [...]Strategy{
	{1, "전략 1 멀티팩터 균형형 추천", "멀티팩터 균형형 추천주",
		func(r *contracts.ScoredRecord, _ float64) bool { return true }},
	{2, "전략 2 가치주 중심 추천", "가치주 중심 추천주",
		func(r *contracts.ScoredRecord, _ float64) bool { return r.ValueScore >= 60 }},
	{3, "전략 3 퀄리티 배당주 추천", "퀄리티/배당주 추천주",
		func(r *contracts.ScoredRecord, _ float64) bool { return r.QualityScore >= 60 }},
	{4, "전략 4 모멘텀 추세 추종 추천", "모멘텀 추세 추종 추천주",
		func(r *contracts.ScoredRecord, _ float64) bool { return gt(r.Mom12, 0) }},
	{5, "전략 5 저위험 대형주 방어형 추천", "저위험 대형주 방어형 추천주",
		func(r *contracts.ScoredRecord, _ float64) bool {
			return ge(r.MarketCap, 5*trillion) && r.RiskScore <= 40
		}},
	{6, "전략 6 소형주 하이모멘텀 스윙 추천", "소형주 하이모멘텀 스윙 추천주",
		func(r *contracts.ScoredRecord, _ float64) bool {
			return lt(r.MarketCap, 5*trillion) && r.MomentumScore >= 60
		}},
	{7, "전략 7 고배당 방어형 추천", "고배당 방어형 추천주",
		func(r *contracts.ScoredRecord, _ float64) bool {
			return ge(r.DIV, 3.0) && r.RiskScore <= 60 && ge(r.MarketCap, 1*trillion)
		}},
	{8, "전략 8 딥밸류 리레이팅 기대주", "딥밸류 리레이팅 기대주",
		func(r *contracts.ScoredRecord, _ float64) bool {
			return r.ValueScore >= 60 && ge(r.Mom12, 0)
		}},
	{9, "전략 9 우상향 단기조정 매수후보", "우상향 중 단기조정 매수후보",
		func(r *contracts.ScoredRecord, _ float64) bool {
			return ge(r.Mom12, 20) && le(r.Mom3, 0)
		}},
	{10, "전략 10 퀄리티 성장 모멘텀주", "퀄리티 성장 모멘텀주",
		func(r *contracts.ScoredRecord, _ float64) bool {
			return r.QualityScore >= 70 && r.MomentumScore >= 60
		}},
	{11, "전략 11 단기 스캘핑 1% 타겟", "단기 스캘핑 1% 타겟후보",
		func(r *contracts.ScoredRecord, minTV float64) bool {
			return ge(r.TradingValue, minTV*3) &&
				between(r.Mom3, 5, 40) &&
				inRange(r.RiskScore, 40, 80)
		}},
	{12, "전략 12 단기 스캘핑 고확률", "단기 스캘핑 고확률후보",
		func(r *contracts.ScoredRecord, minTV float64) bool {
			return ge(r.TradingValue, minTV*5) &&
				between(r.Mom12, 10, 60) &&
				between(r.Mom3, 3, 25) &&
				inRange(r.RiskScore, 20, 60) &&
				r.QualityScore >= 50
		}},
	{13, "전략 13 단기 눌림목 매수", "단기 눌림목 매수후보",
		// 12개월 우상향 + 3개월 적당한 조정 + 중간 리스크 + 강화 유동성
		func(r *contracts.ScoredRecord, minTV float64) bool {
			return ge(r.TradingValue, minTV*2) &&
				between(r.Mom12, 15, 80) &&
				between(r.Mom3, -15, 5) &&
				inRange(r.RiskScore, 20, 70)
		}},
	{14, "전략 14 오늘 최적 종합 추천", "오늘 최적 종합 추천주", nil},
}

// Lookup returns the strategy with the given id
func Lookup(id int) (Strategy, error) {
	if id < 1 || id > len(strategies) {
		return Strategy{}, fmt.Errorf("%w: %d (expected 1..%d)", ErrUnknownStrategy, id, len(strategies))
	}
	return strategies[id-1], nil
}

// All returns every strategy in id order
func All() []Strategy {
	out := make([]Strategy, len(strategies))
	copy(out, strategies[:])
	return out
}

// MetaSources are the strategies merged by strategy 14, in merge order
func MetaSources() []int {
	return []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}
}
