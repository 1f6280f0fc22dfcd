package s2_signals

import (
	"fmt"
	"strings"

	"github.com/wonny/propick/internal/contracts"
)

const (
	trillion = 1_000_000_000_000

	strongStyle = 70.0
)

// CapBucket classifies market capitalization in 조 (1e12 KRW)
func CapBucket(marcap contracts.Num) string {
	if !marcap.Valid() {
		return "알수없음"
	}
	switch v := marcap.V; {
	case v >= 10*trillion:
		return "초대형주(10조↑)"
	case v >= 5*trillion:
		return "대형주(5~10조)"
	case v >= 1*trillion:
		return "중형주(1~5조)"
	default:
		return "소형주(1조↓)"
	}
}

// RiskBucket classifies a risk score in [0,100]
func RiskBucket(risk float64) string {
	switch {
	case risk <= 33:
		return "저위험"
	case risk <= 66:
		return "중위험"
	default:
		return "고위험"
	}
}

// Style is the dominant of value/quality/momentum, checked in value, momentum,
// quality order so equal scores resolve the same way every time.
func Style(r *contracts.ScoredRecord) string {
	v, q, m := r.ValueScore, r.QualityScore, r.MomentumScore
	best := max(v, q, m)

	switch best {
	case v:
		if v >= strongStyle {
			return "가치주"
		}
		return "밸류/균형형"
	case m:
		if m >= strongStyle {
			return "모멘텀주"
		}
		return "모멘텀/균형형"
	default:
		if q >= strongStyle {
			return "퀄리티/배당주"
		}
		return "퀄리티/균형형"
	}
}

// Label attaches rank and descriptive labels to an already ordered slice
func Label(rows []contracts.ScoredRecord) []contracts.LabeledRecord {
	out := make([]contracts.LabeledRecord, len(rows))
	for i := range rows {
		out[i] = contracts.LabeledRecord{
			ScoredRecord: rows[i],
			Rank:         i + 1,
			CapBucket:    CapBucket(rows[i].MarketCap),
			RiskBucket:   RiskBucket(rows[i].RiskScore),
			Style:        Style(&rows[i]),
		}
	}
	return out
}

// Comment renders the analyst-style multi-line summary of one stock
func Comment(r *contracts.ScoredRecord) string {
	var b strings.Builder
	line := func(format string, args ...interface{}) {
		b.WriteString("\n")
		fmt.Fprintf(&b, format, args...)
	}

	fmt.Fprintf(&b, "[%s(%s) / %s] 종합점수 %.1f점", r.Name, r.Ticker, r.Market, r.TotalScore)

	if marcap := r.MarketCap; marcap.Valid() {
		tier := "중소형주"
		switch {
		case marcap.V >= 5*trillion:
			tier = "대형주"
		case marcap.V >= 1*trillion:
			tier = "중대형주"
		}
		line("- 시가총액 %.2f조: %s", marcap.V/trillion, tier)
	}

	if per := r.PER; per.Valid() && per.V > 0 {
		switch {
		case per.V < 10:
			line("- PER %.1f배: 이익 대비 저평가 구간", per.V)
		case per.V > 30:
			line("- PER %.1f배: 이익 대비 고평가 구간 가능성", per.V)
		default:
			line("- PER %.1f배: 적정~보통 밸류에이션", per.V)
		}
	} else {
		line("- PER 데이터가 없거나 적자 상태")
	}

	if pbr := r.PBR; pbr.Valid() {
		switch {
		case pbr.V < 1:
			line("- PBR %.2f배: 장부가 대비 저평가(1배 미만)", pbr.V)
		case pbr.V > 3:
			line("- PBR %.2f배: 장부가 대비 프리미엄 구간", pbr.V)
		default:
			line("- PBR %.2f배: 보통 수준", pbr.V)
		}
	}

	if div := r.DIV; div.Valid() {
		switch {
		case div.V >= 4:
			line("- 배당수익률 %.1f%%: 배당 매력 높음", div.V)
		case div.V > 0:
			line("- 배당수익률 %.1f%%: 배당 지급 중", div.V)
		default:
			line("- 배당 없음 또는 매우 낮음")
		}
	}

	if mom := r.Mom12; mom.Valid() {
		switch {
		case mom.V > 30:
			line("- 12개월 수익률 %.1f%%: 강한 상승 추세", mom.V)
		case mom.V < -20:
			line("- 12개월 수익률 %.1f%%: 뚜렷한 하락 추세", mom.V)
		default:
			line("- 12개월 수익률 %.1f%%: 중립~보통 수준", mom.V)
		}
	}

	if mom := r.Mom3; mom.Valid() {
		switch {
		case mom.V > 15:
			line("- 3개월 수익률 %.1f%%: 단기 모멘텀 양호", mom.V)
		case mom.V < -10:
			line("- 3개월 수익률 %.1f%%: 단기 조정 국면", mom.V)
		default:
			line("- 3개월 수익률 %.1f%%: 단기 움직임 크지 않음", mom.V)
		}
	}

	return b.String()
}
