package s2_signals

import (
	"sort"

	"github.com/wonny/propick/internal/contracts"
)

// NeutralRank is returned for every row when a column has no usable value
const NeutralRank = 0.5

// PercentileRank converts a raw column into [0,1] ranks, index-aligned with values.
//
//   - non-finite and missing cells are imputed with the median of the present cells
//   - lower-is-better columns are negated before ranking
//   - ties share the average of the positions they occupy; rank = position / N
//
// 모든 값이 결측이면 전 종목 0.5 (NaN 전파 방지)
func PercentileRank(values []contracts.Num, higherIsBetter bool) []float64 {
	n := len(values)
	ranks := make([]float64, n)
	if n == 0 {
		return ranks
	}

	present := make([]float64, 0, n)
	for _, v := range values {
		if v.Valid() {
			present = append(present, v.V)
		}
	}
	if len(present) == 0 {
		for i := range ranks {
			ranks[i] = NeutralRank
		}
		return ranks
	}

	med := median(present)
	filled := make([]float64, n)
	for i, v := range values {
		x := v.Or(med)
		if !higherIsBetter {
			x = -x
		}
		filled[i] = x
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return filled[order[a]] < filled[order[b]]
	})

	for start := 0; start < n; {
		end := start
		for end+1 < n && filled[order[end+1]] == filled[order[start]] {
			end++
		}
		// 1-based positions start+1 .. end+1
		avg := float64(start+end+2) / 2
		for k := start; k <= end; k++ {
			ranks[order[k]] = avg / float64(n)
		}
		start = end + 1
	}

	return ranks
}

// median of a non-empty slice; averages the two middle values for even counts
func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
