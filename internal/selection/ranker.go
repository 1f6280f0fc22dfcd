package selection

import (
	"sort"

	"github.com/wonny/propick/internal/contracts"
)

// sortByTotal orders rows by total_score descending; equal scores keep input order
func sortByTotal(rows []contracts.ScoredRecord) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalScore > rows[j].TotalScore
	})
}

// sortByVolumeThenTotal orders rows by volume descending, then total_score
// descending. Missing volume sorts last.
func sortByVolumeThenTotal(rows []contracts.ScoredRecord) {
	sort.SliceStable(rows, func(i, j int) bool {
		vi, vj := rows[i].Volume, rows[j].Volume
		switch {
		case vi.Valid() && !vj.Valid():
			return true
		case !vi.Valid() && vj.Valid():
			return false
		case vi.Valid() && vi.V != vj.V:
			return vi.V > vj.V
		}
		return rows[i].TotalScore > rows[j].TotalScore
	})
}

// head returns at most n leading rows
func head(rows []contracts.ScoredRecord, n int) []contracts.ScoredRecord {
	if n >= 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}

// TopByTotal returns the n highest total_score rows of a copy of rows
func TopByTotal(rows []contracts.ScoredRecord, n int) []contracts.ScoredRecord {
	sorted := append([]contracts.ScoredRecord(nil), rows...)
	sortByTotal(sorted)
	return head(sorted, n)
}
