package s2_signals_test

import (
	"fmt"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/internal/s2_signals"
)

func ExamplePercentileRank() {
	// 동점은 평균 순위를 공유
	per := []contracts.Num{contracts.Some(10), contracts.Some(20), contracts.Some(20), contracts.Some(40)}
	fmt.Println(s2_signals.PercentileRank(per, true))

	// 낮을수록 좋은 지표, 결측은 중앙값으로 대체
	debt := []contracts.Num{contracts.Some(10), contracts.Missing(), contracts.Some(30)}
	for _, r := range s2_signals.PercentileRank(debt, false) {
		fmt.Printf("%.2f\n", r)
	}

	// Output:
	// [0.25 0.625 0.625 1]
	// 1.00
	// 0.67
	// 0.33
}
