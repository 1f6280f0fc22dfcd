package export

import (
	"fmt"
	"path/filepath"

	"github.com/wonny/propick/internal/contracts"
)

var backtestHeader = []string{"rebalance_date", "next_date", "period_return", "equity", "num_positions"}

// BacktestFileName returns "backtest_result_<start>_<end|LATEST>.csv"
func BacktestFileName(start, end string) string {
	if end == "" {
		end = "LATEST"
	}
	return fmt.Sprintf("backtest_result_%s_%s.csv", start, end)
}

// WriteBacktest saves the period table of a run. start/end are the
// requested range labels, not the resolved checkpoints.
func (w *Writer) WriteBacktest(report *contracts.BacktestReport, start, end string) (string, error) {
	records := make([][]string, 0, len(report.Periods)+1)
	records = append(records, backtestHeader)
	for _, p := range report.Periods {
		records = append(records, []string{
			p.Start.Format("20060102"),
			p.End.Format("20060102"),
			formatFloat(p.Return),
			formatFloat(p.EquityAfter),
			fmt.Sprint(p.Positions),
		})
	}

	path := filepath.Join(w.dir, BacktestFileName(start, end))
	if err := writeCSV(path, records); err != nil {
		return "", err
	}

	w.logger.WithFields(map[string]interface{}{
		"run_id":  report.RunID,
		"periods": len(report.Periods),
		"path":    path,
	}).Info("Backtest result saved")

	return path, nil
}
