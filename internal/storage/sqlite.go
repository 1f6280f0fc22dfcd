package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/logger"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS stock_rankings (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    strategy_number INTEGER NOT NULL,
    strategy_name   TEXT    NOT NULL,
    ref_date        TEXT    NOT NULL,
    rank_no         INTEGER NOT NULL,
    ticker          TEXT    NOT NULL,
    name            TEXT    NOT NULL DEFAULT '',
    market          TEXT    NOT NULL DEFAULT '',
    cap_bucket      TEXT    NOT NULL DEFAULT '',
    risk_bucket     TEXT    NOT NULL DEFAULT '',
    style           TEXT    NOT NULL DEFAULT '',
    market_cap_eok  REAL,
    trading_value   REAL,
    total_score     REAL    NOT NULL,
    value_score     REAL    NOT NULL,
    quality_score   REAL    NOT NULL,
    momentum_score  REAL    NOT NULL,
    risk_score      REAL    NOT NULL,
    per             REAL,
    pbr             REAL,
    div_yield       REAL,
    mom_3m          REAL,
    mom_12m         REAL,
    storage_path    TEXT    NOT NULL DEFAULT '',
    file_hash       TEXT    NOT NULL DEFAULT '',
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_rankings_strategy_date ON stock_rankings(strategy_number, ref_date);
CREATE INDEX IF NOT EXISTS idx_rankings_hash          ON stock_rankings(file_hash);

CREATE TABLE IF NOT EXISTS backtest_runs (
    run_id            TEXT PRIMARY KEY,
    strategy_id       INTEGER NOT NULL,
    top_n             INTEGER NOT NULL,
    min_trading_value REAL    NOT NULL,
    initial_capital   REAL    NOT NULL,
    start_date        TEXT    NOT NULL,
    end_date          TEXT    NOT NULL,
    days              INTEGER NOT NULL,
    final_equity      REAL    NOT NULL,
    total_return      REAL    NOT NULL,
    cagr              REAL,
    max_drawdown      REAL    NOT NULL,
    win_rate          REAL    NOT NULL,
    period_count      INTEGER NOT NULL,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS backtest_periods (
    run_id        TEXT    NOT NULL REFERENCES backtest_runs(run_id),
    seq           INTEGER NOT NULL,
    start_date    TEXT    NOT NULL,
    end_date      TEXT    NOT NULL,
    period_return REAL    NOT NULL,
    equity_after  REAL    NOT NULL,
    num_positions INTEGER NOT NULL,
    PRIMARY KEY (run_id, seq)
);
`

// SQLiteStore is the local Store (pure Go, no CGo)
type SQLiteStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewSQLiteStore opens (or creates) the database at path
func NewSQLiteStore(path string, log *logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite는 single-writer
	db.SetMaxIdleConns(1)

	return &SQLiteStore{db: db, logger: log}, nil
}

// Migrate applies the schema
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("storage.SQLiteStore: apply schema: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRanking replaces the rows of (strategy, ref_date) in one transaction
func (s *SQLiteStore) SaveRanking(ctx context.Context, run *contracts.RankingRun) error {
	records := RecordsFromRun(run)
	refDate := run.RefDate.Format(DateLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRanking: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteRankingSQL, run.Strategy, refDate); err != nil {
		return fmt.Errorf("storage.SaveRanking: delete previous: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertRankingSQL)
	if err != nil {
		return fmt.Errorf("storage.SaveRanking: prepare: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		if _, err := stmt.ExecContext(ctx, rankingArgs(&records[i])...); err != nil {
			return fmt.Errorf("storage.SaveRanking: insert %s: %w", records[i].Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRanking: commit: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"strategy": run.Strategy,
		"ref_date": refDate,
		"rows":     len(records),
	}).Debug("Ranking saved")
	return nil
}

// SaveBacktest stores the run summary and its periods
func (s *SQLiteStore) SaveBacktest(ctx context.Context, report *contracts.BacktestReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktest: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertBacktestRunSQL, backtestRunArgs(report)...); err != nil {
		return fmt.Errorf("storage.SaveBacktest: insert run: %w", err)
	}

	for i, p := range report.Periods {
		if _, err := tx.ExecContext(ctx, insertBacktestPeriodSQL, backtestPeriodArgs(report.RunID, i, p)...); err != nil {
			return fmt.Errorf("storage.SaveBacktest: insert period %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveBacktest: commit: %w", err)
	}
	return nil
}

// RankingExists reports whether rows exist for (strategy, refDate)
func (s *SQLiteStore) RankingExists(ctx context.Context, strategy int, refDate time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, rankingExistsSQL, strategy, refDate.Format(DateLayout)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("storage.RankingExists: %w", err)
	}
	return exists, nil
}

// HashExists reports whether a file with this hash was already stored
func (s *SQLiteStore) HashExists(ctx context.Context, fileHash string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, hashExistsSQL, fileHash).Scan(&exists); err != nil {
		return false, fmt.Errorf("storage.HashExists: %w", err)
	}
	return exists, nil
}

// LatestRefDate returns the newest ref_date of a strategy, zero when none
func (s *SQLiteStore) LatestRefDate(ctx context.Context, strategy int) (time.Time, error) {
	var refDate string
	if err := s.db.QueryRowContext(ctx, latestRefDateSQL, strategy).Scan(&refDate); err != nil {
		return time.Time{}, fmt.Errorf("storage.LatestRefDate: %w", err)
	}
	if refDate == "" {
		return time.Time{}, nil
	}
	return parseDate(refDate)
}

// ListRankings returns the rows of (strategy, refDate) by rank
func (s *SQLiteStore) ListRankings(ctx context.Context, strategy int, refDate time.Time) ([]RankingRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectRankingsSQL, strategy, refDate.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("storage.ListRankings: %w", err)
	}
	defer rows.Close()

	records := make([]RankingRecord, 0)
	for rows.Next() {
		var sc rankingScanner
		if err := rows.Scan(sc.dest()...); err != nil {
			return nil, fmt.Errorf("storage.ListRankings: scan: %w", err)
		}
		records = append(records, sc.record())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.ListRankings: iterate: %w", err)
	}
	return records, nil
}

// GetBacktest loads a run with its periods
func (s *SQLiteStore) GetBacktest(ctx context.Context, runID string) (*contracts.BacktestReport, error) {
	var sc backtestScanner
	err := s.db.QueryRowContext(ctx, selectBacktestRunSQL, runID).Scan(sc.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("backtest %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage.GetBacktest: %w", err)
	}

	report, err := sc.report()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, selectBacktestPeriodsSQL, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetBacktest: periods: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ps periodScanner
		if err := rows.Scan(ps.dest()...); err != nil {
			return nil, fmt.Errorf("storage.GetBacktest: scan period: %w", err)
		}
		period, err := ps.period()
		if err != nil {
			return nil, err
		}
		report.Periods = append(report.Periods, period)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.GetBacktest: iterate: %w", err)
	}
	return report, nil
}
