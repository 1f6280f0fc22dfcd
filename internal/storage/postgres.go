package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/database"
	"github.com/wonny/propick/pkg/logger"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS stock_rankings (
    id              BIGSERIAL PRIMARY KEY,
    strategy_number INTEGER          NOT NULL,
    strategy_name   TEXT             NOT NULL,
    ref_date        TEXT             NOT NULL,
    rank_no         INTEGER          NOT NULL,
    ticker          TEXT             NOT NULL,
    name            TEXT             NOT NULL DEFAULT '',
    market          TEXT             NOT NULL DEFAULT '',
    cap_bucket      TEXT             NOT NULL DEFAULT '',
    risk_bucket     TEXT             NOT NULL DEFAULT '',
    style           TEXT             NOT NULL DEFAULT '',
    market_cap_eok  DOUBLE PRECISION,
    trading_value   DOUBLE PRECISION,
    total_score     DOUBLE PRECISION NOT NULL,
    value_score     DOUBLE PRECISION NOT NULL,
    quality_score   DOUBLE PRECISION NOT NULL,
    momentum_score  DOUBLE PRECISION NOT NULL,
    risk_score      DOUBLE PRECISION NOT NULL,
    per             DOUBLE PRECISION,
    pbr             DOUBLE PRECISION,
    div_yield       DOUBLE PRECISION,
    mom_3m          DOUBLE PRECISION,
    mom_12m         DOUBLE PRECISION,
    storage_path    TEXT             NOT NULL DEFAULT '',
    file_hash       TEXT             NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ      NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_rankings_strategy_date ON stock_rankings(strategy_number, ref_date);
CREATE INDEX IF NOT EXISTS idx_rankings_hash          ON stock_rankings(file_hash);

CREATE TABLE IF NOT EXISTS backtest_runs (
    run_id            TEXT PRIMARY KEY,
    strategy_id       INTEGER          NOT NULL,
    top_n             INTEGER          NOT NULL,
    min_trading_value DOUBLE PRECISION NOT NULL,
    initial_capital   DOUBLE PRECISION NOT NULL,
    start_date        TEXT             NOT NULL,
    end_date          TEXT             NOT NULL,
    days              INTEGER          NOT NULL,
    final_equity      DOUBLE PRECISION NOT NULL,
    total_return      DOUBLE PRECISION NOT NULL,
    cagr              DOUBLE PRECISION,
    max_drawdown      DOUBLE PRECISION NOT NULL,
    win_rate          DOUBLE PRECISION NOT NULL,
    period_count      INTEGER          NOT NULL,
    created_at        TIMESTAMPTZ      NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS backtest_periods (
    run_id        TEXT             NOT NULL REFERENCES backtest_runs(run_id) ON DELETE CASCADE,
    seq           INTEGER          NOT NULL,
    start_date    TEXT             NOT NULL,
    end_date      TEXT             NOT NULL,
    period_return DOUBLE PRECISION NOT NULL,
    equity_after  DOUBLE PRECISION NOT NULL,
    num_positions INTEGER          NOT NULL,
    PRIMARY KEY (run_id, seq)
);
`

// PostgresStore implements Store over pgxpool
// ⭐ SSOT: 랭킹/백테스트 저장은 여기서만 (Postgres)
type PostgresStore struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPostgresStore creates a new Postgres store
func NewPostgresStore(db *database.DB, log *logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: log}
}

// Migrate applies the schema
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the pool
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// SaveRanking replaces the rows of (strategy, ref_date) in one transaction
func (s *PostgresStore) SaveRanking(ctx context.Context, run *contracts.RankingRun) error {
	records := RecordsFromRun(run)
	refDate := run.RefDate.Format(DateLayout)

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, rebind(deleteRankingSQL), run.Strategy, refDate); err != nil {
		return fmt.Errorf("delete previous ranking: %w", err)
	}

	batch := &pgx.Batch{}
	insert := rebind(insertRankingSQL)
	for i := range records {
		batch.Queue(insert, rankingArgs(&records[i])...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert ranking rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"strategy": run.Strategy,
		"ref_date": refDate,
		"rows":     len(records),
	}).Debug("Ranking saved")
	return nil
}

// SaveBacktest stores the run summary and its periods
func (s *PostgresStore) SaveBacktest(ctx context.Context, report *contracts.BacktestReport) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(rebind(insertBacktestRunSQL), backtestRunArgs(report)...)
	insert := rebind(insertBacktestPeriodSQL)
	for i, p := range report.Periods {
		batch.Queue(insert, backtestPeriodArgs(report.RunID, i, p)...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert backtest %s: %w", report.RunID, err)
	}

	return tx.Commit(ctx)
}

// RankingExists reports whether rows exist for (strategy, refDate)
func (s *PostgresStore) RankingExists(ctx context.Context, strategy int, refDate time.Time) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, rebind(rankingExistsSQL), strategy, refDate.Format(DateLayout)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query ranking exists: %w", err)
	}
	return exists, nil
}

// HashExists reports whether a file with this hash was already stored
func (s *PostgresStore) HashExists(ctx context.Context, fileHash string) (bool, error) {
	var exists bool
	if err := s.db.Pool.QueryRow(ctx, rebind(hashExistsSQL), fileHash).Scan(&exists); err != nil {
		return false, fmt.Errorf("query hash exists: %w", err)
	}
	return exists, nil
}

// LatestRefDate returns the newest ref_date of a strategy, zero when none
func (s *PostgresStore) LatestRefDate(ctx context.Context, strategy int) (time.Time, error) {
	var refDate string
	if err := s.db.Pool.QueryRow(ctx, rebind(latestRefDateSQL), strategy).Scan(&refDate); err != nil {
		return time.Time{}, fmt.Errorf("query latest ref date: %w", err)
	}
	if refDate == "" {
		return time.Time{}, nil
	}
	return parseDate(refDate)
}

// ListRankings returns the rows of (strategy, refDate) by rank
func (s *PostgresStore) ListRankings(ctx context.Context, strategy int, refDate time.Time) ([]RankingRecord, error) {
	rows, err := s.db.Pool.Query(ctx, rebind(selectRankingsSQL), strategy, refDate.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	defer rows.Close()

	records := make([]RankingRecord, 0)
	for rows.Next() {
		var sc rankingScanner
		if err := rows.Scan(sc.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, sc.record())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

// GetBacktest loads a run with its periods
func (s *PostgresStore) GetBacktest(ctx context.Context, runID string) (*contracts.BacktestReport, error) {
	var sc backtestScanner
	err := s.db.Pool.QueryRow(ctx, rebind(selectBacktestRunSQL), runID).Scan(sc.dest()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("backtest %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest run: %w", err)
	}

	report, err := sc.report()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.Query(ctx, rebind(selectBacktestPeriodsSQL), runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest periods: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ps periodScanner
		if err := rows.Scan(ps.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		period, err := ps.period()
		if err != nil {
			return nil, err
		}
		report.Periods = append(report.Periods, period)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating periods: %w", err)
	}
	return report, nil
}
