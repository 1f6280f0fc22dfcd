package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/config"
	"github.com/wonny/propick/pkg/database"
	"github.com/wonny/propick/pkg/logger"
)

// ErrNotFound is returned when a requested backtest run does not exist
var ErrNotFound = errors.New("not found")

// DateLayout is the ref_date / period date format stored in every table
const DateLayout = "20060102"

// Store persists rankings and backtests
// ⭐ SSOT: 결과 저장/조회는 이 인터페이스로만
type Store interface {
	contracts.ResultSink

	RankingExists(ctx context.Context, strategy int, refDate time.Time) (bool, error)
	HashExists(ctx context.Context, fileHash string) (bool, error)
	ListRankings(ctx context.Context, strategy int, refDate time.Time) ([]RankingRecord, error)
	LatestRefDate(ctx context.Context, strategy int) (time.Time, error)
	GetBacktest(ctx context.Context, runID string) (*contracts.BacktestReport, error)
	Close() error
}

// RankingRecord is one stock_rankings row
type RankingRecord struct {
	StrategyNumber int    `json:"strategy_number"`
	StrategyName   string `json:"strategy_name"`
	RefDate        string `json:"ref_date"`
	Rank           int    `json:"rank"`

	Ticker     string `json:"ticker"`
	Name       string `json:"name"`
	Market     string `json:"market"`
	CapBucket  string `json:"cap_bucket"`
	RiskBucket string `json:"risk_bucket"`
	Style      string `json:"style"`

	MarketCapEok contracts.Num `json:"market_cap_eok"` // 억원
	TradingValue contracts.Num `json:"trading_value"`  // 원

	TotalScore    float64 `json:"total_score"`
	ValueScore    float64 `json:"value_score"`
	QualityScore  float64 `json:"quality_score"`
	MomentumScore float64 `json:"momentum_score"`
	RiskScore     float64 `json:"risk_score"`

	PER   contracts.Num `json:"per"`
	PBR   contracts.Num `json:"pbr"`
	DIV   contracts.Num `json:"div_yield"`
	Mom3  contracts.Num `json:"mom_3m"`
	Mom12 contracts.Num `json:"mom_12m"`

	StoragePath string `json:"storage_path"`
	FileHash    string `json:"file_hash"`
}

// RecordsFromRun flattens a published ranking into table rows
func RecordsFromRun(run *contracts.RankingRun) []RankingRecord {
	refDate := run.RefDate.Format(DateLayout)
	records := make([]RankingRecord, len(run.Rows))
	for i, r := range run.Rows {
		records[i] = RankingRecord{
			StrategyNumber: run.Strategy,
			StrategyName:   run.StrategyName,
			RefDate:        refDate,
			Rank:           r.Rank,
			Ticker:         r.Ticker,
			Name:           r.Name,
			Market:         string(r.Market),
			CapBucket:      r.CapBucket,
			RiskBucket:     r.RiskBucket,
			Style:          r.Style,
			MarketCapEok:   ToEok(r.MarketCap),
			TradingValue:   r.TradingValue,
			TotalScore:     r.TotalScore,
			ValueScore:     r.ValueScore,
			QualityScore:   r.QualityScore,
			MomentumScore:  r.MomentumScore,
			RiskScore:      r.RiskScore,
			PER:            r.PER,
			PBR:            r.PBR,
			DIV:            r.DIV,
			Mom3:           r.Mom3,
			Mom12:          r.Mom12,
			StoragePath:    run.StoragePath,
			FileHash:       run.FileHash,
		}
	}
	return records
}

// ToEok converts won to 억원 rounded to 0.1
func ToEok(won contracts.Num) contracts.Num {
	if !won.Valid() {
		return won
	}
	return contracts.Some(math.Round(won.V/1e8*10) / 10)
}

// Open picks Postgres when DATABASE_URL is set, SQLite otherwise
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (Store, error) {
	if cfg.UsePostgres() {
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(db, log)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	}

	store, err := NewSQLiteStore(cfg.SQLitePath, log)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// nullFloat maps missing and non-finite values to NULL
func nullFloat(n contracts.Num) sql.NullFloat64 {
	if !n.Valid() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: n.V, Valid: true}
}

func fromNull(n sql.NullFloat64) contracts.Num {
	if !n.Valid {
		return contracts.Missing()
	}
	return contracts.Some(n.Float64)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return t, nil
}
