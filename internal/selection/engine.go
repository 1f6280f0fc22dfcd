package selection

import (
	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/pkg/logger"
)

// Config holds filter engine parameters
type Config struct {
	Gates           Gates
	MetaPerStrategy int // 전략 14: 하위 전략별 상위 N (기본 80)
}

// DefaultConfig returns the built-in gates and a per-strategy cap of 80
func DefaultConfig() Config {
	return Config{Gates: DefaultGates(), MetaPerStrategy: 80}
}

// Result is one strategy's ranked output
type Result struct {
	Strategy Strategy
	Rows     []contracts.ScoredRecord
	Relaxed  bool // 거래대금 조건 제거 후 기본 후보군 구성
}

// Title is the display title of the strategy
func (r *Result) Title() string {
	return r.Strategy.Title
}

// Empty reports whether no candidate survived
func (r *Result) Empty() bool {
	return len(r.Rows) == 0
}

// Engine applies strategies to a scored table
// ⭐ SSOT: 전략 필터링은 여기서만
type Engine struct {
	cfg    Config
	logger *logger.Logger
}

// NewEngine creates a new filter engine
func NewEngine(cfg Config, log *logger.Logger) *Engine {
	if cfg.MetaPerStrategy <= 0 {
		cfg.MetaPerStrategy = 80
	}
	return &Engine{cfg: cfg, logger: log}
}

// Apply runs strategy id against the table. The table is not modified.
func (e *Engine) Apply(table *contracts.ScoredTable, id int) (*Result, error) {
	strategy, err := Lookup(id)
	if err != nil {
		return nil, err
	}

	if strategy.IsMeta() {
		return e.applyMeta(table, strategy)
	}

	base, relaxed := e.baseSet(table)

	rows := make([]contracts.ScoredRecord, 0, len(base))
	for i := range base {
		if strategy.Match(&base[i], e.cfg.Gates.MinTradingValue) {
			rows = append(rows, base[i])
		}
	}
	sortByTotal(rows)

	return &Result{Strategy: strategy, Rows: rows, Relaxed: relaxed}, nil
}

// baseSet intersects the four gates; when nothing passes it drops the
// trading-value gate and keeps volume/price/market-cap.
func (e *Engine) baseSet(table *contracts.ScoredTable) ([]contracts.ScoredRecord, bool) {
	base, filtered := e.cfg.Gates.screen(table.Rows, true)
	if len(base) > 0 {
		e.logger.WithFields(map[string]interface{}{
			"passed":   len(base),
			"filtered": filtered,
		}).Debug("Base candidate set built")
		return base, false
	}

	base, filtered = e.cfg.Gates.screen(table.Rows, false)
	e.logger.WithFields(map[string]interface{}{
		"passed":   len(base),
		"filtered": filtered,
	}).Warn("No stock passed the trading value gate; using volume/price/market cap gates only")

	return base, true
}

// applyMeta merges the top rows of strategies 2..13, first occurrence wins,
// falling back to the whole table when every source is empty.
func (e *Engine) applyMeta(table *contracts.ScoredTable, meta Strategy) (*Result, error) {
	seen := make(map[string]bool)
	merged := make([]contracts.ScoredRecord, 0)
	relaxed := false

	for _, id := range MetaSources() {
		sub, err := e.Apply(table, id)
		if err != nil {
			return nil, err
		}
		relaxed = relaxed || sub.Relaxed

		if sub.Empty() {
			e.logger.WithField("strategy", id).Warn("Sub-strategy produced no candidates; skipping")
			continue
		}

		for _, r := range head(sub.Rows, e.cfg.MetaPerStrategy) {
			if seen[r.Ticker] {
				continue
			}
			seen[r.Ticker] = true
			merged = append(merged, r)
		}
	}

	if len(merged) == 0 {
		e.logger.WithField("rows", table.Len()).
			Warn("No sub-strategy produced candidates; falling back to the full universe")
		merged = append(merged, table.Rows...)
	}

	sortByVolumeThenTotal(merged)

	return &Result{Strategy: meta, Rows: merged, Relaxed: relaxed}, nil
}
