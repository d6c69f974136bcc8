package storage

// sqlite.go — persistencia de los resultados de análisis.
//
// Estrategia:
//   - `runs`: resumen ligero por run de ranking. Siempre 1 fila.
//   - `trader_metrics`: una fila por (run, trader) con métricas y score.
//     Los campos NaN/Inf se guardan como NULL y vuelven como NaN al leer,
//     así el roundtrip conserva la semántica de "sin dato".
//   - `backtests`: resumen por run de backtest (sin la curva completa,
//     que solo interesa en el reporte del momento).
//   - Prune automático al arrancar: todo lo más viejo que 30 días.

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alejandrodnm/tradescope/internal/domain"
	"github.com/alejandrodnm/tradescope/internal/ports"
	_ "modernc.org/sqlite"
)

var _ ports.Storage = (*SQLiteStorage)(nil)

const schema = `
-- Resumen ligero por run de ranking
CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    ran_at        DATETIME NOT NULL,
    total_traders INTEGER  NOT NULL DEFAULT 0,
    best_score    REAL     NOT NULL DEFAULT 0
);

-- Una fila por (run, trader). Métricas NaN/Inf → NULL.
CREATE TABLE IF NOT EXISTS trader_metrics (
    run_id           TEXT NOT NULL,
    trader_id        TEXT NOT NULL,
    symbol_scope     TEXT NOT NULL,
    period_start     DATETIME,
    period_end       DATETIME,
    num_trades       INTEGER NOT NULL DEFAULT 0,
    round_trips      INTEGER NOT NULL DEFAULT 0,
    win_rate         REAL,
    total_return     REAL,
    sharpe_ratio     REAL,
    max_drawdown     REAL,
    profit_factor    REAL,
    composite_score  REAL NOT NULL DEFAULT 0,
    excluded_metrics TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, trader_id)
);

-- Resumen por backtest
CREATE TABLE IF NOT EXISTS backtests (
    strategy_id      TEXT NOT NULL,
    symbol           TEXT NOT NULL,
    ran_at           DATETIME NOT NULL,
    period_start     DATETIME,
    period_end       DATETIME,
    total_return     REAL,
    sharpe_ratio     REAL,
    max_drawdown     REAL,
    position_changes INTEGER NOT NULL DEFAULT 0,
    total_cost       REAL    NOT NULL DEFAULT 0,
    cancelled        INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (strategy_id, symbol, ran_at)
);

CREATE INDEX IF NOT EXISTS idx_runs_at        ON runs(ran_at DESC);
CREATE INDEX IF NOT EXISTS idx_metrics_trader ON trader_metrics(trader_id);
CREATE INDEX IF NOT EXISTS idx_backtests_at   ON backtests(ran_at DESC);
`

const retention = 30 * 24 * time.Hour

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia datos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveRanking persiste el resumen del run y una fila por trader rankeado.
// Los scores se cruzan con las métricas por trader_id.
func (s *SQLiteStorage) SaveRanking(ctx context.Context, runID string, scores []domain.TraderScore, metrics []domain.PerformanceMetrics) error {
	if len(scores) == 0 {
		return nil
	}

	now := time.Now().UTC()
	best := scores[0].Score
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, ran_at, total_traders, best_score) VALUES (?, ?, ?, ?)`,
		runID, now, len(scores), best,
	); err != nil {
		return fmt.Errorf("storage.SaveRanking: insert run: %w", err)
	}

	byTrader := make(map[string]domain.PerformanceMetrics, len(metrics))
	for _, m := range metrics {
		byTrader[m.TraderID] = m
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRanking: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trader_metrics
			(run_id, trader_id, symbol_scope, period_start, period_end,
			 num_trades, round_trips, win_rate, total_return, sharpe_ratio,
			 max_drawdown, profit_factor, composite_score, excluded_metrics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveRanking: prepare: %w", err)
	}
	defer stmt.Close()

	for _, score := range scores {
		m := byTrader[score.TraderID]
		if _, err := stmt.ExecContext(ctx,
			runID,
			score.TraderID,
			m.SymbolScope,
			m.PeriodStart.UTC(),
			m.PeriodEnd.UTC(),
			m.NumTrades,
			m.RoundTrips,
			domain.FiniteOrNil(m.WinRate),
			domain.FiniteOrNil(m.TotalReturn),
			domain.FiniteOrNil(m.SharpeRatio),
			domain.FiniteOrNil(m.MaxDrawdown),
			domain.FiniteOrNil(m.ProfitFactor),
			score.Score,
			strings.Join(score.ExcludedMetrics, ","),
		); err != nil {
			return fmt.Errorf("storage.SaveRanking: insert trader %s: %w", score.TraderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRanking: commit: %w", err)
	}
	return nil
}

// SaveBacktest persiste el resumen del backtest.
func (s *SQLiteStorage) SaveBacktest(ctx context.Context, result domain.BacktestResult) error {
	cancelled := 0
	if result.Cancelled {
		cancelled = 1
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO backtests
			(strategy_id, symbol, ran_at, period_start, period_end,
			 total_return, sharpe_ratio, max_drawdown, position_changes,
			 total_cost, cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.StrategyID,
		result.Symbol,
		time.Now().UTC(),
		result.PeriodStart.UTC(),
		result.PeriodEnd.UTC(),
		domain.FiniteOrNil(result.Metrics.TotalReturn),
		domain.FiniteOrNil(result.Metrics.SharpeRatio),
		domain.FiniteOrNil(result.Metrics.MaxDrawdown),
		result.PositionChanges,
		result.TotalCost,
		cancelled,
	); err != nil {
		return fmt.Errorf("storage.SaveBacktest: insert %s: %w", result.StrategyID, err)
	}
	return nil
}

// TopTraders devuelve las métricas mejor rankeadas registradas en el rango.
// Ordenadas por composite_score desc, empates por trader_id asc.
func (s *SQLiteStorage) TopTraders(ctx context.Context, from, to time.Time, limit int) ([]domain.PerformanceMetrics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.trader_id, m.symbol_scope, m.period_start, m.period_end,
		       m.num_trades, m.round_trips, m.win_rate, m.total_return,
		       m.sharpe_ratio, m.max_drawdown, m.profit_factor
		FROM trader_metrics m
		JOIN runs r ON r.id = m.run_id
		WHERE r.ran_at BETWEEN ? AND ?
		ORDER BY m.composite_score DESC, m.trader_id ASC
		LIMIT ?
	`, from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("storage.TopTraders: query: %w", err)
	}
	defer rows.Close()

	var out []domain.PerformanceMetrics
	for rows.Next() {
		var m domain.PerformanceMetrics
		var start, end string
		var winRate, totalReturn, sharpe, drawdown, profitFactor sql.NullFloat64

		if err := rows.Scan(
			&m.TraderID,
			&m.SymbolScope,
			&start,
			&end,
			&m.NumTrades,
			&m.RoundTrips,
			&winRate,
			&totalReturn,
			&sharpe,
			&drawdown,
			&profitFactor,
		); err != nil {
			return nil, fmt.Errorf("storage.TopTraders: scan row: %w", err)
		}

		m.PeriodStart = parseStoredTime(start)
		m.PeriodEnd = parseStoredTime(end)
		m.WinRate = floatOrNaN(winRate)
		m.TotalReturn = floatOrNaN(totalReturn)
		m.SharpeRatio = floatOrNaN(sharpe)
		m.MaxDrawdown = floatOrNaN(drawdown)
		m.ProfitFactor = floatOrNaN(profitFactor)
		out = append(out, m)
	}

	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// pruneOld elimina runs, métricas y backtests antiguos.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retention)
	s.db.ExecContext(ctx, `DELETE FROM trader_metrics WHERE run_id IN (SELECT id FROM runs WHERE ran_at < ?)`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE ran_at < ?`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM backtests WHERE ran_at < ?`, cutoff)
}

// floatOrNaN deshace el mapeo NaN→NULL al leer.
func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func parseStoredTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
