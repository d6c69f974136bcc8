package sweep

// sweep.go — worker pool para el análisis paralelo de traders.
//
// Cada trader es independiente: métricas y señales no comparten estado, así
// que el sweep reparte los traders entre workers acotados y agrega los
// resultados por un result channel. La cancelación corta el feed de tareas y
// devuelve lo ya procesado con Cancelled=true.

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/alejandrodnm/tradescope/internal/domain"
	"github.com/alejandrodnm/tradescope/internal/metrics"
	"github.com/alejandrodnm/tradescope/internal/strategy"
)

// Task agrupa los datos ya descargados de un trader.
type Task struct {
	TraderID string
	Trades   []domain.Trade
	Klines   []domain.Kline
}

// Report es el resultado del análisis de un trader. Con Err != nil los demás
// campos no son significativos; el error se reporta, nunca se descarta.
type Report struct {
	TraderID string
	Metrics  domain.PerformanceMetrics
	Signals  []domain.StrategySignal
	Err      error
}

// Result agrega los reports de un run de sweep.
type Result struct {
	RunID     string
	Reports   []Report
	Cancelled bool
}

// Config ajusta el paralelismo y el filtro del sweep.
type Config struct {
	// Workers acota el pool. Con <= 0 usa runtime.NumCPU().
	Workers int

	// MinTrades excluye del ranking a los traders con menos trades; sus
	// reports se conservan para el log.
	MinTrades int
}

// Sweeper ejecuta MetricsEngine y StrategyAnalyzer por trader en paralelo.
type Sweeper struct {
	engine   *metrics.Engine
	analyzer *strategy.Analyzer
	cfg      Config
}

// New crea un Sweeper sobre un engine y un analyzer compartidos (ambos
// stateless, seguros entre workers).
func New(engine *metrics.Engine, analyzer *strategy.Analyzer, cfg Config) *Sweeper {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Sweeper{engine: engine, analyzer: analyzer, cfg: cfg}
}

// Run analiza todas las tareas y devuelve los reports ordenados por
// trader_id para que el resultado sea determinista con cualquier número de
// workers. Si el contexto se cancela devuelve los reports ya completados con
// Cancelled=true, nunca un error.
func (s *Sweeper) Run(ctx context.Context, tasks []Task) Result {
	runID := uuid.New().String()

	workCh := make(chan Task, len(tasks))
	resultCh := make(chan Report, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range workCh {
				resultCh <- s.analyze(task)
			}
		}()
	}

	// El feed comprueba la cancelación por tarea; los workers drenan lo ya
	// encolado y el resto queda fuera del run.
	cancelled := false
	queued := 0
	for _, task := range tasks {
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
		if cancelled {
			break
		}
		workCh <- task
		queued++
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	reports := make([]Report, 0, queued)
	for report := range resultCh {
		if report.Err != nil {
			slog.Warn("trader analysis failed",
				"run_id", runID,
				"trader_id", report.TraderID,
				"err", report.Err,
			)
		}
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].TraderID < reports[j].TraderID
	})

	slog.Debug("sweep complete",
		"run_id", runID,
		"traders_queued", queued,
		"reports", len(reports),
		"workers", s.cfg.Workers,
		"cancelled", cancelled,
	)

	return Result{RunID: runID, Reports: reports, Cancelled: cancelled}
}

// MetricsForRanking devuelve las métricas rankeables: descarta los reports
// con error y los traders por debajo de MinTrades.
func (s *Sweeper) MetricsForRanking(reports []Report) []domain.PerformanceMetrics {
	out := make([]domain.PerformanceMetrics, 0, len(reports))
	for _, r := range reports {
		if r.Err != nil {
			continue
		}
		if r.Metrics.NumTrades < s.cfg.MinTrades {
			slog.Debug("trader below min trades, excluded from ranking",
				"trader_id", r.TraderID,
				"num_trades", r.Metrics.NumTrades,
				"min_trades", s.cfg.MinTrades,
			)
			continue
		}
		out = append(out, r.Metrics)
	}
	return out
}

func (s *Sweeper) analyze(task Task) Report {
	m, err := s.engine.Compute(task.Trades, task.Klines)
	if err != nil {
		return Report{TraderID: task.TraderID, Err: err}
	}
	signals, err := s.analyzer.Analyze(task.Trades, task.Klines)
	if err != nil {
		return Report{TraderID: task.TraderID, Metrics: m, Err: err}
	}
	return Report{TraderID: task.TraderID, Metrics: m, Signals: signals}
}
