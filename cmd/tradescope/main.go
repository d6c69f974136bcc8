package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/tradescope/config"
	"github.com/alejandrodnm/tradescope/internal/adapters/exchange"
	"github.com/alejandrodnm/tradescope/internal/adapters/notify"
	"github.com/alejandrodnm/tradescope/internal/adapters/storage"
	"github.com/alejandrodnm/tradescope/internal/backtest"
	"github.com/alejandrodnm/tradescope/internal/domain"
	"github.com/alejandrodnm/tradescope/internal/metrics"
	"github.com/alejandrodnm/tradescope/internal/ports"
	"github.com/alejandrodnm/tradescope/internal/ranking"
	"github.com/alejandrodnm/tradescope/internal/strategy"
	"github.com/alejandrodnm/tradescope/internal/sweep"
)

// deps agrupa el cableado común de los tres modos. Los runners dependen de
// los ports, no de los adapters concretos.
type deps struct {
	cfg      *config.Config
	trades   ports.TradeProvider
	klines   ports.KlineProvider
	store    ports.Storage
	notifier ports.Notifier
	interval domain.Interval
	from     time.Time
	to       time.Time
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	mode := flag.String("mode", "rank", "mode: rank | analyze | backtest")
	symbol := flag.String("symbol", "", "symbol override (e.g. SOL_USDC)")
	trader := flag.String("trader", "", "trader id for analyze mode")
	strategyName := flag.String("strategy", "", "strategy name for backtest mode (overrides config)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full tables (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if *symbol != "" {
		cfg.Analysis.Symbol = *symbol
	}
	if *strategyName != "" {
		cfg.Backtest.Strategy = *strategyName
	}

	interval, ok := domain.ParseInterval(cfg.Analysis.Interval)
	if !ok {
		slog.Error("unknown kline interval", "interval", cfg.Analysis.Interval)
		os.Exit(1)
	}

	slog.Info("tradescope starting",
		"config", *configPath,
		"mode", *mode,
		"symbol", cfg.Analysis.Symbol,
		"interval", interval,
		"lookback", cfg.Lookback(),
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	client := exchange.NewClient(cfg.API.Base)
	now := time.Now().UTC()
	d := deps{
		cfg:      cfg,
		trades:   client,
		klines:   client,
		store:    store,
		notifier: notify.NewConsole(*table),
		interval: interval,
		from:     now.Add(-cfg.Lookback()),
		to:       now,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch *mode {
	case "rank":
		err = runRank(ctx, d)
	case "analyze":
		err = runAnalyze(ctx, d, *trader)
	case "backtest":
		err = runBacktest(ctx, d)
	default:
		slog.Error("unknown mode", "mode", *mode)
		os.Exit(1)
	}

	if err != nil {
		slog.Error("run failed", "mode", *mode, "err", err)
		os.Exit(1)
	}
	slog.Info("tradescope finished", "mode", *mode)
}

// newSweeper cablea el pipeline de análisis por trader.
func newSweeper(cfg *config.Config) *sweep.Sweeper {
	engine := metrics.NewEngine(metrics.Config{PeriodsPerYear: cfg.Analysis.PeriodsPerYear})
	analyzer := strategy.NewAnalyzer(strategy.Config{})
	return sweep.New(engine, analyzer, sweep.Config{
		Workers:   cfg.Analysis.Workers,
		MinTrades: cfg.Analysis.MinTrades,
	})
}

// newRanker construye el servicio de ranking (separado para tests de wiring).
func newRanker() *ranking.Service {
	return ranking.NewService()
}

// newBacktester construye el engine de backtest desde la config.
func newBacktester(cfg *config.Config) (*backtest.Engine, backtest.Registry) {
	engine := backtest.NewEngine(backtest.Config{
		FillAtNextOpen: cfg.Backtest.FillAtNextOpen,
		CostRate:       cfg.Backtest.CostRate,
		MaxLeverage:    cfg.Backtest.MaxLeverage,
		PeriodsPerYear: cfg.Analysis.PeriodsPerYear,
	})
	return engine, backtest.NewRegistry()
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
