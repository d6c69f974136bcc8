package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/tradescope/internal/strategy"
)

// runAnalyze infiere los episodios de estrategia de un único trader.
func runAnalyze(ctx context.Context, d deps, traderID string) error {
	if traderID == "" {
		return fmt.Errorf("runAnalyze: -trader is required in analyze mode")
	}

	trades, err := d.trades.FetchTrades(ctx, traderID, d.cfg.Analysis.Symbol, d.from, d.to)
	if err != nil {
		return fmt.Errorf("runAnalyze: fetch trades: %w", err)
	}
	klines, err := d.klines.FetchKlines(ctx, d.cfg.Analysis.Symbol, d.interval, d.from, d.to)
	if err != nil {
		return fmt.Errorf("runAnalyze: fetch klines: %w", err)
	}

	analyzer := strategy.NewAnalyzer(strategy.Config{})
	signals, err := analyzer.Analyze(trades, klines)
	if err != nil {
		return fmt.Errorf("runAnalyze: analyze %s: %w", traderID, err)
	}

	episodes := strategy.Episodes(signals)
	slog.Info("strategy analysis complete",
		"trader_id", traderID,
		"trades", len(trades),
		"signals", len(signals),
		"episodes", len(episodes),
	)

	d.notifier.PrintEpisodes(episodes)
	return nil
}
