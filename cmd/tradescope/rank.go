package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/tradescope/internal/sweep"
)

// runRank descarga los datos de cada trader configurado, corre el sweep de
// métricas y señales en paralelo y rankea a los supervivientes del filtro
// min_trades.
func runRank(ctx context.Context, d deps) error {
	traders := d.cfg.Analysis.Traders
	if len(traders) == 0 {
		return fmt.Errorf("runRank: no traders configured (analysis.traders)")
	}

	klines, err := d.klines.FetchKlines(ctx, d.cfg.Analysis.Symbol, d.interval, d.from, d.to)
	if err != nil {
		return fmt.Errorf("runRank: fetch klines: %w", err)
	}

	tasks := make([]sweep.Task, 0, len(traders))
	for _, traderID := range traders {
		trades, err := d.trades.FetchTrades(ctx, traderID, d.cfg.Analysis.Symbol, d.from, d.to)
		if err != nil {
			return fmt.Errorf("runRank: fetch trades for %s: %w", traderID, err)
		}
		tasks = append(tasks, sweep.Task{TraderID: traderID, Trades: trades, Klines: klines})
	}

	sweeper := newSweeper(d.cfg)
	result := sweeper.Run(ctx, tasks)
	if result.Cancelled {
		slog.Warn("sweep cancelled, ranking partial results",
			"run_id", result.RunID,
			"reports", len(result.Reports),
		)
	}

	rankable := sweeper.MetricsForRanking(result.Reports)
	ranker := newRanker()
	scores, err := ranker.Rank(rankable, d.cfg.Analysis.Weights)
	if err != nil {
		return fmt.Errorf("runRank: rank: %w", err)
	}

	if err := d.store.SaveRanking(ctx, result.RunID, scores, rankable); err != nil {
		slog.Warn("failed to persist ranking", "run_id", result.RunID, "err", err)
	}

	if err := d.notifier.NotifyRanking(ctx, scores, rankable); err != nil {
		return fmt.Errorf("runRank: notify: %w", err)
	}
	d.notifier.PrintSummary(ranker.Summarize(rankable))
	return nil
}
