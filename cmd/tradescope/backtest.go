package main

import (
	"context"
	"fmt"
	"log/slog"
)

// runBacktest reproduce la estrategia configurada contra las velas del
// rango y persiste el resumen.
func runBacktest(ctx context.Context, d deps) error {
	engine, registry := newBacktester(d.cfg)

	def, ok := registry.Get(d.cfg.Backtest.Strategy)
	if !ok {
		return fmt.Errorf("runBacktest: unknown strategy %q (available: %v)",
			d.cfg.Backtest.Strategy, registry.Names())
	}

	klines, err := d.klines.FetchKlines(ctx, d.cfg.Analysis.Symbol, d.interval, d.from, d.to)
	if err != nil {
		return fmt.Errorf("runBacktest: fetch klines: %w", err)
	}

	result, err := engine.Run(ctx, def, klines, d.cfg.Backtest.InitialCapital)
	if err != nil {
		return fmt.Errorf("runBacktest: run %s: %w", def.Name, err)
	}
	if result.Cancelled {
		slog.Warn("backtest cancelled, reporting partial curve",
			"strategy", def.Name,
			"candles", len(result.EquityCurve),
		)
	}

	if err := d.store.SaveBacktest(ctx, result); err != nil {
		slog.Warn("failed to persist backtest", "strategy", def.Name, "err", err)
	}

	d.notifier.PrintBacktest(result)
	return nil
}
