package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradescope/internal/domain"
)

var testStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// dailyKlines construye una serie diaria de velas con los closes dados.
func dailyKlines(closes ...float64) []domain.Kline {
	ks := make([]domain.Kline, 0, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		ks = append(ks, domain.Kline{
			Symbol:    "SOL_USDC",
			Interval:  domain.Interval1d,
			OpenTime:  testStart.Add(time.Duration(i) * 24 * time.Hour),
			CloseTime: testStart.Add(time.Duration(i+1) * 24 * time.Hour),
			Open:      open,
			High:      math.Max(open, c) + 1,
			Low:       math.Min(open, c) - 1,
			Close:     c,
			Volume:    100,
		})
	}
	return ks
}

func TestRun_AlwaysFlat(t *testing.T) {
	engine := NewEngine(Config{})
	prices := dailyKlines(100, 105, 95, 110)

	res, err := engine.Run(context.Background(), NewDefinition("flat", "always-flat", AlwaysFlat()), prices, 1000)
	require.NoError(t, err)

	require.Len(t, res.EquityCurve, 4)
	for _, p := range res.EquityCurve {
		assert.Equal(t, 1000.0, p.Equity)
	}
	assert.Equal(t, 0, res.PositionChanges)
	assert.Equal(t, 0.0, res.TotalCost)
	assert.Equal(t, 0.0, res.Metrics.TotalReturn)
	assert.Equal(t, 0.0, res.Metrics.MaxDrawdown)
	assert.True(t, math.IsNaN(res.Metrics.SharpeRatio), "curva plana no tiene varianza")
	assert.False(t, res.Cancelled)
}

func TestRun_BuyAndHold(t *testing.T) {
	engine := NewEngine(Config{})
	prices := dailyKlines(100, 110, 120)

	res, err := engine.Run(context.Background(), NewDefinition("bh", "buy-and-hold", BuyAndHold(1)), prices, 1000)
	require.NoError(t, err)

	// Fill a 100 en la primera vela: cash 900, equity sigue en 1000.
	require.Len(t, res.EquityCurve, 3)
	assert.Equal(t, 1000.0, res.EquityCurve[0].Equity)
	assert.Equal(t, 1010.0, res.EquityCurve[1].Equity)
	assert.Equal(t, 1020.0, res.EquityCurve[2].Equity)
	assert.Equal(t, 1, res.PositionChanges)
	assert.InDelta(t, 0.02, res.Metrics.TotalReturn, 1e-12)
	assert.Equal(t, "SOL_USDC", res.Symbol)
	assert.Equal(t, "bh", res.StrategyID)
}

func TestRun_NoLookAhead(t *testing.T) {
	engine := NewEngine(Config{})
	prices := dailyKlines(100, 105, 95, 110, 120)

	step := 0
	probe := func(history []domain.Kline) domain.Position {
		require.Len(t, history, step+1, "la política solo ve la historia hasta la vela actual")
		require.True(t, history[len(history)-1].CloseTime.Equal(prices[step].CloseTime))
		step++
		return domain.Flat()
	}

	_, err := engine.Run(context.Background(), NewDefinition("probe", "probe", probe), prices, 1000)
	require.NoError(t, err)
	assert.Equal(t, len(prices), step)
}

func TestRun_TransactionCost(t *testing.T) {
	engine := NewEngine(Config{CostRate: 0.001})
	prices := dailyKlines(100, 110)

	res, err := engine.Run(context.Background(), NewDefinition("bh", "buy-and-hold", BuyAndHold(1)), prices, 1000)
	require.NoError(t, err)

	// Un fill de 1 unidad a 100 con coste 0.1% = 0.1.
	assert.InDelta(t, 0.1, res.TotalCost, 1e-12)
	assert.InDelta(t, 999.9, res.EquityCurve[0].Equity, 1e-12)
	assert.InDelta(t, 1009.9, res.EquityCurve[1].Equity, 1e-12)
}

func TestRun_FillAtNextOpen(t *testing.T) {
	engine := NewEngine(Config{FillAtNextOpen: true})
	prices := dailyKlines(100, 110, 120)
	prices[1].Open = 105
	prices[1].Low = 104

	res, err := engine.Run(context.Background(), NewDefinition("bh", "buy-and-hold", BuyAndHold(1)), prices, 1000)
	require.NoError(t, err)

	// La señal de la vela 0 se ejecuta al open de la vela 1 (105).
	assert.Equal(t, 1000.0, res.EquityCurve[0].Equity)
	assert.Equal(t, 1005.0, res.EquityCurve[1].Equity)
	assert.Equal(t, 1015.0, res.EquityCurve[2].Equity)
	assert.Equal(t, 1, res.PositionChanges)
}

func TestRun_LeverageViolation(t *testing.T) {
	engine := NewEngine(Config{MaxLeverage: 1})
	prices := dailyKlines(100, 110)

	_, err := engine.Run(context.Background(), NewDefinition("greedy", "buy-and-hold", BuyAndHold(100)), prices, 1000)

	var stratErr *domain.InvalidStrategyError
	require.ErrorAs(t, err, &stratErr)
	assert.Equal(t, "greedy", stratErr.StrategyID)
	assert.Equal(t, "SOL_USDC", stratErr.Symbol)
}

func TestRun_Cancellation(t *testing.T) {
	engine := NewEngine(Config{})
	prices := dailyKlines(100, 105, 95, 110, 120)

	ctx, cancel := context.WithCancel(context.Background())
	policy := func(history []domain.Kline) domain.Position {
		if len(history) == 3 {
			cancel()
		}
		return domain.Flat()
	}

	res, err := engine.Run(ctx, NewDefinition("p", "cancelling", policy), prices, 1000)
	require.NoError(t, err, "la cancelación devuelve resultado parcial, no error")

	assert.True(t, res.Cancelled)
	assert.Len(t, res.EquityCurve, 3, "solo las velas procesadas antes de la cancelación")
	assert.True(t, res.PeriodEnd.Equal(prices[2].CloseTime))
}

func TestRun_InvalidInput(t *testing.T) {
	engine := NewEngine(Config{})
	valid := dailyKlines(100, 110)
	mixed := dailyKlines(100, 110)
	mixed[1].Symbol = "BTC_USDC"

	cases := []struct {
		name    string
		prices  []domain.Kline
		capital float64
	}{
		{"serie vacía", nil, 1000},
		{"capital cero", valid, 0},
		{"capital negativo", valid, -100},
		{"símbolos mezclados", mixed, 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Run(context.Background(), NewDefinition("f", "always-flat", AlwaysFlat()), tc.prices, tc.capital)
			var inputErr *domain.InvalidInputError
			assert.ErrorAs(t, err, &inputErr)
		})
	}
}

func TestRun_ShortPosition(t *testing.T) {
	engine := NewEngine(Config{})
	prices := dailyKlines(100, 90, 80)

	short := func(history []domain.Kline) domain.Position { return domain.Short(1) }
	res, err := engine.Run(context.Background(), NewDefinition("s", "short", short), prices, 1000)
	require.NoError(t, err)

	// Corto de 1 a 100: cash 1100, equity = 1100 - close.
	assert.Equal(t, 1000.0, res.EquityCurve[0].Equity)
	assert.Equal(t, 1010.0, res.EquityCurve[1].Equity)
	assert.Equal(t, 1020.0, res.EquityCurve[2].Equity)
	assert.InDelta(t, 0.02, res.Metrics.TotalReturn, 1e-12)
}
