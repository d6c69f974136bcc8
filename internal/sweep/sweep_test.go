package sweep

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradescope/internal/domain"
	"github.com/alejandrodnm/tradescope/internal/metrics"
	"github.com/alejandrodnm/tradescope/internal/strategy"
)

func newSweeper(cfg Config) *Sweeper {
	return New(metrics.NewEngine(metrics.Config{}), strategy.NewAnalyzer(strategy.Config{}), cfg)
}

func TestRun_AggregatesAllTasks(t *testing.T) {
	s := newSweeper(Config{Workers: 4})
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	badTrades := []domain.Trade{
		{TraderID: "bad", Symbol: "SOL_USDC", Side: domain.SideBuy, Price: 100, Quantity: 1, Timestamp: base.Add(time.Minute)},
		{TraderID: "bad", Symbol: "SOL_USDC", Side: domain.SideSell, Price: 110, Quantity: 1, Timestamp: base},
	}
	tasks := []Task{
		{TraderID: "charlie"},
		{TraderID: "bad", Trades: badTrades},
		{TraderID: "alpha"},
	}

	res := s.Run(context.Background(), tasks)

	require.Len(t, res.Reports, 3)
	assert.False(t, res.Cancelled)
	assert.NotEmpty(t, res.RunID)

	// Orden determinista por trader_id independiente de los workers.
	assert.Equal(t, "alpha", res.Reports[0].TraderID)
	assert.Equal(t, "bad", res.Reports[1].TraderID)
	assert.Equal(t, "charlie", res.Reports[2].TraderID)

	var inputErr *domain.InvalidInputError
	require.ErrorAs(t, res.Reports[1].Err, &inputErr)
	assert.NoError(t, res.Reports[0].Err)
	assert.Equal(t, 0, res.Reports[0].Metrics.NumTrades)
}

func TestRun_Cancelled(t *testing.T) {
	s := newSweeper(Config{Workers: 2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.Run(ctx, []Task{{TraderID: "a"}, {TraderID: "b"}})

	assert.True(t, res.Cancelled)
	assert.Empty(t, res.Reports)
}

func TestMetricsForRanking(t *testing.T) {
	s := newSweeper(Config{MinTrades: 5})

	reports := []Report{
		{TraderID: "errored", Err: &domain.InvalidInputError{Reason: "out of order"}},
		{TraderID: "thin", Metrics: domain.PerformanceMetrics{TraderID: "thin", NumTrades: 2}},
		{TraderID: "ok", Metrics: domain.PerformanceMetrics{TraderID: "ok", NumTrades: 12, WinRate: 0.6}},
	}

	ranked := s.MetricsForRanking(reports)

	require.Len(t, ranked, 1)
	assert.Equal(t, "ok", ranked[0].TraderID)
}

func TestRun_EmptyTasks(t *testing.T) {
	s := newSweeper(Config{})

	res := s.Run(context.Background(), nil)

	assert.Empty(t, res.Reports)
	assert.False(t, res.Cancelled)
}

func TestRun_EmptyTraderMetrics(t *testing.T) {
	s := newSweeper(Config{Workers: 1})

	res := s.Run(context.Background(), []Task{{TraderID: "ghost"}})

	require.Len(t, res.Reports, 1)
	report := res.Reports[0]
	require.NoError(t, report.Err)
	assert.Equal(t, 0, report.Metrics.NumTrades)
	assert.True(t, math.IsNaN(report.Metrics.WinRate))
	assert.Empty(t, report.Signals)
}
