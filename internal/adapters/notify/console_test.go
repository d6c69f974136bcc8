package notify_test

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradescope/internal/adapters/notify"
	"github.com/alejandrodnm/tradescope/internal/domain"
)

func makeRanking() ([]domain.TraderScore, []domain.PerformanceMetrics) {
	scores := []domain.TraderScore{
		{TraderID: "alice", Score: 1.25},
		{TraderID: "bob", Score: -0.4, ExcludedMetrics: []string{"sharpe_ratio"}},
	}
	metrics := []domain.PerformanceMetrics{
		{TraderID: "alice", WinRate: 0.7, TotalReturn: 0.15, SharpeRatio: 1.8, MaxDrawdown: 0.1, ProfitFactor: 2.1, NumTrades: 24},
		{TraderID: "bob", WinRate: 0.45, TotalReturn: -0.02, SharpeRatio: math.NaN(), MaxDrawdown: 0.3, ProfitFactor: 0.8, NumTrades: 11},
	}
	return scores, metrics
}

func TestNotifyRanking_Table(t *testing.T) {
	var buf bytes.Buffer
	console := notify.NewConsoleWriter(&buf, true)

	scores, metrics := makeRanking()
	err := console.NotifyRanking(context.Background(), scores, metrics)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "1.250")
	assert.Contains(t, out, "15.00%")
	// Sharpe NaN de bob se muestra como '-'
	assert.Contains(t, out, "-")
	assert.Contains(t, out, "sharpe_ratio")
}

func TestNotifyRanking_Compact(t *testing.T) {
	var buf bytes.Buffer
	console := notify.NewConsoleWriter(&buf, false)

	scores, metrics := makeRanking()
	err := console.NotifyRanking(context.Background(), scores, metrics)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "2 traders")
	assert.Contains(t, out, "alice")
	// El modo compacto cabe en una línea
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestNotifyRanking_Empty(t *testing.T) {
	var buf bytes.Buffer
	console := notify.NewConsoleWriter(&buf, true)

	err := console.NotifyRanking(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no traders ranked")
}

func TestPrintBacktest(t *testing.T) {
	var buf bytes.Buffer
	console := notify.NewConsoleWriter(&buf, true)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	console.PrintBacktest(domain.BacktestResult{
		StrategyID:  "sma-cross",
		Symbol:      "SOL_USDC",
		PeriodStart: start,
		PeriodEnd:   start.Add(48 * time.Hour),
		EquityCurve: []domain.EquityPoint{
			{Timestamp: start.Add(24 * time.Hour), Equity: 1010},
			{Timestamp: start.Add(48 * time.Hour), Equity: 1020},
		},
		Metrics:         domain.PerformanceMetrics{TotalReturn: 0.02, SharpeRatio: math.NaN(), MaxDrawdown: 0.0},
		PositionChanges: 3,
		TotalCost:       0.5,
		Cancelled:       true,
	})

	out := buf.String()
	assert.Contains(t, out, "sma-cross")
	assert.Contains(t, out, "cancelled, partial")
	assert.Contains(t, out, "2.00%")
	assert.Contains(t, out, "1020.00")
}

func TestPrintEpisodes(t *testing.T) {
	var buf bytes.Buffer
	console := notify.NewConsoleWriter(&buf, true)

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	console.PrintEpisodes([]domain.StrategyEpisode{
		{TraderID: "alice", Type: domain.StrategyTrendFollowing, Start: start, End: start.Add(time.Hour), Signals: 5, AvgConfidence: 0.72},
	})

	out := buf.String()
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "trend-following")
	assert.Contains(t, out, "0.72")

	buf.Reset()
	console.PrintEpisodes(nil)
	assert.Contains(t, buf.String(), "no strategy episodes")
}
