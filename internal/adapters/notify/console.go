package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/tradescope/internal/domain"
	"github.com/alejandrodnm/tradescope/internal/ports"
)

var _ ports.Notifier = (*Console)(nil)

// Console implementa ports.Notifier escribiendo tablas formateadas.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
// Con table=false imprime el modo compacto de una línea.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyRanking imprime el ranking de traders con sus métricas.
func (c *Console) NotifyRanking(_ context.Context, scores []domain.TraderScore, metrics []domain.PerformanceMetrics) error {
	if len(scores) == 0 {
		fmt.Fprintf(c.out, "[%s] no traders ranked\n", time.Now().Format("15:04:05"))
		return nil
	}

	byTrader := make(map[string]domain.PerformanceMetrics, len(metrics))
	for _, m := range metrics {
		byTrader[m.TraderID] = m
	}

	if c.table {
		c.printRankingTable(scores, byTrader)
	} else {
		c.printRankingCompact(scores, byTrader)
	}
	return nil
}

// printRankingCompact imprime lo esencial en una línea.
func (c *Console) printRankingCompact(scores []domain.TraderScore, byTrader map[string]domain.PerformanceMetrics) {
	now := time.Now().Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d traders", now, len(scores))

	shown := 0
	for _, score := range scores {
		if shown >= 4 {
			break
		}
		m := byTrader[score.TraderID]
		fmt.Fprintf(&sb, " | %s score %.2f wr %s ret %s",
			score.TraderID, score.Score,
			fmtRatio(m.WinRate), fmtPct(m.TotalReturn))
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printRankingTable imprime la tabla completa del ranking.
func (c *Console) printRankingTable(scores []domain.TraderScore, byTrader map[string]domain.PerformanceMetrics) {
	fmt.Fprintf(c.out, "\n[%s] trader ranking — %d traders\n",
		time.Now().Format("15:04:05"), len(scores))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Trader", "Score", "Win rate", "Return", "Sharpe", "Max DD", "PF", "Trades", "Excluded")

	for i, score := range scores {
		m := byTrader[score.TraderID]
		table.Append(
			fmt.Sprintf("%d", i+1),
			score.TraderID,
			fmt.Sprintf("%.3f", score.Score),
			fmtRatio(m.WinRate),
			fmtPct(m.TotalReturn),
			fmtRatio(m.SharpeRatio),
			fmtPct(m.MaxDrawdown),
			fmtRatio(m.ProfitFactor),
			fmt.Sprintf("%d", m.NumTrades),
			strings.Join(score.ExcludedMetrics, ","),
		)
	}

	table.Render()
	fmt.Fprintln(c.out, "  Score = suma ponderada de z-scores | '-' = métrica sin dato (NaN)")
}

// PrintSummary imprime el resumen de la población rankeada.
func (c *Console) PrintSummary(summary domain.PopulationSummary) {
	fmt.Fprintf(c.out, "  population: %d traders | avg wr %s | avg ret %s | avg dd %s | top ret %s\n",
		summary.TotalTraders,
		fmtRatio(summary.AvgWinRate),
		fmtPct(summary.AvgReturn),
		fmtPct(summary.AvgMaxDrawdown),
		fmtPct(summary.TopReturn),
	)
}

// PrintBacktest imprime el resumen de un backtest.
func (c *Console) PrintBacktest(result domain.BacktestResult) {
	status := ""
	if result.Cancelled {
		status = " (cancelled, partial)"
	}
	fmt.Fprintf(c.out, "\nbacktest %s on %s%s\n", result.StrategyID, result.Symbol, status)

	table := tablewriter.NewWriter(c.out)
	table.Header("Period", "Return", "Sharpe", "Max DD", "Changes", "Cost", "Final equity")

	final := math.NaN()
	if n := len(result.EquityCurve); n > 0 {
		final = result.EquityCurve[n-1].Equity
	}
	table.Append(
		fmt.Sprintf("%s → %s",
			result.PeriodStart.Format("2006-01-02 15:04"),
			result.PeriodEnd.Format("2006-01-02 15:04")),
		fmtPct(result.Metrics.TotalReturn),
		fmtRatio(result.Metrics.SharpeRatio),
		fmtPct(result.Metrics.MaxDrawdown),
		fmt.Sprintf("%d", result.PositionChanges),
		fmt.Sprintf("%.4f", result.TotalCost),
		fmtRatio(final),
	)
	table.Render()
}

// PrintEpisodes imprime los episodios de estrategia inferidos de un trader.
func (c *Console) PrintEpisodes(episodes []domain.StrategyEpisode) {
	if len(episodes) == 0 {
		fmt.Fprintln(c.out, "no strategy episodes inferred")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Trader", "Strategy", "From", "To", "Signals", "Avg conf")

	for _, ep := range episodes {
		table.Append(
			ep.TraderID,
			string(ep.Type),
			ep.Start.Format("2006-01-02 15:04"),
			ep.End.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", ep.Signals),
			fmt.Sprintf("%.2f", ep.AvgConfidence),
		)
	}
	table.Render()
}

// fmtRatio formatea un ratio con 2 decimales, '-' para NaN/Inf.
func fmtRatio(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f", f)
}

// fmtPct formatea una fracción como porcentaje, '-' para NaN/Inf.
func fmtPct(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", f*100)
}
