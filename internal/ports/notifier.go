package ports

import (
	"context"

	"github.com/alejandrodnm/tradescope/internal/domain"
)

// Notifier presenta los resultados del análisis al usuario.
// En la implementación de consola, imprime tablas formateadas.
type Notifier interface {
	// NotifyRanking muestra el ranking de traders con sus métricas.
	NotifyRanking(ctx context.Context, scores []domain.TraderScore, metrics []domain.PerformanceMetrics) error

	// PrintSummary muestra el resumen de la población rankeada.
	PrintSummary(summary domain.PopulationSummary)

	// PrintBacktest muestra el resumen de un backtest.
	PrintBacktest(result domain.BacktestResult)

	// PrintEpisodes muestra los episodios de estrategia inferidos.
	PrintEpisodes(episodes []domain.StrategyEpisode)
}
