package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/tradescope/internal/domain"
)

// Storage persiste los resultados derivados de cada run de análisis.
type Storage interface {
	// SaveRanking persiste las métricas y scores de un run de ranking.
	SaveRanking(ctx context.Context, runID string, scores []domain.TraderScore, metrics []domain.PerformanceMetrics) error

	// SaveBacktest persiste el resumen de un backtest (sin la curva completa).
	SaveBacktest(ctx context.Context, result domain.BacktestResult) error

	// TopTraders devuelve las métricas mejor rankeadas registradas en el
	// rango de tiempo dado.
	TopTraders(ctx context.Context, from, to time.Time, limit int) ([]domain.PerformanceMetrics, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
