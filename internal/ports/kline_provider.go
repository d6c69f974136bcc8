package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/tradescope/internal/domain"
)

// KlineProvider obtiene series de velas desde la capa de datos externa.
type KlineProvider interface {
	// FetchKlines devuelve las velas del símbolo e intervalo en el rango
	// dado, contiguas y ordenadas ascendente por open_time.
	FetchKlines(ctx context.Context, symbol string, interval domain.Interval, from, to time.Time) ([]domain.Kline, error)
}
