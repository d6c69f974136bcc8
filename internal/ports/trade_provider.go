package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/tradescope/internal/domain"
)

// TradeProvider obtiene el historial de trades de un trader desde la capa
// de datos externa. Puede fallar con *domain.DataUnavailableError, que el
// core propaga sin sustituir defaults.
type TradeProvider interface {
	// FetchTrades devuelve los trades del trader para el símbolo y rango
	// dados, ordenados ascendente por timestamp.
	FetchTrades(ctx context.Context, traderID, symbol string, from, to time.Time) ([]domain.Trade, error)
}
