package domain

import (
	"encoding/json"
	"math"
	"time"
)

// SymbolScopeAll indica que las métricas cubren todos los símbolos del trader.
const SymbolScopeAll = "all"

// PerformanceMetrics son las estadísticas de performance de un trader en un
// período. Value object inmutable: el engine que lo produce es su dueño y
// nadie lo muta después.
//
// Los campos de ratio usan NaN para los casos degenerados (cero trades,
// varianza cero) — estados válidos aunque no informativos.
type PerformanceMetrics struct {
	TraderID    string    `json:"trader_id"`
	SymbolScope string    `json:"symbol_scope"` // símbolo único o "all"
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	NumTrades   int       `json:"num_trades"`
	RoundTrips  int       `json:"round_trips"` // posiciones cerradas (FIFO)
	WinRate     float64   `json:"win_rate"`    // ∈[0,1], NaN sin round trips
	TotalReturn float64   `json:"total_return"`
	SharpeRatio float64   `json:"sharpe_ratio"` // NaN con varianza cero
	MaxDrawdown float64   `json:"max_drawdown"` // ∈[0,1]

	// Estadísticas complementarias por round trip
	ProfitFactor float64 `json:"profit_factor"` // |ganancias| / |pérdidas|
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	LargestWin   float64 `json:"largest_win"`
	LargestLoss  float64 `json:"largest_loss"`

	// Distribución temporal: hora UTC con más trades, -1 sin trades
	MostActiveHour int `json:"most_active_hour"`
}

// HasTrades devuelve true si el período contiene al menos un trade.
func (m PerformanceMetrics) HasTrades() bool {
	return m.NumTrades > 0
}

// MarshalJSON serializa NaN e infinitos como null — JSON no los representa
// y los consumidores downstream esperan null para "no definido".
func (m PerformanceMetrics) MarshalJSON() ([]byte, error) {
	type alias struct {
		TraderID       string    `json:"trader_id"`
		SymbolScope    string    `json:"symbol_scope"`
		PeriodStart    time.Time `json:"period_start"`
		PeriodEnd      time.Time `json:"period_end"`
		NumTrades      int       `json:"num_trades"`
		RoundTrips     int       `json:"round_trips"`
		WinRate        *float64  `json:"win_rate"`
		TotalReturn    *float64  `json:"total_return"`
		SharpeRatio    *float64  `json:"sharpe_ratio"`
		MaxDrawdown    *float64  `json:"max_drawdown"`
		ProfitFactor   *float64  `json:"profit_factor"`
		AvgWin         *float64  `json:"avg_win"`
		AvgLoss        *float64  `json:"avg_loss"`
		LargestWin     *float64  `json:"largest_win"`
		LargestLoss    *float64  `json:"largest_loss"`
		MostActiveHour int       `json:"most_active_hour"`
	}
	return json.Marshal(alias{
		TraderID:       m.TraderID,
		SymbolScope:    m.SymbolScope,
		PeriodStart:    m.PeriodStart,
		PeriodEnd:      m.PeriodEnd,
		NumTrades:      m.NumTrades,
		RoundTrips:     m.RoundTrips,
		WinRate:        FiniteOrNil(m.WinRate),
		TotalReturn:    FiniteOrNil(m.TotalReturn),
		SharpeRatio:    FiniteOrNil(m.SharpeRatio),
		MaxDrawdown:    FiniteOrNil(m.MaxDrawdown),
		ProfitFactor:   FiniteOrNil(m.ProfitFactor),
		AvgWin:         FiniteOrNil(m.AvgWin),
		AvgLoss:        FiniteOrNil(m.AvgLoss),
		LargestWin:     FiniteOrNil(m.LargestWin),
		LargestLoss:    FiniteOrNil(m.LargestLoss),
		MostActiveHour: m.MostActiveHour,
	})
}

// FiniteOrNil devuelve un puntero al valor si es finito, nil si es NaN o ±Inf.
// Compartido con la capa de persistencia (NaN → NULL en SQLite).
func FiniteOrNil(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
