package domain

import "time"

// Direction es el sentido de una posición objetivo.
type Direction int

const (
	DirShort Direction = -1
	DirFlat  Direction = 0
	DirLong  Direction = 1
)

// Position es la posición objetivo que devuelve una política de trading:
// dirección y cantidad en unidades del activo base.
type Position struct {
	Direction Direction
	Quantity  float64 // ≥0; ignorada cuando Direction es DirFlat
}

// Signed devuelve la cantidad con signo (negativa para cortos, 0 para flat).
func (p Position) Signed() float64 {
	switch p.Direction {
	case DirLong:
		return p.Quantity
	case DirShort:
		return -p.Quantity
	default:
		return 0
	}
}

// Long construye una posición larga de la cantidad dada.
func Long(qty float64) Position { return Position{Direction: DirLong, Quantity: qty} }

// Short construye una posición corta de la cantidad dada.
func Short(qty float64) Position { return Position{Direction: DirShort, Quantity: qty} }

// Flat construye una posición plana.
func Flat() Position { return Position{Direction: DirFlat} }

// EquityPoint es un punto de la curva de equity de un backtest.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
}

// BacktestResult es el resultado de reproducir una estrategia contra una
// serie histórica de klines. Value object inmutable, dueño: BacktestEngine.
type BacktestResult struct {
	StrategyID  string    `json:"strategy_id"`
	Symbol      string    `json:"symbol"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	// Curva de equity marcada al close de cada vela, timestamps
	// estrictamente crecientes.
	EquityCurve []EquityPoint `json:"equity_curve"`

	// Métricas sobre la curva — mismas fórmulas que el MetricsEngine.
	Metrics PerformanceMetrics `json:"metrics"`

	// PositionChanges cuenta los cambios de posición ejecutados.
	PositionChanges int `json:"position_changes"`

	// TotalCost es el coste de transacción acumulado.
	TotalCost float64 `json:"total_cost"`

	// Cancelled indica que el run se cortó por cancelación del contexto;
	// la curva y las métricas cubren solo las velas procesadas.
	Cancelled bool `json:"cancelled,omitempty"`
}
