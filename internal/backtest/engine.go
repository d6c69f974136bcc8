package backtest

// engine.go — replay de una política contra una serie histórica de klines.
//
// El engine avanza vela a vela y solo expone a la política la historia con
// close_time <= la vela actual: el no-look-ahead se garantiza por
// construcción, no por disciplina de la política. Los fills se asumen al
// close de la vela de la señal (o al open de la siguiente, según config), y
// la equity se marca al close de cada vela.

import (
	"context"
	"math"

	"github.com/alejandrodnm/tradescope/internal/domain"
	"github.com/alejandrodnm/tradescope/internal/metrics"
)

const defaultMaxLeverage = 1.0

// Config ajusta el modelo de ejecución del engine.
type Config struct {
	// FillAtNextOpen ejecuta los cambios de posición al open de la vela
	// siguiente en vez del close de la vela de la señal.
	FillAtNextOpen bool

	// CostRate es el coste de transacción como fracción del notional,
	// aplicado en cada cambio de posición.
	CostRate float64

	// MaxLeverage acota el notional de la posición objetivo respecto a la
	// equity corriente. Con 0 se usa 1 (sin apalancamiento).
	MaxLeverage float64

	// PeriodsPerYear anualiza el Sharpe de la curva. Con 0 se usa 365.
	PeriodsPerYear float64
}

// Engine reproduce políticas contra series de velas. Stateless: una misma
// instancia sirve para runs concurrentes de distintas estrategias.
type Engine struct {
	cfg Config
}

// NewEngine crea un Engine con la configuración dada.
func NewEngine(cfg Config) *Engine {
	if cfg.MaxLeverage <= 0 {
		cfg.MaxLeverage = defaultMaxLeverage
	}
	return &Engine{cfg: cfg}
}

// Run reproduce la definición sobre la serie y devuelve la curva de equity
// con las métricas calculadas por las mismas fórmulas que el MetricsEngine.
//
// Errores: *domain.InvalidInputError con serie vacía, multi-símbolo,
// malformada o capital no positivo; *domain.InvalidStrategyError si la
// política pide más apalancamiento que cfg.MaxLeverage.
//
// La cancelación es cooperativa: se comprueba en cada vela y devuelve el
// resultado parcial con Cancelled=true, nunca un error.
func (e *Engine) Run(ctx context.Context, def Definition, prices []domain.Kline, initialCapital float64) (domain.BacktestResult, error) {
	if len(prices) == 0 {
		return domain.BacktestResult{}, &domain.InvalidInputError{Reason: "empty kline series"}
	}
	if initialCapital <= 0 {
		return domain.BacktestResult{}, &domain.InvalidInputError{
			Symbol: prices[0].Symbol,
			Reason: "non-positive initial capital",
		}
	}
	if err := domain.ValidateKlines(prices); err != nil {
		return domain.BacktestResult{}, err
	}
	symbol := prices[0].Symbol
	for _, k := range prices {
		if k.Symbol != symbol {
			return domain.BacktestResult{}, &domain.InvalidInputError{
				Symbol: k.Symbol, At: k.OpenTime,
				Reason: "mixed symbols in kline series",
			}
		}
	}

	var (
		cash      = initialCapital
		posQty    float64 // cantidad con signo
		changes   int
		totalCost float64
		curve     = make([]domain.EquityPoint, 0, len(prices))
		cancelled bool

		pendingTarget float64
		havePending   bool
	)

	fill := func(target, price float64) {
		delta := target - posQty
		if delta == 0 {
			return
		}
		cost := math.Abs(delta) * price * e.cfg.CostRate
		cash -= delta * price
		cash -= cost
		totalCost += cost
		posQty = target
		changes++
	}

	for i, k := range prices {
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
		if cancelled {
			break
		}

		// Fill diferido de la señal de la vela anterior
		if havePending {
			fill(pendingTarget, k.Open)
			havePending = false
		}

		// La política solo ve la historia hasta la vela actual; el cap del
		// slice impide que un append desde la política pise la serie.
		visible := prices[: i+1 : i+1]
		target := def.Decide(visible).Signed()

		equity := cash + posQty*k.Close
		if notional := math.Abs(target) * k.Close; notional > equity*e.cfg.MaxLeverage {
			return domain.BacktestResult{}, &domain.InvalidStrategyError{
				StrategyID: def.ID,
				Symbol:     symbol,
				At:         k.CloseTime,
				Reason:     "target position exceeds max leverage",
			}
		}

		if target != posQty {
			if e.cfg.FillAtNextOpen {
				pendingTarget = target
				havePending = true
			} else {
				fill(target, k.Close)
			}
		}

		curve = append(curve, domain.EquityPoint{
			Timestamp: k.CloseTime,
			Equity:    cash + posQty*k.Close,
		})
	}

	result := domain.BacktestResult{
		StrategyID:      def.ID,
		Symbol:          symbol,
		EquityCurve:     curve,
		PositionChanges: changes,
		TotalCost:       totalCost,
		Cancelled:       cancelled,
	}
	if len(curve) > 0 {
		result.PeriodStart = prices[0].OpenTime
		result.PeriodEnd = curve[len(curve)-1].Timestamp
		result.Metrics = curveMetrics(def.ID, symbol, curve, initialCapital, changes, e.cfg.PeriodsPerYear)
	}
	return result, nil
}

// curveMetrics construye PerformanceMetrics desde la curva sintética usando
// la implementación compartida (no reimplementa las fórmulas). Los campos
// por round trip no aplican a una curva sintética y quedan en NaN.
func curveMetrics(strategyID, symbol string, curve []domain.EquityPoint, base float64, changes int, periodsPerYear float64) domain.PerformanceMetrics {
	stats := metrics.ComputeCurveStats(curve, base, periodsPerYear)
	nan := math.NaN()
	return domain.PerformanceMetrics{
		TraderID:       strategyID,
		SymbolScope:    symbol,
		PeriodStart:    curve[0].Timestamp,
		PeriodEnd:      curve[len(curve)-1].Timestamp,
		NumTrades:      changes,
		TotalReturn:    stats.TotalReturn,
		SharpeRatio:    stats.SharpeRatio,
		MaxDrawdown:    stats.MaxDrawdown,
		WinRate:        nan,
		ProfitFactor:   nan,
		AvgWin:         nan,
		AvgLoss:        nan,
		LargestWin:     nan,
		LargestLoss:    nan,
		MostActiveHour: -1,
	}
}
