package metrics

// curve.go — fórmulas compartidas sobre curvas de equity.
//
// Tanto el MetricsEngine (curva construida desde trades) como el
// BacktestEngine (curva sintética vela a vela) pasan por estas mismas
// funciones: una sola implementación de return/Sharpe/drawdown.

import (
	"math"
	"time"

	"github.com/alejandrodnm/tradescope/internal/domain"
)

const defaultPeriodsPerYear = 365 // buckets diarios

// CurveStats son las métricas derivadas de una curva de equity.
type CurveStats struct {
	TotalReturn float64
	SharpeRatio float64
	MaxDrawdown float64
}

// ComputeCurveStats calcula return total, Sharpe anualizado y max drawdown
// sobre una curva de equity con timestamps estrictamente crecientes.
//
//   - TotalReturn: (equity final - base) / base
//   - Sharpe: media de retornos diarios / desviación estándar muestral,
//     anualizado por √periodsPerYear. NaN con varianza cero o < 2 días.
//   - MaxDrawdown: máxima caída pico-valle como fracción del pico corriente,
//     acotada a [0,1].
//
// base debe ser > 0; con curva vacía devuelve NaN en todos los campos.
func ComputeCurveStats(curve []domain.EquityPoint, base, periodsPerYear float64) CurveStats {
	if len(curve) == 0 || base <= 0 {
		nan := math.NaN()
		return CurveStats{TotalReturn: nan, SharpeRatio: nan, MaxDrawdown: nan}
	}
	if periodsPerYear <= 0 {
		periodsPerYear = defaultPeriodsPerYear
	}

	final := curve[len(curve)-1].Equity

	return CurveStats{
		TotalReturn: (final - base) / base,
		SharpeRatio: sharpeRatio(dailyReturns(curve, base), periodsPerYear),
		MaxDrawdown: maxDrawdown(curve),
	}
}

// dailyReturns agrupa la curva en buckets por día UTC y devuelve el retorno
// de cada día como fracción del base.
func dailyReturns(curve []domain.EquityPoint, base float64) []float64 {
	var (
		returns    []float64
		prevEquity = base
		currentDay time.Time
		dayEnd     float64
		haveDay    bool
	)

	flush := func() {
		returns = append(returns, (dayEnd-prevEquity)/base)
		prevEquity = dayEnd
	}

	for _, p := range curve {
		day := p.Timestamp.UTC().Truncate(24 * time.Hour)
		if haveDay && !day.Equal(currentDay) {
			flush()
		}
		currentDay = day
		dayEnd = p.Equity
		haveDay = true
	}
	if haveDay {
		flush()
	}
	return returns
}

// sharpeRatio devuelve media/desviación muestral anualizada.
// NaN con menos de 2 buckets o desviación cero — nunca divide por cero.
func sharpeRatio(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var varianceSum float64
	for _, r := range returns {
		varianceSum += (r - mean) * (r - mean)
	}
	std := math.Sqrt(varianceSum / float64(len(returns)-1))
	if std == 0 {
		return math.NaN()
	}

	return mean / std * math.Sqrt(periodsPerYear)
}

// maxDrawdown devuelve la máxima caída desde el pico corriente, como
// fracción del pico. Acotada a [0,1] aunque la equity caiga bajo cero.
func maxDrawdown(curve []domain.EquityPoint) float64 {
	var peak, maxDD float64
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - p.Equity) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	if maxDD > 1 {
		maxDD = 1
	}
	if maxDD < 0 {
		maxDD = 0
	}
	return maxDD
}
