package metrics

// engine.go — cálculo de métricas de performance por trader.
//
// El engine empareja round trips con matching FIFO por símbolo:
// un BUY abre lotes que los SELL posteriores van cerrando en orden (y al
// revés para cortos). El inventario abierto al final del período queda fuera
// del denominador del win rate, pero entra en el return total marcado al
// último close de kline disponible.

import (
	"math"
	"time"

	"github.com/alejandrodnm/tradescope/internal/domain"
)

// qtyEpsilon absorbe el residuo de coma flotante al consumir lotes.
const qtyEpsilon = 1e-12

// Config ajusta el cálculo de métricas.
type Config struct {
	// NotionalBase es el denominador del return total.
	// Con 0 se usa el pico de capital comprometido.
	NotionalBase float64

	// PeriodsPerYear anualiza el Sharpe. Con 0 se usa 365 (buckets diarios).
	PeriodsPerYear float64
}

// Engine computa PerformanceMetrics desde el historial de trades de un trader.
// Stateless: la misma instancia puede usarse concurrentemente.
type Engine struct {
	cfg Config
}

// NewEngine crea un Engine con la configuración dada.
func NewEngine(cfg Config) *Engine {
	if cfg.PeriodsPerYear <= 0 {
		cfg.PeriodsPerYear = defaultPeriodsPerYear
	}
	return &Engine{cfg: cfg}
}

// lot es inventario abierto a un precio de entrada.
type lot struct {
	qty   float64
	price float64
}

// book es el inventario abierto de un símbolo. side es el lado de los lotes:
// un trade del lado contrario cierra FIFO; el sobrante da la vuelta al book.
type book struct {
	side domain.Side
	lots []lot
}

// Compute calcula las métricas del período cubierto por los trades.
//
// trades debe venir ordenado estrictamente ascendente por timestamp, con
// precios y cantidades positivas — si no, *domain.InvalidInputError.
// prices es opcional: aporta el close para mark-to-market del inventario
// residual. Con trades vacío devuelve métricas con num_trades=0 y NaN en
// los ratios, nunca un error.
func (e *Engine) Compute(trades []domain.Trade, prices []domain.Kline) (domain.PerformanceMetrics, error) {
	if len(trades) == 0 {
		return emptyMetrics(), nil
	}
	if err := domain.ValidateTrades(trades); err != nil {
		return domain.PerformanceMetrics{}, err
	}
	if err := domain.ValidateKlines(prices); err != nil {
		return domain.PerformanceMetrics{}, err
	}

	var (
		books         = make(map[string]*book)
		lastPrice     = make(map[string]float64)
		realized      float64
		tripPnLs      []float64
		pnlSeries     = make([]float64, 0, len(trades))
		times         = make([]time.Time, 0, len(trades))
		hourCounts    [24]int
		peakCommitted float64
	)

	for _, t := range trades {
		hourCounts[t.Timestamp.UTC().Hour()]++
		lastPrice[t.Symbol] = t.Price

		realized += applyTrade(books, t, &tripPnLs)

		if committed := totalCommitted(books); committed > peakCommitted {
			peakCommitted = committed
		}
		pnlSeries = append(pnlSeries, realized+unrealizedPnL(books, lastPrice))
		times = append(times, t.Timestamp)
	}

	// Mark-to-market final del inventario residual contra el último close
	// de kline disponible; sin klines para el símbolo, último precio tradeado.
	finalMarks := lastPrice
	if len(prices) > 0 {
		finalMarks = make(map[string]float64, len(lastPrice))
		for sym, p := range lastPrice {
			finalMarks[sym] = p
		}
		for sym, c := range domain.LastCloseBySymbol(prices) {
			if _, traded := finalMarks[sym]; traded {
				finalMarks[sym] = c
			}
		}
	}
	finalPnL := realized + unrealizedPnL(books, finalMarks)

	// El período se extiende hasta el último close de los símbolos
	// tradeados; velas de otros símbolos no cuentan.
	periodEnd := times[len(times)-1]
	var lastClose time.Time
	for _, k := range prices {
		if _, traded := lastPrice[k.Symbol]; traded && k.CloseTime.After(lastClose) {
			lastClose = k.CloseTime
		}
	}
	if lastClose.After(periodEnd) {
		periodEnd = lastClose
		pnlSeries = append(pnlSeries, finalPnL)
		times = append(times, periodEnd)
	} else {
		pnlSeries[len(pnlSeries)-1] = finalPnL
	}

	base := e.cfg.NotionalBase
	if base <= 0 {
		base = peakCommitted
	}

	curve := make([]domain.EquityPoint, len(pnlSeries))
	for i, pnl := range pnlSeries {
		curve[i] = domain.EquityPoint{Timestamp: times[i], Equity: base + pnl}
	}
	stats := ComputeCurveStats(curve, base, e.cfg.PeriodsPerYear)

	m := domain.PerformanceMetrics{
		TraderID:       trades[0].TraderID,
		SymbolScope:    symbolScope(trades),
		PeriodStart:    trades[0].Timestamp,
		PeriodEnd:      periodEnd,
		NumTrades:      len(trades),
		RoundTrips:     len(tripPnLs),
		TotalReturn:    stats.TotalReturn,
		SharpeRatio:    stats.SharpeRatio,
		MaxDrawdown:    stats.MaxDrawdown,
		MostActiveHour: mostActiveHour(hourCounts),
	}
	fillTripStats(&m, tripPnLs)
	return m, nil
}

// applyTrade empareja el trade contra el book del símbolo y devuelve el
// P&L realizado. Cada lote cerrado (total o parcialmente) cuenta como un
// round trip en tripPnLs.
func applyTrade(books map[string]*book, t domain.Trade, tripPnLs *[]float64) float64 {
	b, ok := books[t.Symbol]
	if !ok {
		b = &book{side: t.Side}
		books[t.Symbol] = b
	}

	if len(b.lots) == 0 || b.side == t.Side {
		b.side = t.Side
		b.lots = append(b.lots, lot{qty: t.Quantity, price: t.Price})
		return 0
	}

	var realized float64
	rem := t.Quantity
	for rem > qtyEpsilon && len(b.lots) > 0 {
		l := &b.lots[0]
		q := math.Min(rem, l.qty)

		var pnl float64
		if b.side == domain.SideBuy {
			pnl = (t.Price - l.price) * q // largo cerrado con SELL
		} else {
			pnl = (l.price - t.Price) * q // corto cerrado con BUY
		}
		realized += pnl
		*tripPnLs = append(*tripPnLs, pnl)

		l.qty -= q
		rem -= q
		if l.qty <= qtyEpsilon {
			b.lots = b.lots[1:]
		}
	}

	// Sobrante del lado contrario: el book da la vuelta
	if rem > qtyEpsilon {
		b.side = t.Side
		b.lots = append(b.lots, lot{qty: rem, price: t.Price})
	}
	return realized
}

// totalCommitted devuelve el capital comprometido en inventario abierto.
func totalCommitted(books map[string]*book) float64 {
	var total float64
	for _, b := range books {
		for _, l := range b.lots {
			total += l.qty * l.price
		}
	}
	return total
}

// unrealizedPnL marca el inventario abierto a los precios dados.
func unrealizedPnL(books map[string]*book, marks map[string]float64) float64 {
	var total float64
	for sym, b := range books {
		mark, ok := marks[sym]
		if !ok {
			continue
		}
		for _, l := range b.lots {
			if b.side == domain.SideBuy {
				total += (mark - l.price) * l.qty
			} else {
				total += (l.price - mark) * l.qty
			}
		}
	}
	return total
}

// fillTripStats completa win rate y estadísticas por round trip.
func fillTripStats(m *domain.PerformanceMetrics, trips []float64) {
	nan := math.NaN()
	if len(trips) == 0 {
		m.WinRate = nan
		m.ProfitFactor = nan
		m.AvgWin, m.AvgLoss = nan, nan
		m.LargestWin, m.LargestLoss = nan, nan
		return
	}

	var (
		wins, losses        int
		grossWin, grossLoss float64
		largestW, largestL  float64
	)
	for _, pnl := range trips {
		if pnl > 0 {
			wins++
			grossWin += pnl
			if pnl > largestW {
				largestW = pnl
			}
		} else if pnl < 0 {
			losses++
			grossLoss += -pnl
			if -pnl > largestL {
				largestL = -pnl
			}
		}
	}

	m.WinRate = float64(wins) / float64(len(trips))

	switch {
	case grossLoss > 0:
		m.ProfitFactor = grossWin / grossLoss
	case grossWin > 0:
		m.ProfitFactor = math.Inf(1) // solo ganancias — se serializa como null
	default:
		m.ProfitFactor = nan
	}

	m.AvgWin, m.LargestWin = nan, nan
	if wins > 0 {
		m.AvgWin = grossWin / float64(wins)
		m.LargestWin = largestW
	}
	m.AvgLoss, m.LargestLoss = nan, nan
	if losses > 0 {
		m.AvgLoss = -grossLoss / float64(losses)
		m.LargestLoss = -largestL
	}
}

// symbolScope devuelve el símbolo si todos los trades son del mismo, o "all".
func symbolScope(trades []domain.Trade) string {
	scope := trades[0].Symbol
	for _, t := range trades[1:] {
		if t.Symbol != scope {
			return domain.SymbolScopeAll
		}
	}
	return scope
}

// mostActiveHour devuelve la hora UTC con más trades; empates a la menor.
func mostActiveHour(counts [24]int) int {
	best, bestCount := -1, 0
	for h, c := range counts {
		if c > bestCount {
			best, bestCount = h, c
		}
	}
	return best
}

// emptyMetrics es el resultado para un período sin trades: estado válido,
// no un error.
func emptyMetrics() domain.PerformanceMetrics {
	nan := math.NaN()
	return domain.PerformanceMetrics{
		SymbolScope:    domain.SymbolScopeAll,
		NumTrades:      0,
		WinRate:        nan,
		TotalReturn:    nan,
		SharpeRatio:    nan,
		MaxDrawdown:    nan,
		ProfitFactor:   nan,
		AvgWin:         nan,
		AvgLoss:        nan,
		LargestWin:     nan,
		LargestLoss:    nan,
		MostActiveHour: -1,
	}
}
