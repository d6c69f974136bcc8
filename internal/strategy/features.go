package strategy

// features.go — features de contexto de precio alrededor de un trade.
//
// Las features salen de una ventana móvil de klines que termina en la vela
// anterior o igual al timestamp del trade: medias móviles corta/larga, RSI,
// ratio de volumen contra la media de la ventana y posición del precio
// dentro del rango de la ventana.

import "github.com/alejandrodnm/tradescope/internal/domain"

// featureVector es el contexto local de precio de un trade.
type featureVector struct {
	maShort   float64
	maLong    float64
	trendSep  float64 // (maShort - maLong) / maLong
	rsi       float64
	volRatio  float64 // volumen última vela / media de la ventana
	pricePos  float64 // posición del precio del trade en el rango [low, high]
	lastClose float64
}

// trendUp: la vela cierra sobre la media corta y la corta separa de la
// larga más que el umbral de planitud.
func (f featureVector) trendUp(flatThreshold float64) bool {
	return f.lastClose > f.maShort && f.trendSep > flatThreshold
}

func (f featureVector) trendDown(flatThreshold float64) bool {
	return f.lastClose < f.maShort && f.trendSep < -flatThreshold
}

// computeFeatures calcula el vector de features sobre la ventana dada.
// window debe tener al menos longMA y rsiPeriod+1 velas.
func computeFeatures(window []domain.Kline, tradePrice float64, shortMA, longMA, rsiPeriod int) featureVector {
	closes := make([]float64, len(window))
	var volSum, high, low float64
	low = window[0].Low
	for i, k := range window {
		closes[i] = k.Close
		volSum += k.Volume
		if k.High > high {
			high = k.High
		}
		if k.Low < low {
			low = k.Low
		}
	}

	maShort := sma(closes, shortMA)
	maLong := sma(closes, longMA)

	var trendSep float64
	if maLong > 0 {
		trendSep = (maShort - maLong) / maLong
	}

	avgVol := volSum / float64(len(window))
	volRatio := 1.0
	if avgVol > 0 {
		volRatio = window[len(window)-1].Volume / avgVol
	}

	pricePos := 0.5
	if high > low {
		pricePos = clamp01((tradePrice - low) / (high - low))
	}

	return featureVector{
		maShort:   maShort,
		maLong:    maLong,
		trendSep:  trendSep,
		rsi:       rsi(closes, rsiPeriod),
		volRatio:  volRatio,
		pricePos:  pricePos,
		lastClose: closes[len(closes)-1],
	}
}

// sma es la media simple de los últimos n valores.
func sma(values []float64, n int) float64 {
	if n <= 0 || n > len(values) {
		n = len(values)
	}
	var sum float64
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// rsi calcula el RSI clásico con medias simples de ganancias y pérdidas
// sobre los últimos period cambios. Sin pérdidas devuelve 100; sin
// movimiento devuelve 50.
func rsi(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}

	var gains, losses float64
	tail := closes[len(closes)-period-1:]
	for i := 1; i < len(tail); i++ {
		delta := tail[i] - tail[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses += -delta
		}
	}

	if losses == 0 {
		if gains == 0 {
			return 50
		}
		return 100
	}

	rs := gains / losses
	return 100 - 100/(1+rs)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
