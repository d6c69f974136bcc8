package domain

import "time"

// Interval es la resolución temporal de una vela. Set fijo — cualquier otro
// valor se rechaza en el borde.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

var intervalDurations = map[Interval]time.Duration{
	Interval1m:  time.Minute,
	Interval5m:  5 * time.Minute,
	Interval15m: 15 * time.Minute,
	Interval1h:  time.Hour,
	Interval4h:  4 * time.Hour,
	Interval1d:  24 * time.Hour,
}

// ParseInterval convierte un string al Interval correspondiente.
// Devuelve false si no pertenece al set enumerado.
func ParseInterval(s string) (Interval, bool) {
	iv := Interval(s)
	_, ok := intervalDurations[iv]
	return iv, ok
}

// Duration devuelve la duración de una vela de este intervalo.
// Devuelve 0 para intervalos desconocidos.
func (iv Interval) Duration() time.Duration {
	return intervalDurations[iv]
}

// Kline es una vela OHLCV. Inmutable una vez registrada.
type Kline struct {
	Symbol    string    `json:"symbol"`
	Interval  Interval  `json:"interval"`
	OpenTime  time.Time `json:"open_time"`
	CloseTime time.Time `json:"close_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// ValidateKlines verifica los invariantes de una serie de velas:
// precios positivos, volumen no negativo, open_time < close_time, y velas
// del mismo intervalo contiguas y sin solaparse.
// Devuelve *InvalidInputError con el contexto de la primera vela inválida.
func ValidateKlines(klines []Kline) error {
	for i, k := range klines {
		if _, ok := intervalDurations[k.Interval]; !ok {
			return &InvalidInputError{
				Symbol: k.Symbol, At: k.OpenTime,
				Reason: "unknown interval " + string(k.Interval),
			}
		}
		if k.Open <= 0 || k.High <= 0 || k.Low <= 0 || k.Close <= 0 {
			return &InvalidInputError{
				Symbol: k.Symbol, At: k.OpenTime,
				Reason: "non-positive OHLC price",
			}
		}
		if k.Volume < 0 {
			return &InvalidInputError{
				Symbol: k.Symbol, At: k.OpenTime,
				Reason: "negative volume",
			}
		}
		if !k.OpenTime.Before(k.CloseTime) {
			return &InvalidInputError{
				Symbol: k.Symbol, At: k.OpenTime,
				Reason: "open_time not before close_time",
			}
		}
		if i == 0 {
			continue
		}
		prev := klines[i-1]
		if prev.Symbol == k.Symbol && prev.Interval == k.Interval {
			if k.OpenTime.Before(prev.CloseTime) {
				return &InvalidInputError{
					Symbol: k.Symbol, At: k.OpenTime,
					Reason: "overlapping candles",
				}
			}
		}
	}
	return nil
}

// LastCloseBySymbol devuelve el último close disponible por símbolo.
// Usado para mark-to-market del inventario abierto.
func LastCloseBySymbol(klines []Kline) map[string]float64 {
	closes := make(map[string]float64)
	for _, k := range klines {
		closes[k.Symbol] = k.Close
	}
	return closes
}
