package backtest

// policy.go — definiciones de estrategia como capacidad pura.
//
// Una política es una función de decisión sobre la historia visible, no una
// jerarquía de clases: cualquier política se enchufa sin herencia. El engine
// garantiza que history nunca incluye velas posteriores al paso actual.

import (
	"github.com/google/uuid"

	"github.com/alejandrodnm/tradescope/internal/domain"
)

// Policy decide la posición objetivo dada la historia visible de klines
// (hasta la vela actual inclusive). Debe ser pura y determinista.
type Policy func(history []domain.Kline) domain.Position

// Definition identifica una política con nombre para registro y reporting.
type Definition struct {
	ID     string
	Name   string
	Decide Policy
}

// NewDefinition crea una Definition con ID generado si no se aporta uno.
func NewDefinition(id, name string, decide Policy) Definition {
	if id == "" {
		id = uuid.New().String()
	}
	return Definition{ID: id, Name: name, Decide: decide}
}

// Registry mantiene las definiciones disponibles indexadas por nombre.
type Registry map[string]Definition

// NewRegistry crea un registry con las políticas integradas registradas.
func NewRegistry() Registry {
	r := make(Registry)
	r.Register(NewDefinition("", "always-flat", AlwaysFlat()))
	r.Register(NewDefinition("", "buy-and-hold", BuyAndHold(1)))
	r.Register(NewDefinition("", "sma-cross", SMACross(7, 25, 1)))
	r.Register(NewDefinition("", "rsi-reversion", RSIReversion(14, 30, 70, 1)))
	return r
}

// Register añade una definición al registry.
func (r Registry) Register(d Definition) {
	r[d.Name] = d
}

// Get devuelve la definición por nombre.
func (r Registry) Get(name string) (Definition, bool) {
	d, ok := r[name]
	return d, ok
}

// Names devuelve los nombres registrados (sin orden garantizado).
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

// AlwaysFlat nunca toma posición. Ancla de test: su curva de equity es
// plana por construcción.
func AlwaysFlat() Policy {
	return func(_ []domain.Kline) domain.Position {
		return domain.Flat()
	}
}

// BuyAndHold compra qty en la primera vela y mantiene.
func BuyAndHold(qty float64) Policy {
	return func(_ []domain.Kline) domain.Position {
		return domain.Long(qty)
	}
}

// SMACross va largo cuando la media corta cruza sobre la larga y corto en
// el cruce inverso. Plano hasta tener historia suficiente.
func SMACross(short, long int, qty float64) Policy {
	return func(history []domain.Kline) domain.Position {
		if len(history) < long {
			return domain.Flat()
		}
		if smaClose(history, short) > smaClose(history, long) {
			return domain.Long(qty)
		}
		return domain.Short(qty)
	}
}

// RSIReversion compra en sobreventa (RSI < oversold) y vende en sobrecompra
// (RSI > overbought); plano entre medias.
func RSIReversion(period int, oversold, overbought float64, qty float64) Policy {
	return func(history []domain.Kline) domain.Position {
		if len(history) < period+1 {
			return domain.Flat()
		}

		var gains, losses float64
		tail := history[len(history)-period-1:]
		for i := 1; i < len(tail); i++ {
			delta := tail[i].Close - tail[i-1].Close
			if delta > 0 {
				gains += delta
			} else {
				losses += -delta
			}
		}

		rsi := 50.0
		switch {
		case losses == 0 && gains > 0:
			rsi = 100
		case losses > 0:
			rsi = 100 - 100/(1+gains/losses)
		}

		switch {
		case rsi < oversold:
			return domain.Long(qty)
		case rsi > overbought:
			return domain.Short(qty)
		default:
			return domain.Flat()
		}
	}
}

// smaClose es la media simple de los últimos n closes.
func smaClose(klines []domain.Kline, n int) float64 {
	if n > len(klines) {
		n = len(klines)
	}
	var sum float64
	for _, k := range klines[len(klines)-n:] {
		sum += k.Close
	}
	return sum / float64(n)
}
