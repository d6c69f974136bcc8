package domain

import "time"

// Side es la dirección de un trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid devuelve true si el side es uno de los valores conocidos.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Trade representa una ejecución histórica de un trader.
// Inmutable una vez registrado — nunca se repara ni se reordena.
type Trade struct {
	TraderID  string    `json:"trader_id"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// Notional devuelve el valor del trade (precio × cantidad).
func (t Trade) Notional() float64 {
	return t.Price * t.Quantity
}

// ValidateTrades verifica que la secuencia esté estrictamente ordenada por
// timestamp y que cada trade tenga precio y cantidad positivos.
// Devuelve *InvalidInputError con el contexto del primer trade inválido.
// Los datos malformados se rechazan en el borde, nunca se reparan.
func ValidateTrades(trades []Trade) error {
	for i, t := range trades {
		if !t.Side.Valid() {
			return &InvalidInputError{
				TraderID: t.TraderID, Symbol: t.Symbol, At: t.Timestamp,
				Reason: "unknown side " + string(t.Side),
			}
		}
		if t.Price <= 0 {
			return &InvalidInputError{
				TraderID: t.TraderID, Symbol: t.Symbol, At: t.Timestamp,
				Reason: "non-positive price",
			}
		}
		if t.Quantity <= 0 {
			return &InvalidInputError{
				TraderID: t.TraderID, Symbol: t.Symbol, At: t.Timestamp,
				Reason: "non-positive quantity",
			}
		}
		if i > 0 && !trades[i-1].Timestamp.Before(t.Timestamp) {
			return &InvalidInputError{
				TraderID: t.TraderID, Symbol: t.Symbol, At: t.Timestamp,
				Reason: "timestamps not strictly ascending",
			}
		}
	}
	return nil
}
