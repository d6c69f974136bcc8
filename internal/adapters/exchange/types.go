package exchange

// DTOs raw de la API pública de Backpack. Solo se usan dentro de este
// paquete; la conversión a domain entities se hace en mapping.go. Precios y
// cantidades llegan como strings decimales.

// tradeDTO es una fila de GET /api/v1/trades.
type tradeDTO struct {
	ID            int64  `json:"id"`
	Price         string `json:"price"`
	Quantity      string `json:"quantity"`
	QuoteQuantity string `json:"quoteQuantity"`
	Timestamp     int64  `json:"timestamp"` // epoch en milisegundos
	IsBuyerMaker  bool   `json:"isBuyerMaker"`
}

// klineDTO es una vela de GET /api/v1/klines.
type klineDTO struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}
