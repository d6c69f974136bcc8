package domain

// TraderScore es una entrada del ranking compuesto.
type TraderScore struct {
	TraderID string  `json:"trader_id"`
	Score    float64 `json:"composite_score"`

	// ExcludedMetrics lista las métricas que quedaron fuera del score de
	// este trader por ser NaN (contribuyen 0). Se registra, no se lanza,
	// para que el caller pueda auditar las exclusiones.
	ExcludedMetrics []string `json:"excluded_metrics,omitempty"`
}

// PopulationSummary resume la población rankeada.
type PopulationSummary struct {
	TotalTraders   int     `json:"total_traders"`
	AvgWinRate     float64 `json:"avg_win_rate"`
	AvgReturn      float64 `json:"avg_return_rate"`
	AvgMaxDrawdown float64 `json:"avg_max_drawdown"`
	TopReturn      float64 `json:"top_return_rate"`
	TopWinRate     float64 `json:"top_win_rate"`
	MinMaxDrawdown float64 `json:"min_max_drawdown"`
}
