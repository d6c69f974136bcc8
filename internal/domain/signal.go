package domain

import "time"

// StrategyType es el tipo de estrategia inferido para un trade.
type StrategyType string

const (
	StrategyTrendFollowing StrategyType = "trend-following"
	StrategyMeanReversion  StrategyType = "mean-reversion"
	StrategyMarketMaking   StrategyType = "market-making"
	StrategyUnknown        StrategyType = "unknown"
)

// StrategySignal es la clasificación de un trade individual.
// La confianza sale de un set de reglas determinista (distancia normalizada
// al umbral de la regla), no de un modelo estadístico.
type StrategySignal struct {
	TraderID     string       `json:"trader_id"`
	Timestamp    time.Time    `json:"timestamp"`
	InferredType StrategyType `json:"inferred_type"`
	Confidence   float64      `json:"confidence"` // ∈[0,1]
}

// StrategyEpisode agrupa señales consecutivas del mismo tipo.
// Es la unidad que se reporta: "el trader operó mean-reversion de X a Y".
type StrategyEpisode struct {
	TraderID      string       `json:"trader_id"`
	Type          StrategyType `json:"type"`
	Start         time.Time    `json:"start"`
	End           time.Time    `json:"end"`
	Signals       int          `json:"signals"`
	AvgConfidence float64      `json:"avg_confidence"`
}
