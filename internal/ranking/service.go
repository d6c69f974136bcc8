package ranking

// Service agrega métricas de rendimiento por trader en un score compuesto y
// produce un ranking determinista. No muta las métricas de entrada.
//
// La normalización es por llamada: los z-scores se calculan sobre la
// población recibida, nunca se cachean entre llamadas. Los valores NaN o
// infinitos quedan fuera de la normalización, contribuyen 0 al score y se
// anotan en ExcludedMetrics para que el caller pueda auditarlos.

import (
	"math"
	"sort"

	"github.com/alejandrodnm/tradescope/internal/domain"
)

// metricAccessors mapea los nombres de métrica rankeables a su campo. El
// signo del peso lo decide el caller (drawdown suele llevar peso negativo).
var metricAccessors = map[string]func(domain.PerformanceMetrics) float64{
	"win_rate":      func(m domain.PerformanceMetrics) float64 { return m.WinRate },
	"total_return":  func(m domain.PerformanceMetrics) float64 { return m.TotalReturn },
	"sharpe_ratio":  func(m domain.PerformanceMetrics) float64 { return m.SharpeRatio },
	"max_drawdown":  func(m domain.PerformanceMetrics) float64 { return m.MaxDrawdown },
	"profit_factor": func(m domain.PerformanceMetrics) float64 { return m.ProfitFactor },
}

// MetricNames devuelve los nombres de métrica aceptados en los pesos.
func MetricNames() []string {
	names := make([]string, 0, len(metricAccessors))
	for name := range metricAccessors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Service calcula rankings compuestos. Stateless y seguro para uso
// concurrente.
type Service struct{}

// NewService crea un Service.
func NewService() *Service {
	return &Service{}
}

// Rank calcula el score compuesto de cada trader como suma ponderada de los
// z-scores de sus métricas y devuelve la lista ordenada por score
// descendente, con empates resueltos por trader_id ascendente.
//
// Devuelve *domain.InvalidWeightsError si algún peso referencia una métrica
// desconocida o la suma de pesos es cero. Con entrada vacía devuelve un
// slice vacío sin error.
func (s *Service) Rank(metrics []domain.PerformanceMetrics, weights map[string]float64) ([]domain.TraderScore, error) {
	if err := validateWeights(weights); err != nil {
		return nil, err
	}
	if len(metrics) == 0 {
		return []domain.TraderScore{}, nil
	}

	scores := make([]domain.TraderScore, len(metrics))
	for i, m := range metrics {
		scores[i].TraderID = m.TraderID
	}

	// Orden estable de métricas para que ExcludedMetrics sea determinista.
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		accessor := metricAccessors[name]
		mean, std := populationStats(metrics, accessor)
		for i, m := range metrics {
			v := accessor(m)
			if !isFinite(v) {
				scores[i].ExcludedMetrics = append(scores[i].ExcludedMetrics, name)
				continue
			}
			if std > 0 {
				scores[i].Score += weights[name] * (v - mean) / std
			}
		}
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].TraderID < scores[j].TraderID
	})
	return scores, nil
}

// Summarize resume la población de métricas para el reporte de consola.
// Las medias y extremos se calculan solo sobre valores finitos; sin ningún
// valor finito el campo queda en NaN.
func (s *Service) Summarize(metrics []domain.PerformanceMetrics) domain.PopulationSummary {
	return domain.PopulationSummary{
		TotalTraders:   len(metrics),
		AvgWinRate:     finiteMean(metrics, metricAccessors["win_rate"]),
		AvgReturn:      finiteMean(metrics, metricAccessors["total_return"]),
		AvgMaxDrawdown: finiteMean(metrics, metricAccessors["max_drawdown"]),
		TopReturn:      finiteExtreme(metrics, metricAccessors["total_return"], func(a, b float64) bool { return a > b }),
		TopWinRate:     finiteExtreme(metrics, metricAccessors["win_rate"], func(a, b float64) bool { return a > b }),
		MinMaxDrawdown: finiteExtreme(metrics, metricAccessors["max_drawdown"], func(a, b float64) bool { return a < b }),
	}
}

func validateWeights(weights map[string]float64) error {
	var unknown []string
	var sum float64
	for name, w := range weights {
		if _, ok := metricAccessors[name]; !ok {
			unknown = append(unknown, name)
			continue
		}
		sum += w
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &domain.InvalidWeightsError{Unknown: unknown}
	}
	if sum == 0 {
		return &domain.InvalidWeightsError{Reason: "weights sum to zero"}
	}
	return nil
}

// populationStats devuelve media y desviación típica poblacional de los
// valores finitos. Con menos de dos valores finitos la desviación es 0 y la
// métrica no discrimina en esta llamada.
func populationStats(metrics []domain.PerformanceMetrics, accessor func(domain.PerformanceMetrics) float64) (mean, std float64) {
	var sum float64
	var n int
	for _, m := range metrics {
		if v := accessor(m); isFinite(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	mean = sum / float64(n)

	var variance float64
	for _, m := range metrics {
		if v := accessor(m); isFinite(v) {
			d := v - mean
			variance += d * d
		}
	}
	return mean, math.Sqrt(variance / float64(n))
}

func finiteMean(metrics []domain.PerformanceMetrics, accessor func(domain.PerformanceMetrics) float64) float64 {
	var sum float64
	var n int
	for _, m := range metrics {
		if v := accessor(m); isFinite(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func finiteExtreme(metrics []domain.PerformanceMetrics, accessor func(domain.PerformanceMetrics) float64, better func(a, b float64) bool) float64 {
	best := math.NaN()
	for _, m := range metrics {
		v := accessor(m)
		if !isFinite(v) {
			continue
		}
		if math.IsNaN(best) || better(v, best) {
			best = v
		}
	}
	return best
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
