package strategy

// analyzer.go — clasificación de trades en tipos de estrategia inferidos.
//
// Reglas deterministas, sin modelo entrenado:
//   - trade alineado con el trend y con surge de volumen ⇒ trend-following
//   - trade contra el trend vigente ⇒ mean-reversion
//   - trend plano + alternancia de lados cerca del centro del rango
//     ⇒ market-making
//   - lo demás ⇒ unknown
//
// La confianza es la distancia normalizada de las features al umbral de la
// regla que aplicó, acotada a [0,1].

import (
	"sort"

	"github.com/alejandrodnm/tradescope/internal/domain"
)

const (
	defaultLookback      = 26
	defaultShortMA       = 7
	defaultLongMA        = 25
	defaultRSIPeriod     = 14
	defaultVolumeSurge   = 1.5
	defaultFlatThreshold = 0.001
	defaultMidBand       = 0.15 // media banda alrededor de 0.5 para market-making

	// maxAlternation acota el streak de alternancia que satura la
	// confianza de market-making.
	maxAlternation = 4
)

// Config ajusta la ventana de contexto y los umbrales de las reglas.
type Config struct {
	Lookback      int     // velas requeridas antes de cada trade
	ShortMA       int     // período de la media corta
	LongMA        int     // período de la media larga
	RSIPeriod     int     // período del RSI
	VolumeSurge   float64 // ratio de volumen mínimo para trend-following
	FlatThreshold float64 // separación de medias bajo la cual el trend es plano
	MidBand       float64 // distancia a 0.5 del rango para market-making
}

// Analyzer clasifica la secuencia de trades de un trader.
// Stateless entre llamadas: seguro para uso concurrente.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer crea un Analyzer aplicando defaults a los campos en cero.
// El lookback nunca baja del mínimo que exigen las medias y el RSI.
func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.ShortMA <= 0 {
		cfg.ShortMA = defaultShortMA
	}
	if cfg.LongMA <= 0 {
		cfg.LongMA = defaultLongMA
	}
	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = defaultRSIPeriod
	}
	if cfg.VolumeSurge <= 0 {
		cfg.VolumeSurge = defaultVolumeSurge
	}
	if cfg.FlatThreshold <= 0 {
		cfg.FlatThreshold = defaultFlatThreshold
	}
	if cfg.MidBand <= 0 {
		cfg.MidBand = defaultMidBand
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaultLookback
	}
	if cfg.Lookback < cfg.LongMA {
		cfg.Lookback = cfg.LongMA
	}
	if cfg.Lookback < cfg.RSIPeriod+1 {
		cfg.Lookback = cfg.RSIPeriod + 1
	}
	return &Analyzer{cfg: cfg}
}

// Analyze devuelve una señal por trade, en el mismo orden que la entrada.
//
// Si para algún trade no hay ventana de lookback completa en prices,
// devuelve *domain.InsufficientContextError — el caller distingue así
// "no hay patrón" de "no hay datos".
func (a *Analyzer) Analyze(trades []domain.Trade, prices []domain.Kline) ([]domain.StrategySignal, error) {
	if err := domain.ValidateTrades(trades); err != nil {
		return nil, err
	}
	if err := domain.ValidateKlines(prices); err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, nil
	}

	bySymbol := make(map[string][]domain.Kline)
	for _, k := range prices {
		bySymbol[k.Symbol] = append(bySymbol[k.Symbol], k)
	}

	// Estado de alternancia por símbolo para la regla de market-making
	type alternation struct {
		lastSide domain.Side
		streak   int
	}
	alt := make(map[string]*alternation)

	signals := make([]domain.StrategySignal, 0, len(trades))
	for _, t := range trades {
		series := bySymbol[t.Symbol]
		n := sort.Search(len(series), func(i int) bool {
			return series[i].CloseTime.After(t.Timestamp)
		})
		if n < a.cfg.Lookback {
			return nil, &domain.InsufficientContextError{
				TraderID: t.TraderID,
				Symbol:   t.Symbol,
				At:       t.Timestamp,
				Need:     a.cfg.Lookback,
				Have:     n,
			}
		}
		window := series[n-a.cfg.Lookback : n]

		st := alt[t.Symbol]
		if st == nil {
			st = &alternation{}
			alt[t.Symbol] = st
		}
		if st.lastSide != "" && st.lastSide != t.Side {
			st.streak++
		} else {
			st.streak = 0
		}
		st.lastSide = t.Side

		feats := computeFeatures(window, t.Price, a.cfg.ShortMA, a.cfg.LongMA, a.cfg.RSIPeriod)
		inferred, confidence := a.classify(t, feats, st.streak)

		signals = append(signals, domain.StrategySignal{
			TraderID:     t.TraderID,
			Timestamp:    t.Timestamp,
			InferredType: inferred,
			Confidence:   confidence,
		})
	}
	return signals, nil
}

// classify aplica las reglas en orden fijo y devuelve tipo + confianza.
func (a *Analyzer) classify(t domain.Trade, f featureVector, altStreak int) (domain.StrategyType, float64) {
	up := f.trendUp(a.cfg.FlatThreshold)
	down := f.trendDown(a.cfg.FlatThreshold)

	// Fuerza del trend: separación de medias normalizada a 5× el umbral
	sepNorm := clamp01(abs(f.trendSep) / (5 * a.cfg.FlatThreshold))

	aligned := (up && t.Side == domain.SideBuy) || (down && t.Side == domain.SideSell)
	against := (up && t.Side == domain.SideSell) || (down && t.Side == domain.SideBuy)

	switch {
	case aligned && f.volRatio >= a.cfg.VolumeSurge:
		// Surge normalizado: volRatio en el umbral = 0, al doble del umbral = 1
		volNorm := clamp01((f.volRatio - a.cfg.VolumeSurge) / a.cfg.VolumeSurge)
		return domain.StrategyTrendFollowing, 0.5*sepNorm + 0.5*volNorm

	case against:
		// RSI extremo refuerza la lectura contrarian: vender caro (RSI
		// alto) o comprar barato (RSI bajo).
		var rsiNorm float64
		if t.Side == domain.SideSell {
			rsiNorm = clamp01((f.rsi - 50) / 50)
		} else {
			rsiNorm = clamp01((50 - f.rsi) / 50)
		}
		return domain.StrategyMeanReversion, 0.5*sepNorm + 0.5*rsiNorm

	case !up && !down && altStreak > 0 && abs(f.pricePos-0.5) <= a.cfg.MidBand:
		// Mercado plano, lados alternando cerca del centro del rango:
		// perfil de maker capturando spread.
		center := 1 - abs(f.pricePos-0.5)/a.cfg.MidBand
		streak := clamp01(float64(altStreak) / maxAlternation)
		return domain.StrategyMarketMaking, 0.5*clamp01(center) + 0.5*streak

	default:
		return domain.StrategyUnknown, 0
	}
}

// Episodes agrupa señales consecutivas del mismo tipo en episodios.
// Asume las señales en orden de entrada (el orden de los trades).
func Episodes(signals []domain.StrategySignal) []domain.StrategyEpisode {
	var episodes []domain.StrategyEpisode
	for _, s := range signals {
		last := len(episodes) - 1
		if last >= 0 &&
			episodes[last].TraderID == s.TraderID &&
			episodes[last].Type == s.InferredType {
			ep := &episodes[last]
			ep.AvgConfidence = (ep.AvgConfidence*float64(ep.Signals) + s.Confidence) / float64(ep.Signals+1)
			ep.Signals++
			ep.End = s.Timestamp
			continue
		}
		episodes = append(episodes, domain.StrategyEpisode{
			TraderID:      s.TraderID,
			Type:          s.InferredType,
			Start:         s.Timestamp,
			End:           s.Timestamp,
			Signals:       1,
			AvgConfidence: s.Confidence,
		})
	}
	return episodes
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
