package domain

// errors.go — errores tipados del core de análisis.
//
// Cada error lleva el contexto necesario (trader, símbolo, rango temporal)
// para diagnosticar sin re-ejecutar. Ningún error se traga: los casos
// numéricamente degenerados (cero trades, varianza cero) se modelan como
// NaN, no como error.

import (
	"fmt"
	"strings"
	"time"
)

// InvalidInputError indica datos de entrada malformados o desordenados.
// Nunca se reparan silenciosamente.
type InvalidInputError struct {
	TraderID string
	Symbol   string
	At       time.Time
	Reason   string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input (trader=%s symbol=%s at=%s): %s",
		orDash(e.TraderID), orDash(e.Symbol), e.At.Format(time.RFC3339), e.Reason)
}

// InsufficientContextError indica que la ventana de klines necesaria para
// clasificar un trade no está disponible. Distingue "no hay patrón" de
// "no hay datos".
type InsufficientContextError struct {
	TraderID string
	Symbol   string
	At       time.Time
	Need     int // velas requeridas en la ventana
	Have     int // velas disponibles hasta el timestamp del trade
}

func (e *InsufficientContextError) Error() string {
	return fmt.Sprintf("insufficient kline context (trader=%s symbol=%s at=%s): need %d candles, have %d",
		orDash(e.TraderID), orDash(e.Symbol), e.At.Format(time.RFC3339), e.Need, e.Have)
}

// InvalidStrategyError indica que una política violó el límite de
// apalancamiento o capital del engine de backtest.
type InvalidStrategyError struct {
	StrategyID string
	Symbol     string
	At         time.Time
	Reason     string
}

func (e *InvalidStrategyError) Error() string {
	return fmt.Sprintf("invalid strategy %s (symbol=%s at=%s): %s",
		orDash(e.StrategyID), orDash(e.Symbol), e.At.Format(time.RFC3339), e.Reason)
}

// InvalidWeightsError indica una configuración de ranking inválida.
type InvalidWeightsError struct {
	Unknown []string // nombres de métrica no reconocidos
	Reason  string
}

func (e *InvalidWeightsError) Error() string {
	if len(e.Unknown) > 0 {
		return fmt.Sprintf("invalid ranking weights: unknown metrics [%s]", strings.Join(e.Unknown, ", "))
	}
	return "invalid ranking weights: " + e.Reason
}

// DataUnavailableError se propaga desde la capa de datos cuando no se pudo
// obtener trades o klines. El core no reintenta ni sustituye defaults —
// la política de retry pertenece a la capa de datos.
type DataUnavailableError struct {
	Source string // endpoint o recurso que falló
	Symbol string
	From   time.Time
	To     time.Time
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("data unavailable from %s (symbol=%s range=%s..%s): %v",
		e.Source, orDash(e.Symbol),
		e.From.Format(time.RFC3339), e.To.Format(time.RFC3339), e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
