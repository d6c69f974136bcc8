package exchange

import (
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/alejandrodnm/tradescope/internal/domain"
)

// Backpack serializa los timestamps de kline como hora "civil" sin zona.
var klineLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// mapTrades convierte los DTOs a domain.Trade filtrando al rango [from, to]
// y estampando el traderID. Las filas malformadas se descartan en este
// borde; el resultado queda ordenado ascendente por timestamp.
//
// IsBuyerMaker=true significa que el agresor vendió contra un maker
// comprador, así que el trade se registra como venta.
func mapTrades(raw []tradeDTO, traderID, symbol string, from, to time.Time) []domain.Trade {
	trades := make([]domain.Trade, 0, len(raw))
	for _, r := range raw {
		price, errP := strconv.ParseFloat(r.Price, 64)
		qty, errQ := strconv.ParseFloat(r.Quantity, 64)
		if errP != nil || errQ != nil || price <= 0 || qty <= 0 {
			slog.Debug("dropping malformed trade row", "symbol", symbol, "id", r.ID)
			continue
		}

		ts := time.UnixMilli(r.Timestamp).UTC()
		if ts.Before(from) || ts.After(to) {
			continue
		}

		side := domain.SideBuy
		if r.IsBuyerMaker {
			side = domain.SideSell
		}
		trades = append(trades, domain.Trade{
			TraderID:  traderID,
			Symbol:    symbol,
			Side:      side,
			Price:     price,
			Quantity:  qty,
			Timestamp: ts,
		})
	}

	sort.Slice(trades, func(i, j int) bool {
		return trades[i].Timestamp.Before(trades[j].Timestamp)
	})
	return trades
}

// mapKlines convierte los DTOs a domain.Kline ordenadas por open_time.
// Sin campo end, el close_time se deriva de la duración del intervalo.
func mapKlines(raw []klineDTO, symbol string, interval domain.Interval) []domain.Kline {
	klines := make([]domain.Kline, 0, len(raw))
	for _, r := range raw {
		open, errO := strconv.ParseFloat(r.Open, 64)
		high, errH := strconv.ParseFloat(r.High, 64)
		low, errL := strconv.ParseFloat(r.Low, 64)
		c, errC := strconv.ParseFloat(r.Close, 64)
		if errO != nil || errH != nil || errL != nil || errC != nil {
			slog.Debug("dropping malformed kline row", "symbol", symbol, "start", r.Start)
			continue
		}
		volume, err := strconv.ParseFloat(r.Volume, 64)
		if err != nil {
			volume = 0
		}

		openTime, ok := parseKlineTime(r.Start)
		if !ok {
			slog.Debug("dropping kline with unparseable start", "symbol", symbol, "start", r.Start)
			continue
		}
		closeTime, ok := parseKlineTime(r.End)
		if !ok {
			closeTime = openTime.Add(interval.Duration())
		}

		klines = append(klines, domain.Kline{
			Symbol:    symbol,
			Interval:  interval,
			OpenTime:  openTime,
			CloseTime: closeTime,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     c,
			Volume:    volume,
		})
	}

	sort.Slice(klines, func(i, j int) bool {
		return klines[i].OpenTime.Before(klines[j].OpenTime)
	})
	return klines
}

func parseKlineTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range klineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
