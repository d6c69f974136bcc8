package exchange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradescope/internal/domain"
)

func TestMapTrades(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	raw := []tradeDTO{
		{ID: 3, Price: "101.5", Quantity: "2", Timestamp: from.Add(30 * time.Minute).UnixMilli(), IsBuyerMaker: true},
		{ID: 1, Price: "100.0", Quantity: "1.5", Timestamp: from.Add(10 * time.Minute).UnixMilli()},
		{ID: 2, Price: "not-a-number", Quantity: "1", Timestamp: from.Add(20 * time.Minute).UnixMilli()},
		{ID: 4, Price: "99.0", Quantity: "0", Timestamp: from.Add(40 * time.Minute).UnixMilli()},
		{ID: 5, Price: "100.0", Quantity: "1", Timestamp: to.Add(time.Minute).UnixMilli()},
	}

	trades := mapTrades(raw, "trader-1", "SOL_USDC", from, to)

	// Quedan las dos filas válidas en rango, ordenadas por timestamp.
	require.Len(t, trades, 2)
	assert.Equal(t, domain.SideBuy, trades[0].Side)
	assert.Equal(t, 100.0, trades[0].Price)
	assert.Equal(t, 1.5, trades[0].Quantity)
	assert.Equal(t, "trader-1", trades[0].TraderID)
	assert.Equal(t, domain.SideSell, trades[1].Side)
	assert.True(t, trades[0].Timestamp.Before(trades[1].Timestamp))

	require.NoError(t, domain.ValidateTrades(trades))
}

func TestMapKlines(t *testing.T) {
	raw := []klineDTO{
		{Start: "2024-03-01 00:05:00", Open: "101", High: "103", Low: "100", Close: "102", Volume: "50"},
		{Start: "2024-03-01 00:00:00", End: "2024-03-01 00:05:00", Open: "100", High: "102", Low: "99", Close: "101", Volume: "40"},
		{Start: "garbage", Open: "1", High: "1", Low: "1", Close: "1", Volume: "1"},
	}

	klines := mapKlines(raw, "SOL_USDC", domain.Interval5m)

	require.Len(t, klines, 2)
	assert.True(t, klines[0].OpenTime.Before(klines[1].OpenTime))
	assert.Equal(t, 100.0, klines[0].Open)
	assert.True(t, klines[0].CloseTime.Equal(klines[1].OpenTime))

	// Sin end, el close_time se deriva del intervalo.
	assert.True(t, klines[1].CloseTime.Equal(klines[1].OpenTime.Add(5*time.Minute)))

	require.NoError(t, domain.ValidateKlines(klines))
}

func TestParseKlineTime(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-03-01 12:00:00", true},
		{"2024-03-01T12:00:00Z", true},
		{"2024-03-01T12:00:00", true},
		{"", false},
		{"yesterday", false},
	}
	for _, tc := range cases {
		_, ok := parseKlineTime(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
	}
}
