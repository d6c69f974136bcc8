package exchange_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradescope/internal/adapters/exchange"
	"github.com/alejandrodnm/tradescope/internal/domain"
)

func TestFetchTrades_Success(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/trades", r.URL.Path)
		assert.Equal(t, "SOL_USDC", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "price": "100.5", "quantity": "2", "timestamp": 1709251800000, "isBuyerMaker": false},
			{"id": 2, "price": "101.0", "quantity": "1", "timestamp": 1709252400000, "isBuyerMaker": true}
		]`))
	}))
	defer srv.Close()

	client := exchange.NewClient(srv.URL)
	trades, err := client.FetchTrades(context.Background(), "trader-1", "SOL_USDC", from, to)

	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "trader-1", trades[0].TraderID)
	assert.Equal(t, domain.SideBuy, trades[0].Side)
	assert.Equal(t, domain.SideSell, trades[1].Side)
	assert.Equal(t, 100.5, trades[0].Price)
}

func TestFetchTrades_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := exchange.NewClient(srv.URL)
	_, err := client.FetchTrades(context.Background(), "trader-1", "SOL_USDC", time.Now().Add(-time.Hour), time.Now())

	var unavailable *domain.DataUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "backpack /api/v1/trades", unavailable.Source)
	assert.Equal(t, "SOL_USDC", unavailable.Symbol)
}

func TestFetchKlines_Success(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/klines", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "SOL_USDC", q.Get("symbol"))
		assert.Equal(t, "5m", q.Get("interval"))
		assert.NotEmpty(t, q.Get("startTime"))
		assert.NotEmpty(t, q.Get("endTime"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"start": "2024-03-01 00:00:00", "end": "2024-03-01 00:05:00",
			 "open": "100", "high": "102", "low": "99", "close": "101", "volume": "40"},
			{"start": "2024-03-01 00:05:00", "end": "2024-03-01 00:10:00",
			 "open": "101", "high": "103", "low": "100", "close": "102", "volume": "55"}
		]`))
	}))
	defer srv.Close()

	client := exchange.NewClient(srv.URL)
	klines, err := client.FetchKlines(context.Background(), "SOL_USDC", domain.Interval5m, from, to)

	require.NoError(t, err)
	require.Len(t, klines, 2)
	assert.Equal(t, domain.Interval5m, klines[0].Interval)
	assert.Equal(t, 101.0, klines[0].Close)
	require.NoError(t, domain.ValidateKlines(klines))
}

func TestFetchKlines_RetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := exchange.NewClient(srv.URL)
	klines, err := client.FetchKlines(context.Background(), "SOL_USDC", domain.Interval1h,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Empty(t, klines)
	assert.Equal(t, 3, attempts)
}
