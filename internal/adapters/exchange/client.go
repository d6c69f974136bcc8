package exchange

// client.go — HTTP client de la API pública de Backpack con rate limiting
// y retries. Implementa ports.TradeProvider y ports.KlineProvider.
//
// Todo fallo de red o de decodificación se devuelve como
// *domain.DataUnavailableError con el endpoint y el rango; el retry vive
// aquí, nunca en el core.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/tradescope/internal/domain"
	"github.com/alejandrodnm/tradescope/internal/ports"
)

var (
	_ ports.TradeProvider = (*Client)(nil)
	_ ports.KlineProvider = (*Client)(nil)
)

const (
	defaultBase = "https://api.backpack.exchange"

	// Rate limit al 60% del límite documentado (2000/min → 1200/min → 20/s).
	requestsPerSec = 20

	tradesLimit = 1000

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client de Backpack.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient crea un Client contra el base URL dado.
// Con base vacío usa el URL de producción.
func NewClient(base string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    base,
		limiter: rate.NewLimiter(requestsPerSec, 10),
	}
}

// FetchTrades devuelve los trades del símbolo dentro del rango, ordenados
// ascendente y estampados con el traderID dado.
//
// La API pública no expone historial por trader; el feed devuelve los
// trades del símbolo y el caller aporta el trader_id como clave opaca ya
// resuelta.
func (c *Client) FetchTrades(ctx context.Context, traderID, symbol string, from, to time.Time) ([]domain.Trade, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(tradesLimit))

	var raw []tradeDTO
	if err := c.get(ctx, c.base+"/api/v1/trades?"+params.Encode(), &raw); err != nil {
		return nil, &domain.DataUnavailableError{
			Source: "backpack /api/v1/trades",
			Symbol: symbol, From: from, To: to, Err: err,
		}
	}

	trades := mapTrades(raw, traderID, symbol, from, to)
	slog.Debug("fetched trades",
		"symbol", symbol,
		"trader_id", traderID,
		"raw", len(raw),
		"in_range", len(trades),
	)
	return trades, nil
}

// FetchKlines devuelve las velas del símbolo e intervalo en el rango dado,
// ordenadas ascendente por open_time.
func (c *Client) FetchKlines(ctx context.Context, symbol string, interval domain.Interval, from, to time.Time) ([]domain.Kline, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", string(interval))
	params.Set("startTime", strconv.FormatInt(from.UnixMilli(), 10))
	params.Set("endTime", strconv.FormatInt(to.UnixMilli(), 10))

	var raw []klineDTO
	if err := c.get(ctx, c.base+"/api/v1/klines?"+params.Encode(), &raw); err != nil {
		return nil, &domain.DataUnavailableError{
			Source: "backpack /api/v1/klines",
			Symbol: symbol, From: from, To: to, Err: err,
		}
	}

	klines := mapKlines(raw, symbol, interval)
	slog.Debug("fetched klines",
		"symbol", symbol,
		"interval", interval,
		"raw", len(raw),
		"mapped", len(klines),
	)
	return klines, nil
}

// get hace un GET JSON con rate limiting y retries.
func (c *Client) get(ctx context.Context, url string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("status %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("retrying request", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
