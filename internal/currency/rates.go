// internal/currency/rates.go
package currency

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	apperrors "sf-indexer/internal/common/errors"
	httpclient "sf-indexer/internal/common/http"
	"sf-indexer/internal/common/logger"
	"sf-indexer/internal/common/metrics"
)

// fallbackRates converts 1 unit of each currency TO USD. Used when the live
// rate API is unreachable or returns an unusable payload.
var fallbackRates = map[string]float64{
	"USD": 1.0,
	"EUR": 1.18,
	"GBP": 1.37,
	"JPY": 0.0067,
	"CAD": 0.74,
	"AUD": 0.67,
	"CHF": 1.14,
	"CNY": 0.14,
	"INR": 0.012,
	"BRL": 0.20,
}

// RateSource fetches a table of rates that convert 1 unit of each currency
// into the base currency.
type RateSource interface {
	Rates(ctx context.Context, base string) (map[string]float64, error)
}

// APIRateSource fetches live rates from an exchange-rate HTTP API.
type APIRateSource struct {
	baseURL string
	client  *httpclient.Client
	logger  logger.Logger
}

func NewAPIRateSource(baseURL string, timeout time.Duration, log logger.Logger) *APIRateSource {
	return &APIRateSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpclient.NewClient(timeout, log),
		logger:  log,
	}
}

type ratesResponse struct {
	Success bool               `json:"success"`
	Rates   map[string]float64 `json:"rates"`
}

// Rates fetches rates FROM the base currency and inverts them, so the result
// converts 1 unit of each currency TO the base.
func (s *APIRateSource) Rates(ctx context.Context, base string) (map[string]float64, error) {
	resp, err := s.client.Do(ctx, httpclient.RequestOptions{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("%s/%s", s.baseURL, base),
	})
	if err != nil {
		return nil, apperrors.NewNetworkError("exchange rate API", err)
	}

	var payload ratesResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if !payload.Success || len(payload.Rates) == 0 {
		return nil, fmt.Errorf("rate API returned no usable rates for %s", base)
	}

	rates := make(map[string]float64, len(payload.Rates))
	for code, rate := range payload.Rates {
		if rate > 0 {
			rates[code] = 1.0 / rate
		}
	}
	rates[base] = 1.0

	metrics.RateFetches.WithLabelValues("live").Inc()
	s.logger.Debug("retrieved live currency rates", map[string]interface{}{
		"base":       base,
		"currencies": len(rates),
	})
	return rates, nil
}

// fallbackTable rebases the static USD table onto another base currency.
func fallbackTable(base string) map[string]float64 {
	if base == "USD" {
		out := make(map[string]float64, len(fallbackRates))
		for k, v := range fallbackRates {
			out[k] = v
		}
		return out
	}

	baseRate, ok := fallbackRates[base]
	if !ok || baseRate == 0 {
		return nil
	}
	out := make(map[string]float64, len(fallbackRates))
	for code, usdRate := range fallbackRates {
		out[code] = usdRate / baseRate
	}
	return out
}
