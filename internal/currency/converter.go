// internal/currency/converter.go
package currency

import (
	"context"
	"math"
	"strings"

	"sf-indexer/internal/common/logger"
	"sf-indexer/internal/common/metrics"
)

// Conversion is the result of a currency normalization. Failure is always
// reported via OK so the caller can still write a usable document.
type Conversion struct {
	OriginalAmount   float64 `json:"original_amount"`
	OriginalCurrency string  `json:"original_currency"`
	Amount           float64 `json:"converted_amount"`
	Currency         string  `json:"converted_currency"`
	Rate             float64 `json:"conversion_rate"`
	OK               bool    `json:"conversion_successful"`
	Note             string  `json:"conversion_note,omitempty"`
}

// Converter normalizes monetary amounts into a target currency. The live
// source is consulted once per run; on failure the static fallback table is
// used. Convert never returns an error.
type Converter struct {
	source RateSource
	logger logger.Logger

	rates map[string]float64
	base  string
}

func NewConverter(source RateSource, log logger.Logger) *Converter {
	return &Converter{
		source: source,
		logger: log,
	}
}

// loadRates resolves the rate table for base, preferring the live source.
func (c *Converter) loadRates(ctx context.Context, base string) map[string]float64 {
	if c.rates != nil && c.base == base {
		return c.rates
	}

	if c.source != nil {
		if rates, err := c.source.Rates(ctx, base); err == nil {
			c.rates, c.base = rates, base
			return rates
		} else {
			c.logger.Warn("could not fetch live currency rates, using fallback table", map[string]interface{}{
				"base":  base,
				"error": err,
			})
		}
	}

	metrics.RateFetches.WithLabelValues("fallback").Inc()
	c.rates, c.base = fallbackTable(base), base
	return c.rates
}

// Convert normalizes amount from one currency into another.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) Conversion {
	result := Conversion{
		OriginalAmount:   amount,
		OriginalCurrency: from,
		Amount:           amount,
		Currency:         to,
		Rate:             1.0,
	}

	if amount == 0 {
		result.OK = true
		result.Note = "Zero amount"
		return result
	}

	if from == "" || to == "" {
		result.Note = "Missing currency information"
		return result
	}

	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	result.OriginalCurrency = from
	result.Currency = to

	if from == to {
		result.OK = true
		result.Note = "Same currency"
		return result
	}

	rates := c.loadRates(ctx, to)
	fromRate, ok := rates[from]
	if !ok || fromRate <= 0 {
		result.Note = "Conversion rate not available for " + from
		c.logger.Warn("no conversion rate found", map[string]interface{}{"currency": from})
		return result
	}

	// rates convert 1 unit TO the base currency, which is the target here.
	rate := fromRate
	if toRate, ok := rates[to]; ok && toRate > 0 && to != c.base {
		rate = fromRate / toRate
	}

	converted := amount * rate
	result.Amount = math.Round(converted*100) / 100
	result.Rate = math.Round(rate*1e6) / 1e6
	result.OK = true
	result.Note = "Converted via exchange rates"

	if ratio := converted / amount; ratio > 10 {
		c.logger.Warn("large conversion ratio detected", map[string]interface{}{
			"amount": amount,
			"from":   from,
			"to":     to,
			"ratio":  ratio,
		})
	}

	return result
}
