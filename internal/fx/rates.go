// Package fx provides the spot-rate source and the rate lock manager.
// Rates follow the convention: 1 unit of base currency = rate units of
// quote currency. All math runs on decimals; amounts convert back to
// integer minor units with round-half-away-from-zero.
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"flowpay/pkg/cache"
)

// RateSource returns a live spot rate for a currency pair.
type RateSource interface {
	SpotRate(ctx context.Context, base, quote string) (decimal.Decimal, time.Time, error)
}

// Fallback rates against USD, used when the rate API is unreachable so a
// demo deployment keeps working offline.
var fallbackToUSD = map[string]decimal.Decimal{
	"usd": decimal.NewFromFloat(1.0),
	"eur": decimal.NewFromFloat(1.08),
	"gbp": decimal.NewFromFloat(1.27),
	"inr": decimal.NewFromFloat(0.01202),
	"jpy": decimal.NewFromFloat(0.0066),
	"cad": decimal.NewFromFloat(0.74),
	"aud": decimal.NewFromFloat(0.64),
	"cny": decimal.NewFromFloat(0.138),
	"sgd": decimal.NewFromFloat(0.74),
	"mxn": decimal.NewFromFloat(0.051),
}

// HTTPRateSource fetches live rates (open.er-api.com response shape) with a
// short-TTL cache in front so a burst of contributions doesn't hammer the
// provider. Unreachable provider falls back to the static cross-rate table.
type HTTPRateSource struct {
	baseURL string
	http    *http.Client
	cache   cache.Cache
	ttl     time.Duration
}

// NewHTTPRateSource builds a rate source with an in-process cache. Pass a
// shared cache via WithCache to serve several instances from Redis.
func NewHTTPRateSource(baseURL string, timeout, cacheTTL time.Duration) *HTTPRateSource {
	return &HTTPRateSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cache:   cache.NewMemoryCache(cacheTTL, 2*cacheTTL),
		ttl:     cacheTTL,
	}
}

// WithCache swaps the cache backend and returns the source for chaining.
func (s *HTTPRateSource) WithCache(c cache.Cache) *HTTPRateSource {
	if c != nil {
		s.cache = c
	}
	return s
}

func (s *HTTPRateSource) SpotRate(ctx context.Context, base, quote string) (decimal.Decimal, time.Time, error) {
	base = strings.ToLower(base)
	quote = strings.ToLower(quote)
	now := time.Now().UTC()

	if base == quote {
		return decimal.NewFromInt(1), now, nil
	}

	cacheKey := "fx:" + base + ":" + quote
	var cached string
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		if rate, err := decimal.NewFromString(cached); err == nil {
			return rate, now, nil
		}
	}

	rate, err := s.fetch(ctx, base, quote)
	if err != nil {
		rate, err = crossRate(base, quote)
		if err != nil {
			return decimal.Zero, now, err
		}
	}
	_ = s.cache.Set(ctx, cacheKey, rate.String(), s.ttl)
	return rate, now, nil
}

func (s *HTTPRateSource) fetch(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s", s.baseURL, strings.ToUpper(base))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate request: status %d", resp.StatusCode)
	}

	var body struct {
		Rates map[string]json.Number `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, err
	}
	raw, ok := body.Rates[strings.ToUpper(quote)]
	if !ok {
		return decimal.Zero, fmt.Errorf("rate request: no rate for %s", quote)
	}
	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, err
	}
	if rate.IsZero() {
		return decimal.Zero, fmt.Errorf("rate request: zero rate for %s/%s", base, quote)
	}
	return rate, nil
}

// crossRate derives base→quote via the USD fallback table.
func crossRate(base, quote string) (decimal.Decimal, error) {
	baseUSD, ok := fallbackToUSD[base]
	if !ok {
		return decimal.Zero, fmt.Errorf("no fallback rate for %s", base)
	}
	quoteUSD, ok := fallbackToUSD[quote]
	if !ok {
		return decimal.Zero, fmt.Errorf("no fallback rate for %s", quote)
	}
	return baseUSD.Div(quoteUSD), nil
}

// StaticRateSource serves fixed rates and lets tests move the market.
type StaticRateSource struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal // "base:quote" -> rate
}

func NewStaticRateSource() *StaticRateSource {
	return &StaticRateSource{rates: make(map[string]decimal.Decimal)}
}

// SetRate fixes the rate for a pair (and derives nothing: set both
// directions explicitly if both are queried).
func (s *StaticRateSource) SetRate(base, quote string, rate decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[strings.ToLower(base)+":"+strings.ToLower(quote)] = rate
}

func (s *StaticRateSource) SpotRate(ctx context.Context, base, quote string) (decimal.Decimal, time.Time, error) {
	base = strings.ToLower(base)
	quote = strings.ToLower(quote)
	now := time.Now().UTC()
	if base == quote {
		return decimal.NewFromInt(1), now, nil
	}
	s.mu.RLock()
	rate, ok := s.rates[base+":"+quote]
	s.mu.RUnlock()
	if !ok {
		return crossRateAt(base, quote, now)
	}
	return rate, now, nil
}

func crossRateAt(base, quote string, now time.Time) (decimal.Decimal, time.Time, error) {
	rate, err := crossRate(base, quote)
	return rate, now, err
}
