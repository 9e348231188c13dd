// Package catalog queries the external restaurant provider.
package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"restaurant-match-backend/internal/config"
	"restaurant-match-backend/internal/metrics"
	"restaurant-match-backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned when the provider cannot be reached or is shedding load
var ErrUnavailable = errors.New("restaurant catalog unavailable")

// SearchParams filters a catalog search
type SearchParams struct {
	Location  string   `json:"location,omitempty"`
	Latitude  float64  `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude float64  `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Cuisine   string   `json:"cuisine,omitempty"`
	Price     string   `json:"price,omitempty" validate:"omitempty,oneof=$ $$ $$$ $$$$"`
	MinRating float64  `json:"min_rating,omitempty" validate:"gte=0,lte=5"`
	Radius    int      `json:"radius,omitempty" validate:"gte=0,lte=50000"`
	OpenNow   bool     `json:"open_now,omitempty"`
	Dietary   []string `json:"dietary,omitempty"`
	Page      int      `json:"page,omitempty" validate:"gte=0"`
	PageSize  int      `json:"page_size,omitempty" validate:"gte=0,lte=100"`
}

// Page is one page of search results
type Page struct {
	Restaurants []models.Restaurant `json:"restaurants"`
	Page        int                 `json:"page"`
	HasMore     bool                `json:"has_more"`
}

// PageCache stores search pages. Get returns nil on a miss.
type PageCache interface {
	Get(ctx context.Context, key string) (*Page, error)
	Set(ctx context.Context, key string, page *Page, ttl time.Duration) error
}

// StatusError is a non-2xx provider response
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog responded with status %d: %s", e.Code, e.Body)
}

// Client is the catalog HTTP client
type Client struct {
	baseURL  string
	apiKey   string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[*Page]
	cache    PageCache
	cacheTTL time.Duration
}

// New creates a new catalog client. cache may be nil.
func New(cfg config.CatalogConfig, cache PageCache) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(limit, burst),
		cache:    cache,
		cacheTTL: cfg.CacheTTL,
	}

	failures := cfg.BreakerFailures
	metrics.CatalogBreakerState.Set(0)
	c.breaker = gobreaker.NewCircuitBreaker[*Page](gobreaker.Settings{
		Name:        "restaurant-catalog",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.Code < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
			metrics.CatalogBreakerState.Set(breakerStateValue(to))
		},
	})

	return c
}

// Search returns one page of restaurants matching params
func (c *Client) Search(ctx context.Context, params SearchParams) (*Page, error) {
	if params.PageSize <= 0 {
		params.PageSize = c.pageSize
	}

	key := cacheKey(params)
	if c.cache != nil {
		page, err := c.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read catalog cache")
		} else if page != nil {
			metrics.CatalogRequests.WithLabelValues("cache_hit").Inc()
			return page, nil
		}
	}

	page, err := c.breaker.Execute(func() (*Page, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
		return c.fetch(ctx, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CatalogRequests.WithLabelValues("rejected").Inc()
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		metrics.CatalogRequests.WithLabelValues("error").Inc()
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code < http.StatusInternalServerError {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	metrics.CatalogRequests.WithLabelValues("ok").Inc()

	if c.cache != nil && c.cacheTTL > 0 {
		if err := c.cache.Set(ctx, key, page, c.cacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to write catalog cache")
		}
	}
	return page, nil
}

func (c *Client) fetch(ctx context.Context, params SearchParams) (*Page, error) {
	start := time.Now()
	defer func() {
		metrics.CatalogDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/restaurants/search?"+query(params).Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, &StatusError{Code: resp.StatusCode, Body: body.Error}
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	if page.Page == 0 {
		page.Page = params.Page
	}
	return &page, nil
}

func query(p SearchParams) url.Values {
	q := url.Values{}
	if p.Location != "" {
		q.Set("location", p.Location)
	}
	if p.Latitude != 0 || p.Longitude != 0 {
		q.Set("lat", strconv.FormatFloat(p.Latitude, 'f', -1, 64))
		q.Set("lng", strconv.FormatFloat(p.Longitude, 'f', -1, 64))
	}
	if p.Cuisine != "" {
		q.Set("cuisine", p.Cuisine)
	}
	if p.Price != "" {
		q.Set("price", p.Price)
	}
	if p.MinRating > 0 {
		q.Set("min_rating", strconv.FormatFloat(p.MinRating, 'f', -1, 64))
	}
	if p.Radius > 0 {
		q.Set("radius", strconv.Itoa(p.Radius))
	}
	if p.OpenNow {
		q.Set("open_now", "true")
	}
	if len(p.Dietary) > 0 {
		q.Set("dietary", strings.Join(p.Dietary, ","))
	}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("page_size", strconv.Itoa(p.PageSize))
	return q
}

func cacheKey(p SearchParams) string {
	sum := sha256.Sum256([]byte(query(p).Encode()))
	return "catalog:search:" + hex.EncodeToString(sum[:])
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
