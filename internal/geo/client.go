// Package geo provides the geocoding proxy backed by OpenStreetMap
// Nominatim. Results are cached because Nominatim rate-limits aggressively.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	defaultQuery  = "Dublin, Ireland"
	defaultLimit  = 10
	cacheLifetime = time.Hour
)

// Config contains geocoder settings.
type Config struct {
	BaseURL   string `env:"GEO_BASE_URL"    envDefault:"https://nominatim.openstreetmap.org"`
	UserAgent string `env:"GEO_USER_AGENT"  envDefault:"turas-travel-bot/1.0 (demo)"`
	Timeout   int    `env:"GEO_TIMEOUT"     envDefault:"10"`
}

type cacheEntry struct {
	payload   json.RawMessage
	expiresAt time.Time
}

// Client geocodes free-text queries via Nominatim.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewClient creates a new geocoding client.
func NewClient(config Config) *Client {
	return &Client{
		baseURL:   config.BaseURL,
		userAgent: config.UserAgent,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
		cache: make(map[string]cacheEntry),
	}
}

// Geocode resolves a free-text query to Nominatim search results. The raw
// JSON payload is passed through to the caller.
func (c *Client) Geocode(ctx context.Context, query string, limit int) (json.RawMessage, error) {
	if query == "" {
		query = defaultQuery
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	key := fmt.Sprintf("%s:%d", query, limit)
	if payload, ok := c.cached(key); ok {
		return payload, nil
	}

	endpoint := fmt.Sprintf("%s/search?format=json&addressdetails=1&q=%s&limit=%d",
		c.baseURL, url.QueryEscape(query), limit)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.store(key, payload)
	return payload, nil
}

func (c *Client) cached(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.payload, true
}

func (c *Client) store(key string, payload json.RawMessage) {
	c.mu.Lock()
	c.cache[key] = cacheEntry{payload: payload, expiresAt: time.Now().Add(cacheLifetime)}
	c.mu.Unlock()
}
