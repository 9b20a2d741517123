// Package stocks provides the stock-quote lookup used by the favorites
// sidebar and the trade-advice prompt.
package stocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config contains quote provider settings.
type Config struct {
	APIKey  string `env:"STOCKS_API_KEY"`
	BaseURL string `env:"STOCKS_BASE_URL" envDefault:"https://finnhub.io/api/v1"`
	Timeout int    `env:"STOCKS_TIMEOUT"  envDefault:"10"`
}

// Quote is the response shape consumed by the client favorites panel.
type Quote struct {
	Symbol        string  `json:"symbol"`
	CurrentPrice  float64 `json:"currentPrice"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previousClose"`
}

// Client fetches quotes from a Finnhub-compatible API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new quote client.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("stocks API key is required")
	}

	return &Client{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}, nil
}

// Common-name aliases accepted in place of ticker symbols.
var symbolAliases = map[string]string{
	"APPLE":     "AAPL",
	"TESLA":     "TSLA",
	"MICROSOFT": "MSFT",
	"GOOGLE":    "GOOGL",
	"AMAZON":    "AMZN",
	"META":      "META",
	"NVIDIA":    "NVDA",
}

// NormalizeSymbol uppercases and trims a symbol and resolves common-name
// aliases to tickers.
func NormalizeSymbol(symbol string) string {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if ticker, ok := symbolAliases[normalized]; ok {
		return ticker
	}
	return normalized
}

type quoteResponse struct {
	Current       float64 `json:"c"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
}

// Quote fetches the current quote for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	normalized := NormalizeSymbol(symbol)
	if normalized == "" {
		return nil, errors.New("symbol cannot be empty")
	}

	endpoint := fmt.Sprintf("%s/quote?symbol=%s&token=%s",
		c.baseURL, url.QueryEscape(normalized), url.QueryEscape(c.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var quote quoteResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&quote); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", decodeErr)
	}

	return &Quote{
		Symbol:        normalized,
		CurrentPrice:  quote.Current,
		High:          quote.High,
		Low:           quote.Low,
		Open:          quote.Open,
		PreviousClose: quote.PreviousClose,
	}, nil
}
