// Package google provides the primary translation provider backed by the
// Google Cloud Translation v2 REST API.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Config contains Google Translate provider configuration.
type Config struct {
	APIKey  string `env:"GOOGLE_API_KEY"`
	BaseURL string `env:"GOOGLE_TRANSLATE_BASE_URL" envDefault:"https://translation.googleapis.com"`
	Timeout int    `env:"GOOGLE_TRANSLATE_TIMEOUT"  envDefault:"10"`
}

// Provider implements domain.TranslationProvider for Google Translate v2.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewProvider creates a new Google Translate provider.
func NewProvider(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("Google API key is required")
	}

	return &Provider{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}, nil
}

type translateRequest struct {
	Q      string `json:"q"`
	Target string `json:"target,omitempty"`
	Format string `json:"format,omitempty"`
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

type detectResponse struct {
	Data struct {
		Detections [][]struct {
			Language string `json:"language"`
		} `json:"detections"`
	} `json:"data"`
}

// Translate translates text into the target language.
func (p *Provider) Translate(ctx context.Context, text, target string) (string, error) {
	endpoint := fmt.Sprintf("%s/language/translate/v2?key=%s", p.baseURL, url.QueryEscape(p.apiKey))

	body, err := p.post(ctx, endpoint, translateRequest{Q: text, Target: target, Format: "text"})
	if err != nil {
		return "", err
	}

	var resp translateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode translate response: %w", err)
	}

	if len(resp.Data.Translations) == 0 {
		return "", errors.New("translate response contained no translations")
	}

	return resp.Data.Translations[0].TranslatedText, nil
}

// Detect returns the language code of the given text.
func (p *Provider) Detect(ctx context.Context, text string) (string, error) {
	endpoint := fmt.Sprintf("%s/language/translate/v2/detect?key=%s", p.baseURL, url.QueryEscape(p.apiKey))

	body, err := p.post(ctx, endpoint, translateRequest{Q: text})
	if err != nil {
		return "", err
	}

	var resp detectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode detect response: %w", err)
	}

	if len(resp.Data.Detections) == 0 || len(resp.Data.Detections[0]) == 0 {
		return "", errors.New("detect response contained no detections")
	}

	return resp.Data.Detections[0][0].Language, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "google"
}

func (p *Provider) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}
