// Package libre provides the fallback translation provider backed by a
// LibreTranslate instance.
package libre

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config contains LibreTranslate provider configuration.
type Config struct {
	BaseURL string `env:"LIBRETRANSLATE_BASE_URL" envDefault:"https://libretranslate.de"`
	Timeout int    `env:"LIBRETRANSLATE_TIMEOUT"  envDefault:"10"`
}

// Provider implements domain.TranslationProvider for LibreTranslate.
type Provider struct {
	baseURL    string
	httpClient *http.Client
}

// NewProvider creates a new LibreTranslate provider.
func NewProvider(config Config) *Provider {
	return &Provider{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
	Format string `json:"format,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

type detection struct {
	Language string `json:"language"`
}

// Translate translates text into the target language. The source language is
// left to the service to detect.
func (p *Provider) Translate(ctx context.Context, text, target string) (string, error) {
	body, err := p.post(ctx, p.baseURL+"/translate", translateRequest{
		Q:      text,
		Source: "auto",
		Target: target,
		Format: "text",
	})
	if err != nil {
		return "", err
	}

	var resp translateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode translate response: %w", err)
	}

	if resp.TranslatedText == "" {
		return "", errors.New("translate response contained no text")
	}

	return resp.TranslatedText, nil
}

// Detect returns the language code of the given text.
func (p *Provider) Detect(ctx context.Context, text string) (string, error) {
	body, err := p.post(ctx, p.baseURL+"/detect", translateRequest{Q: text})
	if err != nil {
		return "", err
	}

	var detections []detection
	if err := json.Unmarshal(body, &detections); err != nil {
		return "", fmt.Errorf("failed to decode detect response: %w", err)
	}

	if len(detections) == 0 || detections[0].Language == "" {
		return "", errors.New("detect response contained no detections")
	}

	return detections[0].Language, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "libre"
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
