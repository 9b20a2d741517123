package domain_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/turaslabs/turas/internal/domain"
)

// mockTranslationProvider is a mock implementation of TranslationProvider
// for testing.
type mockTranslationProvider struct {
	name           string
	translateFunc  func(ctx context.Context, text, target string) (string, error)
	detectFunc     func(ctx context.Context, text string) (string, error)
	translateCalls int
	detectCalls    int
}

func (m *mockTranslationProvider) Translate(ctx context.Context, text, target string) (string, error) {
	m.translateCalls++
	if m.translateFunc != nil {
		return m.translateFunc(ctx, text, target)
	}
	return "[" + target + "]" + text, nil
}

func (m *mockTranslationProvider) Detect(ctx context.Context, text string) (string, error) {
	m.detectCalls++
	if m.detectFunc != nil {
		return m.detectFunc(ctx, text)
	}
	return "en", nil
}

func (m *mockTranslationProvider) Name() string {
	return m.name
}

// mockTranslationCache is a deterministic in-memory cache for testing.
type mockTranslationCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
}

func newMockTranslationCache() *mockTranslationCache {
	return &mockTranslationCache{entries: make(map[string]string)}
}

func (m *mockTranslationCache) Get(_ context.Context, text, target string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[text+"|"+target]
	return value, ok
}

func (m *mockTranslationCache) Set(_ context.Context, text, target, translated string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[text+"|"+target] = translated
	m.sets++
}

func failingProvider(name string) *mockTranslationProvider {
	return &mockTranslationProvider{
		name: name,
		translateFunc: func(_ context.Context, _, _ string) (string, error) {
			return "", errors.New("provider unavailable")
		},
		detectFunc: func(_ context.Context, _ string) (string, error) {
			return "", errors.New("provider unavailable")
		},
	}
}

func TestTranslationGateway_Translate(t *testing.T) {
	t.Run("should translate via primary provider and cache the result", func(t *testing.T) {
		primary := &mockTranslationProvider{name: "primary"}
		cache := newMockTranslationCache()
		gateway := domain.NewTranslationGateway([]domain.TranslationProvider{primary}, cache)

		translated, ok := gateway.Translate(context.Background(), "hello", "fr")

		require.True(t, ok)
		require.Equal(t, "[fr]hello", translated)
		require.Equal(t, 1, cache.sets)
	})

	t.Run("should fall back to secondary provider on primary failure", func(t *testing.T) {
		secondary := &mockTranslationProvider{name: "secondary"}
		cache := newMockTranslationCache()
		gateway := domain.NewTranslationGateway(
			[]domain.TranslationProvider{failingProvider("primary"), secondary},
			cache,
		)

		translated, ok := gateway.Translate(context.Background(), "hello", "fr")

		require.True(t, ok)
		require.Equal(t, "[fr]hello", translated)
		require.Equal(t, 1, secondary.translateCalls)
		// Fallback results are cached too.
		require.Equal(t, 1, cache.sets)
	})

	t.Run("should return not-ok when all providers fail", func(t *testing.T) {
		cache := newMockTranslationCache()
		gateway := domain.NewTranslationGateway(
			[]domain.TranslationProvider{failingProvider("primary"), failingProvider("secondary")},
			cache,
		)

		translated, ok := gateway.Translate(context.Background(), "hello", "fr")

		require.False(t, ok)
		require.Empty(t, translated)
		require.Equal(t, 0, cache.sets)
	})

	t.Run("should serve repeated translations from cache without network calls", func(t *testing.T) {
		primary := &mockTranslationProvider{name: "primary"}
		gateway := domain.NewTranslationGateway([]domain.TranslationProvider{primary}, newMockTranslationCache())

		first, ok := gateway.Translate(context.Background(), "hello", "fr")
		require.True(t, ok)

		second, ok := gateway.Translate(context.Background(), "hello", "fr")
		require.True(t, ok)

		require.Equal(t, first, second)
		require.Equal(t, 1, primary.translateCalls)
	})

	t.Run("should short-circuit empty input without a network call", func(t *testing.T) {
		primary := &mockTranslationProvider{name: "primary"}
		gateway := domain.NewTranslationGateway([]domain.TranslationProvider{primary}, newMockTranslationCache())

		translated, ok := gateway.Translate(context.Background(), "", "fr")

		require.True(t, ok)
		require.Empty(t, translated)
		require.Equal(t, 0, primary.translateCalls)
	})
}

func TestTranslationGateway_DetectLanguage(t *testing.T) {
	t.Run("should detect via primary provider", func(t *testing.T) {
		primary := &mockTranslationProvider{
			name: "primary",
			detectFunc: func(_ context.Context, _ string) (string, error) {
				return "ga", nil
			},
		}
		gateway := domain.NewTranslationGateway([]domain.TranslationProvider{primary}, newMockTranslationCache())

		lang := gateway.DetectLanguage(context.Background(), "Dia dhuit")

		require.Equal(t, "ga", lang)
	})

	t.Run("should fall back to secondary provider", func(t *testing.T) {
		secondary := &mockTranslationProvider{
			name: "secondary",
			detectFunc: func(_ context.Context, _ string) (string, error) {
				return "es", nil
			},
		}
		gateway := domain.NewTranslationGateway(
			[]domain.TranslationProvider{failingProvider("primary"), secondary},
			newMockTranslationCache(),
		)

		lang := gateway.DetectLanguage(context.Background(), "hola")

		require.Equal(t, "es", lang)
		require.Equal(t, 1, secondary.detectCalls)
	})

	t.Run("should default to pivot language when all providers fail", func(t *testing.T) {
		gateway := domain.NewTranslationGateway(
			[]domain.TranslationProvider{failingProvider("primary"), failingProvider("secondary")},
			newMockTranslationCache(),
		)

		lang := gateway.DetectLanguage(context.Background(), "bonjour")

		require.Equal(t, domain.PivotLanguage, lang)
	})
}
