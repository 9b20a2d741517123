package domain

import (
	"context"
	"time"

	"github.com/turaslabs/turas/internal/observability"
)

const defaultTranslationTTL = time.Hour

// TranslationGateway wraps an ordered chain of translation providers with a
// shared (text, target) cache. Providers are tried in sequence; the first
// success wins. Translation sits on the hot path of every streamed delta, so
// repeated fragments must never hit the network twice.
type TranslationGateway struct {
	providers []TranslationProvider
	cache     TranslationCache
	ttl       time.Duration
}

// NewTranslationGateway creates a new translation gateway (DI constructor).
// Providers are consulted in the order given.
func NewTranslationGateway(providers []TranslationProvider, cache TranslationCache) *TranslationGateway {
	return &TranslationGateway{
		providers: providers,
		cache:     cache,
		ttl:       defaultTranslationTTL,
	}
}

// DetectLanguage returns the language code of the given text. Provider
// failures degrade through the chain and finally to the pivot language; the
// caller never sees an error.
func (g *TranslationGateway) DetectLanguage(ctx context.Context, text string) string {
	logger := observability.FromContext(ctx)

	for _, provider := range g.providers {
		lang, err := provider.Detect(ctx, text)
		if err != nil {
			logger.Warn("language detection failed",
				observability.String("translation_provider", provider.Name()),
				observability.Error(err))
			continue
		}
		if lang != "" {
			return lang
		}
	}

	logger.Warn("all detection providers failed, defaulting to pivot language")
	return PivotLanguage
}

// Translate translates text into the target language. The boolean result is
// false only when every provider failed; the caller must then use the
// original text verbatim. Empty input short-circuits without a network call.
func (g *TranslationGateway) Translate(ctx context.Context, text, target string) (string, bool) {
	if text == "" {
		return "", true
	}

	if cached, ok := g.cache.Get(ctx, text, target); ok {
		return cached, true
	}

	logger := observability.FromContext(ctx)

	for _, provider := range g.providers {
		translated, err := provider.Translate(ctx, text, target)
		if err != nil {
			logger.Warn("translation failed",
				observability.String("translation_provider", provider.Name()),
				observability.String("target", target),
				observability.Error(err))
			continue
		}

		g.cache.Set(ctx, text, target, translated, g.ttl)
		return translated, true
	}

	logger.Warn("all translation providers failed",
		observability.String("target", target),
		observability.Int("text_length", len(text)))
	return "", false
}
