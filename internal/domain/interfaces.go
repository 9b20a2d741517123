package domain

import (
	"context"
	"time"
)

// TranslationProvider is a single remote translation service. Providers are
// tried in order by the TranslationGateway; the first success wins.
type TranslationProvider interface {
	// Translate translates text into the target language.
	Translate(ctx context.Context, text, target string) (string, error)

	// Detect returns the language code of the given text.
	Detect(ctx context.Context, text string) (string, error)

	// Name returns the provider identifier.
	Name() string
}

// TranslationCache stores translated strings keyed by (text, target
// language). Implementations must tolerate concurrent access; entries are
// immutable once written.
type TranslationCache interface {
	// Get retrieves a cached translation, reporting whether it was present.
	Get(ctx context.Context, text, target string) (string, bool)

	// Set stores a translation with a bounded lifetime.
	Set(ctx context.Context, text, target, translated string, ttl time.Duration)
}

// CompletionStreamer opens completion requests against a model provider.
type CompletionStreamer interface {
	// Stream opens one upstream streaming request and yields ordered text
	// deltas. The channel is closed when the upstream signals completion or
	// fails; a mid-stream failure is delivered as a chunk carrying Error.
	Stream(ctx context.Context, messages []Message, opts CompletionOptions) (<-chan StreamChunk, error)

	// Complete sends a non-streaming completion request and returns the full
	// generated text.
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)

	// Name returns the provider identifier.
	Name() string
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
