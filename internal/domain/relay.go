package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/turaslabs/turas/internal/observability"
)

// Validation errors surfaced to the client as an ERROR-prefixed payload.
var (
	// ErrNoValidMessages indicates the request contained no message with
	// non-empty content after trimming.
	ErrNoValidMessages = errors.New("no valid messages to process")

	// ErrNoUserMessage indicates the filtered conversation contains no user
	// turn to respond to.
	ErrNoUserMessage = errors.New("conversation contains no user message")
)

// RelayService drives the streaming translation-and-completion pipeline:
// validate the conversation, resolve the user language, inject the concierge
// system prompt, translate user turns to the pivot language, stream the
// completion, and re-translate each delta before it reaches the transport.
type RelayService struct {
	translator *TranslationGateway
	streamer   CompletionStreamer
	opts       CompletionOptions
}

// NewRelayService creates a new relay service (DI constructor). The options
// fix the chat call site's model settings.
func NewRelayService(translator *TranslationGateway, streamer CompletionStreamer, opts CompletionOptions) *RelayService {
	return &RelayService{
		translator: translator,
		streamer:   streamer,
		opts:       opts,
	}
}

// Stream runs the relay pipeline for one request. Validation and stream-open
// failures are returned synchronously; mid-stream failures arrive as a chunk
// carrying Error. The returned channel is closed exactly once on every exit
// path. Cancelling ctx stops the pipeline without emitting an error chunk.
func (s *RelayService) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	messages, err := validateMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	userLang := s.resolveLanguage(ctx, req.UserLang, messages)
	ctx = observability.WithLang(ctx, userLang)

	area := NormalizeArea(req.Area)
	ctx = observability.WithArea(ctx, area)

	logger := observability.FromContext(ctx)
	logger.Info("relay request validated",
		observability.Int("messages", len(messages)))

	prepared := make([]Message, 0, len(messages)+1)
	prepared = append(prepared, BuildSystemPrompt(area))
	prepared = append(prepared, s.translateInbound(ctx, messages)...)

	upstream, err := s.streamer.Stream(ctx, prepared, s.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open completion stream: %w", err)
	}

	out := make(chan StreamChunk)
	go s.relay(ctx, upstream, userLang, out)

	return out, nil
}

// validateMessages filters the conversation down to messages with non-empty
// trimmed content, defaulting missing roles to user. Conversation order is
// preserved.
func validateMessages(messages []Message) ([]Message, error) {
	filtered := make([]Message, 0, len(messages))
	hasUser := false

	for _, msg := range messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}

		role := msg.Role
		if role == "" {
			role = RoleUser
		}
		if role == RoleUser {
			hasUser = true
		}

		filtered = append(filtered, Message{Role: role, Content: content})
	}

	if len(filtered) == 0 {
		return nil, ErrNoValidMessages
	}
	if !hasUser {
		return nil, ErrNoUserMessage
	}

	return filtered, nil
}

// resolveLanguage resolves the effective user language once per request. An
// explicit code passes through; empty or "auto" triggers detection on the
// latest user message.
func (s *RelayService) resolveLanguage(ctx context.Context, userLang string, messages []Message) string {
	if userLang != "" && userLang != AutoLanguage {
		return userLang
	}

	latest := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			latest = messages[i].Content
			break
		}
	}

	return s.translator.DetectLanguage(ctx, latest)
}

// translateInbound translates every user message to the pivot language.
// Per-message translation failure falls back to the original text for that
// message only; non-user messages pass through unchanged.
func (s *RelayService) translateInbound(ctx context.Context, messages []Message) []Message {
	translated := make([]Message, len(messages))
	for i, msg := range messages {
		if msg.Role != RoleUser {
			translated[i] = msg
			continue
		}

		content, ok := s.translator.Translate(ctx, msg.Content, PivotLanguage)
		if !ok {
			content = msg.Content
		}
		translated[i] = Message{Role: msg.Role, Content: content}
	}
	return translated
}

// relay consumes upstream deltas, re-translates each into the user language,
// and forwards them in strict emission order. Chunks are translated and
// flushed sequentially, not concurrently: correctness over maximal
// throughput.
func (s *RelayService) relay(ctx context.Context, upstream <-chan StreamChunk, userLang string, out chan<- StreamChunk) {
	defer close(out)

	logger := observability.FromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("relay cancelled")
			return
		case chunk, open := <-upstream:
			if !open {
				logger.Info("relay stream completed")
				return
			}

			if chunk.Error != nil {
				logger.Error("upstream stream error", observability.Error(chunk.Error))
				s.send(ctx, out, chunk)
				return
			}

			if chunk.Delta != "" && userLang != PivotLanguage {
				// Per-chunk translation failure degrades to the
				// untranslated delta; already-flushed output is never
				// retracted.
				if translated, ok := s.translator.Translate(ctx, chunk.Delta, userLang); ok {
					chunk.Delta = translated
				}
			}

			if !s.send(ctx, out, chunk) {
				return
			}

			if chunk.Done {
				logger.Info("relay stream completed")
				return
			}
		}
	}
}

// send writes a chunk unless the request was cancelled first.
func (s *RelayService) send(ctx context.Context, out chan<- StreamChunk, chunk StreamChunk) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- chunk:
		return true
	}
}
