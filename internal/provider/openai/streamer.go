// Package openai provides the completion streamer backed by the official
// OpenAI SDK. It implements the domain.CompletionStreamer interface and
// handles conversion between domain types and SDK types.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/turaslabs/turas/internal/domain"
	"github.com/turaslabs/turas/internal/observability"
)

// Streamer implements domain.CompletionStreamer for OpenAI.
type Streamer struct {
	client openai.Client
	name   string
}

// NewStreamer creates a new OpenAI streamer.
func NewStreamer(config Config) (*Streamer, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	if config.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}

	return &Streamer{
		client: openai.NewClient(opts...),
		name:   "openai",
	}, nil
}

// Stream opens one upstream streaming request and converts the SDK stream
// into an ordered channel of domain chunks.
func (s *Streamer) Stream(
	ctx context.Context,
	messages []domain.Message,
	opts domain.CompletionOptions,
) (<-chan domain.StreamChunk, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI streaming API")

	params := toSDKParams(messages, opts)
	stream := s.client.Chat.Completions.NewStreaming(ctx, params)

	chunks := make(chan domain.StreamChunk)

	go func() {
		defer close(chunks)
		defer logger.Debug("OpenAI stream completed")

		for stream.Next() {
			chunk := stream.Current()

			if len(chunk.Choices) > 0 {
				delta := chunk.Choices[0].Delta.Content
				done := chunk.Choices[0].FinishReason != ""

				select {
				case <-ctx.Done():
					return
				case chunks <- domain.StreamChunk{Delta: delta, Done: done, Error: nil}:
				}

				if done {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			if !errors.Is(err, io.EOF) {
				select {
				case <-ctx.Done():
				case chunks <- domain.StreamChunk{
					Delta: "",
					Done:  false,
					Error: fmt.Errorf("OpenAI stream error: %w", err),
				}:
				}
			}
		}
	}()

	return chunks, nil
}

// Complete sends a non-streaming completion request.
func (s *Streamer) Complete(
	ctx context.Context,
	messages []domain.Message,
	opts domain.CompletionOptions,
) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("messages cannot be empty")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI API")

	params := toSDKParams(messages, opts)

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("OpenAI API call failed", observability.Error(err))
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	logger.Debug("OpenAI API call succeeded",
		observability.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		observability.Int("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Name returns the provider identifier.
func (s *Streamer) Name() string {
	return s.name
}

// toSDKParams converts domain messages and options to SDK parameters.
func toSDKParams(msgs []domain.Message, opts domain.CompletionOptions) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, len(msgs))
	for i, msg := range msgs {
		switch msg.Role {
		case domain.RoleUser:
			messages[i] = openai.UserMessage(msg.Content)
		case domain.RoleAssistant:
			messages[i] = openai.AssistantMessage(msg.Content)
		case domain.RoleSystem:
			messages[i] = openai.SystemMessage(msg.Content)
		default:
			// Fallback to user message if role is unknown
			messages[i] = openai.UserMessage(msg.Content)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(opts.Model),
		Messages: messages,
	}

	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}

	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	return params
}
