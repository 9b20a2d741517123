// Package echo provides a deterministic local streamer used when no API key
// is configured. It implements the domain.CompletionStreamer interface
// without making external calls, which also makes it the reference test
// double for the relay pipeline.
package echo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/turaslabs/turas/internal/domain"
)

const (
	providerName = "echo"
	chunkDelay   = 10 * time.Millisecond
)

const cannedReply = "Here are a few ideas for your trip: " +
	"visit Trinity College, walk through Temple Bar, and take the coastal DART to Howth."

const cannedItinerary = `{"title":"Dublin sampler","summary":"A short walking-first visit.",` +
	`"days":[{"day":1,"title":"City core","description":"Historic centre on foot.",` +
	`"items":[{"name":"Trinity College","note":"Book of Kells"}]}],` +
	`"booking_suggestions":[{"label":"Hotels","url":"https://www.booking.com/"}]}`

// Streamer implements domain.CompletionStreamer with canned output.
type Streamer struct {
	name string
}

// NewStreamer creates a new echo streamer. No configuration is required as
// this provider operates entirely in-memory.
func NewStreamer() *Streamer {
	return &Streamer{name: providerName}
}

// Stream yields the canned reply word by word, honouring cancellation
// between chunks.
func (s *Streamer) Stream(
	ctx context.Context,
	messages []domain.Message,
	_ domain.CompletionOptions,
) (<-chan domain.StreamChunk, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	words := strings.Fields(cannedReply)
	chunks := make(chan domain.StreamChunk)

	go func() {
		defer close(chunks)

		for i, word := range words {
			delta := word
			if i < len(words)-1 {
				delta += " "
			}

			select {
			case <-ctx.Done():
				return
			case chunks <- domain.StreamChunk{Delta: delta, Done: i == len(words)-1, Error: nil}:
			}

			time.Sleep(chunkDelay)
		}
	}()

	return chunks, nil
}

// Complete returns a canned itinerary document so the one-shot call site
// works offline too.
func (s *Streamer) Complete(
	_ context.Context,
	messages []domain.Message,
	_ domain.CompletionOptions,
) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("messages cannot be empty")
	}
	return cannedItinerary, nil
}

// Name returns the provider identifier.
func (s *Streamer) Name() string {
	return s.name
}
