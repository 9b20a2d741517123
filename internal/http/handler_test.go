package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/turaslabs/turas/internal/domain"
	turashttp "github.com/turaslabs/turas/internal/http"
)

// passthroughProvider translates by tagging the target language so tests can
// assert on what was translated.
type passthroughProvider struct{}

func (p *passthroughProvider) Translate(_ context.Context, text, target string) (string, error) {
	if target == domain.PivotLanguage {
		return text, nil
	}
	return "[" + target + "]" + text, nil
}

func (p *passthroughProvider) Detect(_ context.Context, _ string) (string, error) {
	return "en", nil
}

func (p *passthroughProvider) Name() string { return "passthrough" }

// fakeStreamer emits fixed deltas, optionally ending with an error.
type fakeStreamer struct {
	deltas      []string
	midErr      error
	streamCalls int
	result      string
	completeErr error
}

func (f *fakeStreamer) Stream(
	ctx context.Context,
	_ []domain.Message,
	_ domain.CompletionOptions,
) (<-chan domain.StreamChunk, error) {
	f.streamCalls++
	chunks := make(chan domain.StreamChunk)
	go func() {
		defer close(chunks)
		for _, delta := range f.deltas {
			select {
			case <-ctx.Done():
				return
			case chunks <- domain.StreamChunk{Delta: delta}:
			}
		}
		if f.midErr != nil {
			select {
			case <-ctx.Done():
			case chunks <- domain.StreamChunk{Error: f.midErr}:
			}
		}
	}()
	return chunks, nil
}

func (f *fakeStreamer) Complete(_ context.Context, _ []domain.Message, _ domain.CompletionOptions) (string, error) {
	return f.result, f.completeErr
}

func (f *fakeStreamer) Name() string { return "fake" }

// recordingPublisher captures published events.
type recordingPublisher struct {
	events []string
}

func (r *recordingPublisher) Publish(_ context.Context, eventType string, _ map[string]interface{}) {
	r.events = append(r.events, eventType)
}

type cacheStub struct {
	entries map[string]string
}

func (c *cacheStub) Get(_ context.Context, text, target string) (string, bool) {
	v, ok := c.entries[text+"|"+target]
	return v, ok
}

func (c *cacheStub) Set(_ context.Context, text, target, translated string, _ time.Duration) {
	c.entries[text+"|"+target] = translated
}

func newTestHandler(streamer *fakeStreamer, events domain.EventPublisher) *turashttp.Handler {
	gateway := domain.NewTranslationGateway(
		[]domain.TranslationProvider{&passthroughProvider{}},
		&cacheStub{entries: make(map[string]string)},
	)
	relay := domain.NewRelayService(gateway, streamer, domain.CompletionOptions{Model: "test"})
	itinerary := domain.NewItineraryService(gateway, streamer, domain.CompletionOptions{Model: "test"})
	return turashttp.NewHandler(relay, itinerary, nil, nil, events)
}

func TestHandler_HandleChat(t *testing.T) {
	t.Run("should stream translated chunks for a valid conversation", func(t *testing.T) {
		streamer := &fakeStreamer{deltas: []string{"Hello", " there"}}
		handler := newTestHandler(streamer, nil)

		body := `{"messages":[{"role":"user","content":"Best hotels in Dublin 2"}],"userLang":"en"}`
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleChat(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		require.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
		require.Equal(t, "Hello there", rec.Body.String())
		require.NotContains(t, rec.Body.String(), "ERROR: ")
	})

	t.Run("should translate chunks into the requested language", func(t *testing.T) {
		streamer := &fakeStreamer{deltas: []string{"A", "B", "C"}}
		handler := newTestHandler(streamer, nil)

		body := `{"messages":[{"role":"user","content":"hola"}],"userLang":"es"}`
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleChat(rec, req)

		require.Equal(t, "[es]A[es]B[es]C", rec.Body.String())
	})

	t.Run("should emit exactly one error chunk for an empty message list", func(t *testing.T) {
		streamer := &fakeStreamer{}
		handler := newTestHandler(streamer, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[]}`))
		rec := httptest.NewRecorder()

		handler.HandleChat(rec, req)

		require.True(t, strings.HasPrefix(rec.Body.String(), "ERROR: "))
		require.Equal(t, 1, strings.Count(rec.Body.String(), "ERROR: "))
		require.Equal(t, 0, streamer.streamCalls)
	})

	t.Run("should append an error marker after partial output on mid-stream failure", func(t *testing.T) {
		streamer := &fakeStreamer{deltas: []string{"partial "}, midErr: errors.New("upstream reset")}
		handler := newTestHandler(streamer, nil)

		body := `{"messages":[{"role":"user","content":"hi"}],"userLang":"en"}`
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleChat(rec, req)

		require.True(t, strings.HasPrefix(rec.Body.String(), "partial "))
		require.Contains(t, rec.Body.String(), "ERROR: ")
	})

	t.Run("should reject non-POST requests", func(t *testing.T) {
		handler := newTestHandler(&fakeStreamer{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
		rec := httptest.NewRecorder()

		handler.HandleChat(rec, req)

		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHandler_HandleItinerary(t *testing.T) {
	t.Run("should return the parsed itinerary", func(t *testing.T) {
		streamer := &fakeStreamer{result: `{"title":"T","summary":"S","days":[],"booking_suggestions":[]}`}
		handler := newTestHandler(streamer, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/itinerary", strings.NewReader(`{"area":"Dublin 2","days":2}`))
		rec := httptest.NewRecorder()

		handler.HandleItinerary(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var itinerary domain.Itinerary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &itinerary))
		require.Equal(t, "T", itinerary.Title)
	})

	t.Run("should wrap unparseable output as raw", func(t *testing.T) {
		streamer := &fakeStreamer{result: "not json"}
		handler := newTestHandler(streamer, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/itinerary", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		handler.HandleItinerary(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var payload map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		require.Equal(t, "not json", payload["raw"])
	})

	t.Run("should return 500 on completion failure", func(t *testing.T) {
		streamer := &fakeStreamer{completeErr: errors.New("upstream down")}
		handler := newTestHandler(streamer, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/itinerary", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		handler.HandleItinerary(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var payload map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		require.NotEmpty(t, payload["error"])
	})
}

func TestHandler_HandleReport(t *testing.T) {
	t.Run("should publish the report as an event", func(t *testing.T) {
		publisher := &recordingPublisher{}
		handler := newTestHandler(&fakeStreamer{}, publisher)

		body := `{"category":"bug","description":"stream stops"}`
		req := httptest.NewRequest(http.MethodPost, "/api/report", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleReport(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, []string{"issue_report"}, publisher.events)
	})
}

func TestHandler_HandleQuote(t *testing.T) {
	t.Run("should return 503 when quotes are not configured", func(t *testing.T) {
		handler := newTestHandler(&fakeStreamer{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/stocks/AAPL", nil)
		rec := httptest.NewRecorder()

		handler.HandleQuote(rec, req)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandler_HandleHealth(t *testing.T) {
	t.Run("should report healthy", func(t *testing.T) {
		handler := newTestHandler(&fakeStreamer{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		handler.HandleHealth(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "healthy")
	})
}
