// Package client implements the session controller that talks to the chat
// relay: it owns the conversation transcript, reconstructs assistant output
// incrementally from the streamed chunks, and supports cancelling an
// in-flight request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/turaslabs/turas/internal/domain"
)

// ApologyMessage replaces the placeholder content when a request fails for
// any reason other than cancellation.
const ApologyMessage = "Sorry, something went wrong."

const (
	defaultTimeout = 5 * time.Minute
	readBufferSize = 4096
)

// UpdateFunc is invoked after every transcript mutation with a snapshot of
// the conversation, for live rendering. It must not call back into the
// session.
type UpdateFunc func(transcript []domain.Message)

// inflight tracks the single outstanding request. Identity comparison
// against Session.current keeps late-arriving chunks of a cancelled request
// from mutating the transcript.
type inflight struct {
	cancel context.CancelFunc
}

// Session owns a conversation for its lifetime. A new turn is never started
// while one is in flight for the same session: starting a new request first
// cancels any outstanding one (last-request-wins, not queued).
type Session struct {
	baseURL    string
	httpClient *http.Client
	userLang   string
	area       string
	onUpdate   UpdateFunc

	mu         sync.Mutex
	transcript []domain.Message
	current    *inflight
}

// Option configures a Session.
type Option func(*Session)

// WithHistory seeds the session with a restored conversation.
func WithHistory(history []domain.Message) Option {
	return func(s *Session) {
		s.transcript = append([]domain.Message(nil), history...)
	}
}

// WithLang sets the requested user language (code or "auto").
func WithLang(lang string) Option {
	return func(s *Session) { s.userLang = lang }
}

// WithArea sets the area hint sent with every request.
func WithArea(area string) Option {
	return func(s *Session) { s.area = area }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) { s.httpClient = client }
}

// WithUpdateFunc registers the transcript render callback.
func WithUpdateFunc(fn UpdateFunc) Option {
	return func(s *Session) { s.onUpdate = fn }
}

// NewSession creates a session against the given relay base URL.
func NewSession(baseURL string, opts ...Option) *Session {
	s := &Session{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		userLang:   domain.AutoLanguage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send appends a user turn and streams the assistant reply into the
// transcript. It blocks until the stream ends, fails, or is cancelled.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("message cannot be empty")
	}
	return s.send(ctx, nil, text)
}

// SendMessages replaces the conversation with an explicit message list and
// streams a reply. Used for programmatically synthesized prompts.
func (s *Session) SendMessages(ctx context.Context, messages []domain.Message) error {
	if len(messages) == 0 {
		return errors.New("messages cannot be empty")
	}
	return s.send(ctx, messages, "")
}

func (s *Session) send(ctx context.Context, override []domain.Message, text string) error {
	reqCtx, cancel := context.WithCancel(ctx)
	req := &inflight{cancel: cancel}

	payload := s.begin(req, override, text)

	err := s.stream(reqCtx, req, payload)
	cancel()
	return err
}

// begin installs the request as current (cancelling any outstanding one),
// appends the user turn and the empty assistant placeholder, and returns the
// conversation snapshot to send upstream.
func (s *Session) begin(req *inflight, override []domain.Message, text string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()

	if override != nil {
		s.transcript = append([]domain.Message(nil), override...)
	} else {
		s.transcript = append(s.transcript, domain.Message{Role: domain.RoleUser, Content: text})
	}

	// Snapshot before the placeholder: the placeholder is presentation
	// state, not conversation history.
	payload := append([]domain.Message(nil), s.transcript...)

	s.transcript = append(s.transcript, domain.Message{Role: domain.RoleAssistant, Content: ""})
	s.current = req
	s.notifyLocked()

	return payload
}

// stream performs the HTTP request and fills the placeholder chunk by chunk.
func (s *Session) stream(ctx context.Context, req *inflight, payload []domain.Message) error {
	body, err := json.Marshal(domain.ChatRequest{
		Messages: payload,
		UserLang: s.userLang,
		Area:     s.area,
	})
	if err != nil {
		s.fail(req)
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		s.fail(req)
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			s.rollback(req)
			return ctx.Err()
		}
		s.fail(req)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var assembled strings.Builder
	buf := make([]byte, readBufferSize)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			assembled.Write(buf[:n])
			if !s.update(req, assembled.String()) {
				// A newer request took over; stop touching the transcript.
				return context.Canceled
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return s.finish(req, assembled.String())
			}
			if ctx.Err() != nil {
				s.rollback(req)
				return ctx.Err()
			}
			s.fail(req)
			return fmt.Errorf("stream read failed: %w", readErr)
		}
	}
}

// Cancel aborts the in-flight request, if any, and rolls back its empty
// placeholder. Cancelling when nothing is outstanding is a no-op.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// History returns a snapshot of the conversation.
func (s *Session) History() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.transcript...)
}

// Clear resets the conversation. An in-flight request is cancelled first.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.transcript = nil
	s.notifyLocked()
}

// update replaces the placeholder content with the accumulated buffer.
// Returns false when the request is no longer current.
func (s *Session) update(req *inflight, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != req {
		return false
	}

	s.transcript[len(s.transcript)-1].Content = content
	s.notifyLocked()
	return true
}

// finish completes a request. A placeholder left empty by a silent stream is
// replaced with the apology so it never lingers blank.
func (s *Session) finish(req *inflight, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != req {
		return context.Canceled
	}
	s.current = nil

	if content == "" {
		s.transcript[len(s.transcript)-1].Content = ApologyMessage
		s.notifyLocked()
	}
	return nil
}

// fail replaces the placeholder content with the apology message.
func (s *Session) fail(req *inflight) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != req {
		return
	}
	s.current = nil

	s.transcript[len(s.transcript)-1].Content = ApologyMessage
	s.notifyLocked()
}

// rollback handles the cancellation path for the request's own goroutine.
func (s *Session) rollback(req *inflight) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != req {
		// The canceller already rolled the placeholder back.
		return
	}
	s.current = nil
	s.dropEmptyPlaceholderLocked()
}

// cancelLocked aborts the outstanding request and rolls back its
// placeholder. Partial output already rendered is kept.
func (s *Session) cancelLocked() {
	if s.current == nil {
		return
	}

	s.current.cancel()
	s.current = nil
	s.dropEmptyPlaceholderLocked()
}

// dropEmptyPlaceholderLocked removes a trailing empty assistant turn.
func (s *Session) dropEmptyPlaceholderLocked() {
	last := len(s.transcript) - 1
	if last < 0 {
		return
	}
	if s.transcript[last].Role == domain.RoleAssistant && s.transcript[last].Content == "" {
		s.transcript = s.transcript[:last]
		s.notifyLocked()
	}
}

func (s *Session) notifyLocked() {
	if s.onUpdate != nil {
		s.onUpdate(append([]domain.Message(nil), s.transcript...))
	}
}
