package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/turaslabs/turas/internal/domain"
	"github.com/turaslabs/turas/internal/geo"
	"github.com/turaslabs/turas/internal/observability"
	"github.com/turaslabs/turas/internal/stocks"
)

// errorPrefix marks the single terminal error payload on a chat stream. The
// client renders it as the final assistant message, not model output.
const errorPrefix = "ERROR: "

// Handler handles HTTP requests.
type Handler struct {
	relay     *domain.RelayService
	itinerary *domain.ItineraryService
	quotes    *stocks.Client
	geocoder  *geo.Client
	events    domain.EventPublisher
}

// NewHandler creates a new HTTP handler (DI constructor). The quote client
// may be nil when no stocks API key is configured.
func NewHandler(
	relay *domain.RelayService,
	itinerary *domain.ItineraryService,
	quotes *stocks.Client,
	geocoder *geo.Client,
	events domain.EventPublisher,
) *Handler {
	return &Handler{
		relay:     relay,
		itinerary: itinerary,
		quotes:    quotes,
		geocoder:  geocoder,
		events:    events,
	}
}

// HandleChat processes streaming chat relay requests. The response is a
// chunked body of raw translated text fragments, not framed SSE; failures
// after the headers are sent arrive in-band as a single ERROR-prefixed chunk.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger := observability.FromContext(ctx)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("streaming not supported")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeStreamError(w, flusher, fmt.Errorf("invalid request body: %w", err))
		return
	}

	logger.Info("chat request received",
		zap.Int("messages", len(req.Messages)),
		zap.String("user_lang", req.UserLang),
	)

	chunks, err := h.relay.Stream(ctx, &req)
	if err != nil {
		logger.Error("relay rejected request", zap.Error(err))
		h.writeStreamError(w, flusher, err)
		return
	}

	for chunk := range chunks {
		if chunk.Error != nil {
			// Cancellation severs the transport; no marker is written then.
			if ctx.Err() != nil {
				return
			}
			logger.Error("stream chunk error", zap.Error(chunk.Error))
			h.writeStreamError(w, flusher, chunk.Error)
			return
		}

		if chunk.Delta != "" {
			if _, writeErr := fmt.Fprint(w, chunk.Delta); writeErr != nil {
				logger.Warn("client write failed", zap.Error(writeErr))
				return
			}
			flusher.Flush()
		}
	}

	logger.Info("chat stream completed")
}

// writeStreamError emits the terminal error marker on an already-open stream.
func (h *Handler) writeStreamError(w http.ResponseWriter, flusher http.Flusher, err error) {
	fmt.Fprint(w, errorPrefix+err.Error())
	flusher.Flush()
}

// HandleItinerary processes one-shot itinerary generation requests.
func (h *Handler) HandleItinerary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger := observability.FromContext(ctx)

	var req domain.ItineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.itinerary.Generate(ctx, &req)
	if err != nil {
		logger.Error("itinerary generation failed", zap.Error(err))
		writeJSON(ctx, w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to generate itinerary",
		})
		return
	}

	if result.Itinerary == nil {
		writeJSON(ctx, w, http.StatusOK, map[string]string{"raw": result.Raw})
		return
	}

	writeJSON(ctx, w, http.StatusOK, result.Itinerary)
}

// HandleQuote proxies a stock quote lookup.
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	if h.quotes == nil {
		http.Error(w, "stock quotes not configured", http.StatusServiceUnavailable)
		return
	}

	symbol := r.PathValue("symbol")
	quote, err := h.quotes.Quote(ctx, symbol)
	if err != nil {
		logger.Error("quote lookup failed", zap.String("symbol", symbol), zap.Error(err))
		writeJSON(ctx, w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to fetch quote",
		})
		return
	}

	writeJSON(ctx, w, http.StatusOK, quote)
}

// HandleGeocode proxies a Nominatim search.
func (h *Handler) HandleGeocode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	query := r.URL.Query().Get("q")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		fmt.Sscanf(raw, "%d", &limit)
	}

	results, err := h.geocoder.Geocode(ctx, query, limit)
	if err != nil {
		logger.Error("geocode failed", zap.String("query", query), zap.Error(err))
		writeJSON(ctx, w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to geocode",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(results)
}

// reportRequest is an issue report submitted from the client.
type reportRequest struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Email       string `json:"email,omitempty"`
}

// HandleReport accepts an issue report and publishes it as an event.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if h.events != nil {
		h.events.Publish(ctx, "issue_report", map[string]interface{}{
			"category":    req.Category,
			"description": req.Description,
			"email":       req.Email,
		})
	}

	writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "received"})
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		// Already written status, can't change it, just log.
		return
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		observability.FromContext(ctx).Error("failed to encode response", zap.Error(err))
	}
}
