package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/turaslabs/turas/internal/observability"
)

const defaultItineraryDays = 3

// ItineraryResult is either a parsed itinerary or, when the model output was
// not valid JSON, the raw text.
type ItineraryResult struct {
	Itinerary *Itinerary `json:"itinerary,omitempty"`
	Raw       string     `json:"raw,omitempty"`
}

// ItineraryService generates structured trip plans with a single
// non-streaming completion call.
type ItineraryService struct {
	translator *TranslationGateway
	streamer   CompletionStreamer
	opts       CompletionOptions
}

// NewItineraryService creates a new itinerary service (DI constructor).
func NewItineraryService(translator *TranslationGateway, streamer CompletionStreamer, opts CompletionOptions) *ItineraryService {
	return &ItineraryService{
		translator: translator,
		streamer:   streamer,
		opts:       opts,
	}
}

// Generate produces an itinerary for the requested area. When the model adds
// prose around the JSON document the trailing object is extracted; when no
// JSON can be recovered the raw output is returned instead.
func (s *ItineraryService) Generate(ctx context.Context, req *ItineraryRequest) (*ItineraryResult, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	days := req.Days
	if days <= 0 {
		days = defaultItineraryDays
	}

	area := NormalizeArea(req.Area)
	ctx = observability.WithArea(ctx, area)

	logger := observability.FromContext(ctx)
	logger.Info("itinerary generation started", observability.Int("days", days))

	messages := buildItineraryMessages(area, days, req.StartDate, req.Preferences)

	raw, err := s.streamer.Complete(ctx, messages, s.opts)
	if err != nil {
		logger.Error("itinerary completion failed", observability.Error(err))
		return nil, fmt.Errorf("itinerary completion failed: %w", err)
	}

	itinerary := parseItinerary(strings.TrimSpace(raw))
	if itinerary == nil {
		logger.Warn("itinerary output was not parseable JSON",
			observability.Int("raw_length", len(raw)))
		return &ItineraryResult{Raw: strings.TrimSpace(raw)}, nil
	}

	s.localize(ctx, itinerary, req.UserLang)

	return &ItineraryResult{Itinerary: itinerary}, nil
}

// localize re-translates the title and summary for non-pivot languages.
// Translation failure keeps the original text.
func (s *ItineraryService) localize(ctx context.Context, itinerary *Itinerary, userLang string) {
	if userLang == "" || userLang == PivotLanguage {
		return
	}

	if title, ok := s.translator.Translate(ctx, itinerary.Title, userLang); ok {
		itinerary.Title = title
	}
	if summary, ok := s.translator.Translate(ctx, itinerary.Summary, userLang); ok {
		itinerary.Summary = summary
	}
}

func buildItineraryMessages(area string, days int, startDate string, preferences map[string]string) []Message {
	if startDate == "" {
		startDate = "soon"
	}

	prefs, _ := json.Marshal(preferences)
	if preferences == nil {
		prefs = []byte("{}")
	}

	system := Message{
		Role: RoleSystem,
		Content: "You are a meticulous Ireland trip planner. Create a JSON itinerary only, no extra text. " +
			fmt.Sprintf("Focus on %s. Use walking/public transport by default. Avoid exact prices.", area),
	}

	user := Message{
		Role: RoleUser,
		Content: fmt.Sprintf("Please create a %d-day itinerary starting %s for %s.\n", days, startDate, area) +
			fmt.Sprintf("Preferences: %s\n", prefs) +
			"Respond with STRICT JSON matching this TypeScript type:\n" +
			"type Itinerary = {\n" +
			"  title: string;\n" +
			"  summary: string;\n" +
			"  days: Array<{ day: number; title: string; description: string; items: Array<{ time?: string; name: string; note?: string; address?: string; map_url?: string; official_url?: string; }> }>;\n" +
			"  booking_suggestions: Array<{ label: string; url: string }>;\n" +
			"};\n" +
			"Rules: Provide valid JSON only. Do not include markdown fences. Use Google Maps links for map_url when possible. Use official URLs if known, otherwise omit.",
	}

	return []Message{system, user}
}

// parseItinerary tries a strict parse first, then extracts a trailing JSON
// object in case the model wrapped the document in prose.
func parseItinerary(raw string) *Itinerary {
	var itinerary Itinerary
	if err := json.Unmarshal([]byte(raw), &itinerary); err == nil {
		return &itinerary
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil
	}

	if err := json.Unmarshal([]byte(raw[start:end+1]), &itinerary); err != nil {
		return nil
	}
	return &itinerary
}
