package domain

// Message roles accepted in a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// PivotLanguage is the fixed intermediate language. All user input is
// translated into it before the completion call, and all output is translated
// back out of it.
const PivotLanguage = "en"

// AutoLanguage is the sentinel requesting language detection on the latest
// user message.
const AutoLanguage = "auto"

// Message represents a single chat turn.
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// ChatRequest represents an incoming relay request.
type ChatRequest struct {
	Messages []Message `json:"messages"`
	UserLang string    `json:"userLang,omitempty"` // ISO-639-1-like code or "auto"
	Area     string    `json:"area,omitempty"`
}

// StreamChunk represents a single streaming response chunk.
type StreamChunk struct {
	Delta string `json:"delta"`
	Done  bool   `json:"done"`
	Error error  `json:"error,omitempty"`
}

// CompletionOptions fixes the sampling surface per call site. The chat relay
// and the one-shot itinerary generation use different settings.
type CompletionOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// ItineraryRequest represents an itinerary generation request.
type ItineraryRequest struct {
	Area        string            `json:"area,omitempty"`
	Days        int               `json:"days,omitempty"`
	StartDate   string            `json:"startDate,omitempty"`
	Preferences map[string]string `json:"preferences,omitempty"`
	UserLang    string            `json:"userLang,omitempty"`
}

// Itinerary is the structured trip plan returned by the itinerary endpoint.
type Itinerary struct {
	Title              string              `json:"title"`
	Summary            string              `json:"summary"`
	Days               []ItineraryDay      `json:"days"`
	BookingSuggestions []BookingSuggestion `json:"booking_suggestions"`
}

// ItineraryDay is one day of an itinerary.
type ItineraryDay struct {
	Day         int             `json:"day"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Items       []ItineraryItem `json:"items"`
}

// ItineraryItem is a single stop within a day.
type ItineraryItem struct {
	Time        string `json:"time,omitempty"`
	Name        string `json:"name"`
	Note        string `json:"note,omitempty"`
	Address     string `json:"address,omitempty"`
	MapURL      string `json:"map_url,omitempty"`
	OfficialURL string `json:"official_url,omitempty"`
}

// BookingSuggestion is a labelled booking link attached to an itinerary.
type BookingSuggestion struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}
