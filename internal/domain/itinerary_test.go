package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turaslabs/turas/internal/domain"
)

// mockCompleter is a CompletionStreamer stub for the non-streaming call site.
type mockCompleter struct {
	result      string
	err         error
	gotMessages []domain.Message
}

func (m *mockCompleter) Stream(
	_ context.Context,
	_ []domain.Message,
	_ domain.CompletionOptions,
) (<-chan domain.StreamChunk, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCompleter) Complete(_ context.Context, messages []domain.Message, _ domain.CompletionOptions) (string, error) {
	m.gotMessages = messages
	return m.result, m.err
}

func (m *mockCompleter) Name() string {
	return "mock"
}

func newItineraryService(completer *mockCompleter, providers ...domain.TranslationProvider) *domain.ItineraryService {
	if len(providers) == 0 {
		providers = []domain.TranslationProvider{&mockTranslationProvider{name: "p"}}
	}
	gateway := domain.NewTranslationGateway(providers, newMockTranslationCache())
	return domain.NewItineraryService(gateway, completer, domain.CompletionOptions{
		Model:       "gpt-4o",
		Temperature: 0.7,
	})
}

const validItineraryJSON = `{"title":"Dublin weekend","summary":"Two relaxed days.",` +
	`"days":[{"day":1,"title":"Old town","description":"Walking tour.",` +
	`"items":[{"name":"Dublin Castle"}]}],` +
	`"booking_suggestions":[{"label":"Hotels","url":"https://www.booking.com/"}]}`

func TestItineraryService_Generate(t *testing.T) {
	t.Run("should parse strict JSON output", func(t *testing.T) {
		completer := &mockCompleter{result: validItineraryJSON}
		service := newItineraryService(completer)

		result, err := service.Generate(context.Background(), &domain.ItineraryRequest{Area: "Dublin 2"})

		require.NoError(t, err)
		require.NotNil(t, result.Itinerary)
		require.Equal(t, "Dublin weekend", result.Itinerary.Title)
		require.Len(t, result.Itinerary.Days, 1)
		require.Empty(t, result.Raw)
	})

	t.Run("should extract a JSON block wrapped in prose", func(t *testing.T) {
		completer := &mockCompleter{result: "Here is your itinerary:\n" + validItineraryJSON}
		service := newItineraryService(completer)

		result, err := service.Generate(context.Background(), &domain.ItineraryRequest{Area: "Dublin"})

		require.NoError(t, err)
		require.NotNil(t, result.Itinerary)
		require.Equal(t, "Dublin weekend", result.Itinerary.Title)
	})

	t.Run("should return raw output when no JSON can be recovered", func(t *testing.T) {
		completer := &mockCompleter{result: "I could not produce an itinerary."}
		service := newItineraryService(completer)

		result, err := service.Generate(context.Background(), &domain.ItineraryRequest{Area: "Dublin"})

		require.NoError(t, err)
		require.Nil(t, result.Itinerary)
		require.Equal(t, "I could not produce an itinerary.", result.Raw)
	})

	t.Run("should propagate completion failure", func(t *testing.T) {
		completer := &mockCompleter{err: errors.New("upstream down")}
		service := newItineraryService(completer)

		result, err := service.Generate(context.Background(), &domain.ItineraryRequest{Area: "Dublin"})

		require.Error(t, err)
		require.Nil(t, result)
	})

	t.Run("should localize title and summary for non-pivot languages", func(t *testing.T) {
		completer := &mockCompleter{result: validItineraryJSON}
		service := newItineraryService(completer, &mockTranslationProvider{name: "p"})

		result, err := service.Generate(context.Background(), &domain.ItineraryRequest{
			Area:     "Dublin",
			UserLang: "fr",
		})

		require.NoError(t, err)
		require.Equal(t, "[fr]Dublin weekend", result.Itinerary.Title)
		require.Equal(t, "[fr]Two relaxed days.", result.Itinerary.Summary)
	})

	t.Run("should default to a three day plan and normalize the area", func(t *testing.T) {
		completer := &mockCompleter{result: validItineraryJSON}
		service := newItineraryService(completer)

		_, err := service.Generate(context.Background(), &domain.ItineraryRequest{})

		require.NoError(t, err)
		require.Len(t, completer.gotMessages, 2)
		require.Contains(t, completer.gotMessages[0].Content, "Dublin 1")
		require.Contains(t, completer.gotMessages[1].Content, "3-day itinerary")
	})
}
