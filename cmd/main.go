package main

import (
	"log"
	"log/slog"
	"os"

	"go.uber.org/dig"

	"github.com/turaslabs/turas/internal/cache/memory"
	cacheredis "github.com/turaslabs/turas/internal/cache/redis"
	"github.com/turaslabs/turas/internal/config"
	"github.com/turaslabs/turas/internal/domain"
	"github.com/turaslabs/turas/internal/geo"
	"github.com/turaslabs/turas/internal/http"
	"github.com/turaslabs/turas/internal/http/middleware"
	"github.com/turaslabs/turas/internal/observability"
	"github.com/turaslabs/turas/internal/provider/echo"
	"github.com/turaslabs/turas/internal/provider/openai"
	"github.com/turaslabs/turas/internal/stocks"
	"github.com/turaslabs/turas/internal/translate/google"
	"github.com/turaslabs/turas/internal/translate/libre"
)

func main() {
	if _, err := observability.InitLogger(); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	container := buildContainer()

	err := container.Invoke(func(server *http.Server) {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

//nolint:funlen // Container wiring is linear and clearer in one place
func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(func() *slog.Logger {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}); err != nil {
		log.Fatalf("Failed to provide slog logger: %v", err)
	}
	if err := container.Provide(func(logger *slog.Logger) domain.EventPublisher {
		return observability.NewEventBus(logger)
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Translation providers, tried in order: Google first, LibreTranslate
	// as the fallback.
	if err := container.Provide(func(gcfg *google.Config, lcfg *libre.Config) []domain.TranslationProvider {
		providers := make([]domain.TranslationProvider, 0, 2)

		if gcfg.APIKey != "" {
			primary, err := google.NewProvider(*gcfg)
			if err != nil {
				log.Fatalf("Failed to build Google provider: %v", err)
			}
			providers = append(providers, primary)
		}

		return append(providers, libre.NewProvider(*lcfg))
	}); err != nil {
		log.Fatalf("Failed to provide translation providers: %v", err)
	}

	// Translation cache: Redis when configured, in-process otherwise.
	if err := container.Provide(func(rcfg *cacheredis.Config) domain.TranslationCache {
		if rcfg.Addr == "" {
			return memory.NewTranslationCache()
		}
		return cacheredis.NewTranslationCache(cacheredis.NewClient(*rcfg))
	}); err != nil {
		log.Fatalf("Failed to provide translation cache: %v", err)
	}

	// Completion streamer: the echo provider keeps local development
	// working without an API key.
	if err := container.Provide(func(ocfg *openai.Config) (domain.CompletionStreamer, error) {
		if ocfg.APIKey == "" {
			log.Println("OPENAI_API_KEY not set, using echo streamer")
			return echo.NewStreamer(), nil
		}
		return openai.NewStreamer(*ocfg)
	}); err != nil {
		log.Fatalf("Failed to provide completion streamer: %v", err)
	}

	// Domain services
	if err := container.Provide(domain.NewTranslationGateway); err != nil {
		log.Fatalf("Failed to provide translation gateway: %v", err)
	}
	if err := container.Provide(func(
		models *config.ModelsConfig,
		translator *domain.TranslationGateway,
		streamer domain.CompletionStreamer,
	) *domain.RelayService {
		return domain.NewRelayService(translator, streamer, domain.CompletionOptions{
			Model:       models.ChatModel,
			MaxTokens:   models.ChatMaxTokens,
			Temperature: models.ChatTemperature,
		})
	}); err != nil {
		log.Fatalf("Failed to provide relay service: %v", err)
	}
	if err := container.Provide(func(
		models *config.ModelsConfig,
		translator *domain.TranslationGateway,
		streamer domain.CompletionStreamer,
	) *domain.ItineraryService {
		return domain.NewItineraryService(translator, streamer, domain.CompletionOptions{
			Model:       models.ItineraryModel,
			Temperature: models.ItineraryTemperature,
		})
	}); err != nil {
		log.Fatalf("Failed to provide itinerary service: %v", err)
	}

	// External collaborators
	if err := container.Provide(func(scfg *stocks.Config) *stocks.Client {
		if scfg.APIKey == "" {
			return nil
		}
		client, err := stocks.NewClient(*scfg)
		if err != nil {
			log.Fatalf("Failed to build stocks client: %v", err)
		}
		return client
	}); err != nil {
		log.Fatalf("Failed to provide stocks client: %v", err)
	}
	if err := container.Provide(func(gcfg *geo.Config) *geo.Client {
		return geo.NewClient(*gcfg)
	}); err != nil {
		log.Fatalf("Failed to provide geocoder: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
