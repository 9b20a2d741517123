package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/turaslabs/turas/internal/cache/redis"
	"github.com/turaslabs/turas/internal/geo"
	"github.com/turaslabs/turas/internal/provider/openai"
	"github.com/turaslabs/turas/internal/stocks"
	"github.com/turaslabs/turas/internal/translate/google"
	"github.com/turaslabs/turas/internal/translate/libre"
)

// Config represents the relay server configuration.
type Config struct {
	Server ServerConfig
	CORS   CORSConfig
	Models ModelsConfig
	OpenAI openai.Config
	Google google.Config
	Libre  libre.Config
	Redis  redis.Config
	Stocks stocks.Config
	Geo    geo.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"5000"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"300"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// ModelsConfig fixes per-call-site model settings. The chat relay favours a
// fast model with capped output; itinerary generation favours quality.
type ModelsConfig struct {
	ChatModel            string  `env:"CHAT_MODEL"            envDefault:"gpt-4o-mini"`
	ChatMaxTokens        int     `env:"CHAT_MAX_TOKENS"       envDefault:"800"`
	ChatTemperature      float64 `env:"CHAT_TEMPERATURE"      envDefault:"0.7"`
	ItineraryModel       string  `env:"ITINERARY_MODEL"       envDefault:"gpt-4o"`
	ItineraryTemperature float64 `env:"ITINERARY_TEMPERATURE" envDefault:"0.7"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*ModelsConfig
	OpenAI *openai.Config
	Google *google.Config
	Libre  *libre.Config
	Redis  *redis.Config
	Stocks *stocks.Config
	Geo    *geo.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Models,
		&cfg.OpenAI,
		&cfg.Google,
		&cfg.Libre,
		&cfg.Redis,
		&cfg.Stocks,
		&cfg.Geo,
	}
}
