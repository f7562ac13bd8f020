package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting. Values come from the process
// environment, optionally pre-seeded from a .env file.
type Config struct {
	Environment string `env:"AVEIROBUS_ENV" envDefault:"development"`
	ListenAddr  string `env:"AVEIROBUS_LISTEN" envDefault:":18080"`
	Database    string `env:"AVEIROBUS_DB" envDefault:"aveirobus.db"`

	GTFS     GTFSConfig
	Maps     MapsConfig
	Chat     ChatConfig
	Notices  NoticesConfig
	Metrics  bool          `env:"AVEIROBUS_METRICS" envDefault:"true"`
	Timeout  time.Duration `env:"AVEIROBUS_HTTP_TIMEOUT" envDefault:"30s"`
	Attempts uint          `env:"AVEIROBUS_HTTP_ATTEMPTS" envDefault:"3"`
}

type GTFSConfig struct {
	URL     string        `env:"AVEIROBUS_GTFS_URL"`
	Path    string        `env:"AVEIROBUS_GTFS_PATH" envDefault:"aveirobus.gtfs.zip"`
	Refresh time.Duration `env:"AVEIROBUS_GTFS_REFRESH" envDefault:"24h"`
}

// MapsConfig configures the Google Maps web services client.
type MapsConfig struct {
	APIKey     string  `env:"GOOGLE_MAPS_API_KEY"`
	BaseURL    string  `env:"GOOGLE_MAPS_BASE_URL" envDefault:"https://maps.googleapis.com/maps/api"`
	Language   string  `env:"GOOGLE_MAPS_LANGUAGE" envDefault:"pt-PT"`
	Components string  `env:"GOOGLE_MAPS_COMPONENTS" envDefault:"country:PT"`
	BiasLat    float64 `env:"GOOGLE_MAPS_BIAS_LAT" envDefault:"40.64427"`
	BiasLng    float64 `env:"GOOGLE_MAPS_BIAS_LNG" envDefault:"-8.64554"`
	BiasRadius int     `env:"GOOGLE_MAPS_BIAS_RADIUS" envDefault:"10000"`

	Debounce time.Duration `env:"AVEIROBUS_AUTOCOMPLETE_DEBOUNCE" envDefault:"350ms"`
	MinChars int           `env:"AVEIROBUS_AUTOCOMPLETE_MIN_CHARS" envDefault:"3"`
}

type ChatConfig struct {
	Provider      string `env:"AVEIROBUS_CHAT_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash-latest"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	History       int    `env:"AVEIROBUS_CHAT_HISTORY" envDefault:"20"`
}

// NoticesConfig points the scraper at the operator's alerts page.
// An empty URL disables scraping and only the seeded notices are served.
type NoticesConfig struct {
	URL          string        `env:"AVEIROBUS_NOTICES_URL"`
	Refresh      time.Duration `env:"AVEIROBUS_NOTICES_REFRESH" envDefault:"1h"`
	ItemSelector string        `env:"AVEIROBUS_NOTICES_ITEM" envDefault:"article"`
	TitleSel     string        `env:"AVEIROBUS_NOTICES_TITLE" envDefault:"h2, h3"`
	BodySel      string        `env:"AVEIROBUS_NOTICES_BODY" envDefault:"p"`
}

// Load reads envFile when it exists and parses the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// IsDevelopment returns true if the env is development or local
func (cfg *Config) IsDevelopment() bool {
	return cfg.Environment == "development" || cfg.Environment == "local"
}
