// Package cli holds the aveiro-bus commands.
package cli

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/joeshaw/aveiro-bus/internal/chat"
	"github.com/joeshaw/aveiro-bus/internal/config"
	"github.com/joeshaw/aveiro-bus/internal/logging"
	"github.com/joeshaw/aveiro-bus/internal/maps"
	"github.com/joeshaw/aveiro-bus/internal/metrics"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

var (
	envFile string
	cfg     *config.Config
)

// Execute runs the command line.
func Execute() error {
	defer logging.Sync()
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "aveiro-bus",
		Short:        "Bus directions, timetables and service alerts for Aveiro",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(envFile)
			if err != nil {
				return err
			}
			cfg = c
			logging.New(cfg.Environment)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to read before the environment")

	root.AddCommand(serveCmd(), directionsCmd(), placesCmd(), askCmd(), linesCmd())
	return root
}

func httpClient() *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

func newMapsClient(m metrics.Metricer) *maps.Client {
	return maps.NewClient(maps.Options{
		APIKey:     cfg.Maps.APIKey,
		BaseURL:    cfg.Maps.BaseURL,
		Language:   cfg.Maps.Language,
		Components: cfg.Maps.Components,
		Bias:       models.LatLng{Lat: cfg.Maps.BiasLat, Lng: cfg.Maps.BiasLng},
		BiasRadius: cfg.Maps.BiasRadius,
		HTTPClient: httpClient(),
		Attempts:   cfg.Attempts,
		Metrics:    m,
	})
}

// newAssistant picks the chat provider named by the configuration.
func newAssistant(m metrics.Metricer) chat.Assistant {
	if cfg.Chat.Provider == "openai" {
		return chat.NewOpenAI(chat.OpenAIOptions{
			APIKey:  cfg.Chat.OpenAIAPIKey,
			Model:   cfg.Chat.OpenAIModel,
			BaseURL: cfg.Chat.OpenAIBaseURL,
			Metrics: m,
		})
	}
	return chat.NewGemini(chat.GeminiOptions{
		APIKey:  cfg.Chat.GeminiAPIKey,
		Model:   cfg.Chat.GeminiModel,
		BaseURL: cfg.Chat.GeminiBaseURL,
		Metrics: m,
	})
}
