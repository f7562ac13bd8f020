package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joeshaw/aveiro-bus/internal/api"
	"github.com/joeshaw/aveiro-bus/internal/autocomplete"
	"github.com/joeshaw/aveiro-bus/internal/chat"
	"github.com/joeshaw/aveiro-bus/internal/directions"
	"github.com/joeshaw/aveiro-bus/internal/gtfs"
	"github.com/joeshaw/aveiro-bus/internal/logging"
	"github.com/joeshaw/aveiro-bus/internal/metrics"
	"github.com/joeshaw/aveiro-bus/internal/notices"
	"github.com/joeshaw/aveiro-bus/internal/preferences"
	"github.com/joeshaw/aveiro-bus/internal/storage"
	"github.com/joeshaw/aveiro-bus/internal/store"
	"github.com/joeshaw/aveiro-bus/internal/updater"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	log := logging.WithContext(ctx)

	var (
		registry *metrics.Metrics
		recorder metrics.Metricer = metrics.Noop
	)
	if cfg.Metrics {
		registry = metrics.NewMetrics()
		recorder = registry
	}

	db, err := storage.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// An unavailable feed leaves the network empty until the next refresh.
	dataStore := store.NewStore()
	loader := gtfs.NewLoader(cfg.GTFS.URL, cfg.GTFS.Path, httpClient(), dataStore)
	if err := loader.Load(ctx); err != nil {
		log.Error("Failed to load initial GTFS data", zap.Error(err))
	}

	var source notices.Source
	if cfg.Notices.URL != "" {
		source = notices.NewScraper(cfg.Notices.URL, notices.Selectors{
			Item:  cfg.Notices.ItemSelector,
			Title: cfg.Notices.TitleSel,
			Body:  cfg.Notices.BodySel,
		}, httpClient(), recorder)
	}
	noticeService := notices.NewService(db, source)
	if err := noticeService.Seed(ctx); err != nil {
		return err
	}

	mapsClient := newMapsClient(recorder)
	apiServer := api.NewServer(api.Options{
		Store:       dataStore,
		Directions:  directions.NewService(mapsClient),
		Places:      autocomplete.NewService(mapsClient, cfg.Maps.Debounce, cfg.Maps.MinChars),
		Chat:        chat.NewService(newAssistant(recorder), db, cfg.Chat.History),
		Preferences: preferences.NewService(db),
		Notices:     noticeService,
		Metrics:     registry,
	})
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	gtfsUpdater := updater.New("gtfs", cfg.GTFS.Refresh, loader.Load)
	noticesUpdater := updater.New("notices", cfg.Notices.Refresh, func(ctx context.Context) error {
		_, err := noticeService.Refresh(ctx)
		return err
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server listening", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return gtfsUpdater.Run(gctx)
	})

	g.Go(func() error {
		if source != nil {
			noticesUpdater.Update(gctx)
		}
		return noticesUpdater.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server exited properly")
	return nil
}
