package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"tangled.org/briar.gg/briar/internal/commands"
	"tangled.org/briar.gg/briar/internal/config"
	"tangled.org/briar.gg/briar/internal/database"
	"tangled.org/briar.gg/briar/internal/handlers"
	"tangled.org/briar.gg/briar/internal/metrics"
	"tangled.org/briar.gg/briar/internal/routing"
	"tangled.org/briar.gg/briar/internal/sweep"
	"tangled.org/briar.gg/briar/internal/webhook"
)

func main() {
	// Configure zerolog
	// Set log level from environment (default: info)
	logLevel := os.Getenv("LOG_LEVEL")
	switch logLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Use pretty console logging in development, JSON in production
	if os.Getenv("LOG_FORMAT") == "json" {
		// Production: JSON logs
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Development: pretty console logs
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	log.Info().Msg("Starting Briar punishment service")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer store.Close()

	notifier := webhook.NewNotifier(webhook.Config{URL: cfg.WebhookURL})
	if notifier.Enabled() {
		log.Info().Msg("Webhook notifications enabled")
	}

	dispatcher := commands.NewDispatcher(store, notifier)
	h := handlers.NewHandler(store, dispatcher)

	handler := routing.SetupRouter(routing.Config{
		Handlers: h,
		APIKey:   cfg.APIKey,
		Logger:   log.Logger,
	})

	metrics.StartCollector(ctx, metrics.StatsSource{
		ActivePunishmentCount: func() int {
			ids, err := store.GetActivePunishmentIDs(context.Background())
			if err != nil {
				return -1
			}
			return len(ids)
		},
	}, time.Minute)

	server := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", cfg.APIPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sweep.New(store, cfg.SweepInterval).Run(ctx)
		return nil
	})

	g.Go(func() error {
		log.Info().Str("address", server.Addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
	log.Info().Msg("Shutdown complete")
}
