package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"chinook/internal/auth"
	"chinook/internal/config"
	"chinook/internal/logging"
	"chinook/internal/metrics"
	"chinook/internal/notify"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("chinook exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.SetGlobalLogger(logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens := auth.NewTokens(cfg.Security.JWTSecret, cfg.Security.TokenTTL)

	if cfg.Storage.SeedDemo {
		if err := bootstrapDemoData(ctx, dataStore, tokens); err != nil {
			return err
		}
	}

	topics := notify.NewTopics(cfg.Notifier.Buffer)
	defer topics.Close()
	if err := metrics.RegisterNotifier(prometheus.DefaultRegisterer, topics); err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      newHTTPHandler(cfg, dataStore, topics, tokens),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("backend", cfg.Storage.Backend).
			Msg("API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	// Streams never finish on their own; closing the topics ends them.
	topics.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("server exited")
	return nil
}
