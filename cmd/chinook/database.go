package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"chinook/internal/config"
	"chinook/internal/memstore"
	"chinook/internal/store"
)

// openStore selects the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (dataStore, func(), error) {
	if cfg.Storage.Backend == config.BackendMemory {
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return memstore.New(), func() {}, nil
	}

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return store.New(db), func() { _ = db.Close() }, nil
}

// openDatabase establishes a database connection and retries until the instance responds.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	const (
		pingTimeout    = 5 * time.Second
		maxWait        = 30 * time.Second
		initialBackoff = 500 * time.Millisecond
		maxBackoff     = 5 * time.Second
	)

	deadline := time.Now().Add(maxWait)
	backoff := initialBackoff
	var lastErr error

	for {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = db.PingContext(pingCtx)
		cancel()

		if lastErr == nil {
			return db, nil
		}

		if ctx.Err() != nil || time.Now().After(deadline) {
			break
		}

		log.Warn().Err(lastErr).Dur("retry_in", backoff).Msg("database not ready")
		select {
		case <-ctx.Done():
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}

	_ = db.Close()
	return nil, fmt.Errorf("ping database: %w", lastErr)
}
