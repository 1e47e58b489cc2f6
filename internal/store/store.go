package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is the kind of every missing-entity error.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates a request that cannot be satisfied as given.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict signals a lost race on a unique constraint; callers may retry.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized indicates a missing caller identity.
	ErrUnauthorized = errors.New("unauthorized")

	ErrPlaylistNotFound     = fmt.Errorf("playlist %w", ErrNotFound)
	ErrTrackNotFound        = fmt.Errorf("track %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrArtistNotFound       = fmt.Errorf("artist %w", ErrNotFound)
	ErrTrackNotInPlaylist   = fmt.Errorf("track not in playlist: %w", ErrNotFound)
	ErrPlaylistNameRequired = fmt.Errorf("playlist name is required: %w", ErrInvalidArgument)
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return nil
}

// readOptions gives multi-statement readers one snapshot of the database.
var readOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// withReadTx runs fn in a read-only repeatable-read transaction so every
// statement in fn observes the same committed state.
func (s *Store) withReadTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, readOptions)
	if err != nil {
		return fmt.Errorf("begin read tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit read tx: %w", err)
	}
	tx = nil

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
