package store

import (
	"context"
	"fmt"
	"strings"
)

// EnsureUser registers a user id if it is not known yet.
func (s *Store) EnsureUser(ctx context.Context, id, email string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("ensure user: %w", ErrInvalidArgument)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, id, nullIfEmpty(email)); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func userExists(ctx context.Context, q queryer, userID string) error {
	var exists bool
	if err := q.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)
	`, userID).Scan(&exists); err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
