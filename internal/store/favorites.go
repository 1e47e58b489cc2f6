package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chinook/internal/models"
)

// ToggleResult reports the outcome of a favorite toggle.
type ToggleResult struct {
	IsFavorite bool
	// PlaylistCreated is set when the toggle created the Favorites playlist.
	PlaylistCreated bool
}

// ToggleFavorite flips membership of trackID in the user's Favorites
// playlist, creating the playlist on first use. The whole sequence runs in
// one transaction holding a row lock on the Favorites playlist, so
// concurrent toggles for the same user serialize.
func (s *Store) ToggleFavorite(ctx context.Context, userID string, trackID int64) (ToggleResult, error) {
	var result ToggleResult

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		playlistID, created, err := ensurePlaylist(ctx, tx, userID, models.FavoritesPlaylistName)
		if err != nil {
			return err
		}
		result.PlaylistCreated = created

		if err := trackExists(ctx, tx, trackID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			DELETE FROM playlist_tracks
			WHERE playlist_id = $1 AND track_id = $2
		`, playlistID, trackID)
		if err != nil {
			return fmt.Errorf("remove favorite: %w", err)
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("remove favorite rows: %w", err)
		}
		if removed > 0 {
			result.IsFavorite = false
			return nil
		}

		if err := addMember(ctx, tx, playlistID, trackID); err != nil {
			return err
		}
		result.IsFavorite = true
		return nil
	})
	if err != nil {
		return ToggleResult{}, err
	}
	return result, nil
}

// ensurePlaylist returns the id of the playlist named name owned by userID,
// creating and linking it when absent. The returned row is locked until the
// transaction ends. The insert only runs when the lookup misses, so existing
// playlists do not advance the id sequence.
func ensurePlaylist(ctx context.Context, tx *sql.Tx, userID, name string) (int64, bool, error) {
	if err := userExists(ctx, tx, userID); err != nil {
		return 0, false, err
	}

	id, found, err := lockOwnedPlaylist(ctx, tx, userID, name)
	if err != nil {
		return 0, false, err
	}
	created := false
	if !found {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO playlists (owner_id, name)
			VALUES ($1, $2)
			ON CONFLICT (owner_id, name) DO NOTHING
			RETURNING id
		`, userID, name).Scan(&id)
		switch {
		case err == nil:
			created = true
		case errors.Is(err, sql.ErrNoRows):
			// A concurrent transaction created it between lookup and insert.
			id, found, err = lockOwnedPlaylist(ctx, tx, userID, name)
			if err != nil {
				return 0, false, err
			}
			if !found {
				return 0, false, ErrConflict
			}
		case isUniqueViolation(err):
			return 0, false, ErrConflict
		default:
			return 0, false, fmt.Errorf("insert playlist: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_playlists (user_id, playlist_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, id); err != nil {
		return 0, false, fmt.Errorf("link playlist: %w", err)
	}

	return id, created, nil
}

func lockOwnedPlaylist(ctx context.Context, tx *sql.Tx, userID, name string) (int64, bool, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `
		SELECT id
		FROM playlists
		WHERE owner_id = $1 AND name = $2
		FOR UPDATE
	`, userID, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lock playlist: %w", err)
	}
	return id, true, nil
}

func addMember(ctx context.Context, tx *sql.Tx, playlistID, trackID int64) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO playlist_tracks (playlist_id, track_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, playlistID, trackID); err != nil {
		return fmt.Errorf("add playlist track: %w", err)
	}
	return nil
}
