package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"chinook/internal/models"
)

// AddResult is the playlist a track was added to.
type AddResult struct {
	Playlist models.PlaylistRecord
	// Created is set when the call created the playlist.
	Created bool
}

// AddToPlaylist adds a track to the owned playlist matching req.Name or
// req.PlaylistID, creating a playlist named req.Name when nothing matches.
// A name match wins over an id match. Adding a present track is a no-op.
func (s *Store) AddToPlaylist(ctx context.Context, req models.AddTrackRequest) (AddResult, error) {
	name := strings.TrimSpace(req.Name)
	var result AddResult

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var targetID sql.NullInt64
		if req.PlaylistID != nil {
			targetID = sql.NullInt64{Int64: *req.PlaylistID, Valid: true}
		}

		var playlistID int64
		err := tx.QueryRowContext(ctx, `
			SELECT p.id
			FROM playlists p
			JOIN user_playlists up ON up.playlist_id = p.id
			WHERE up.user_id = $1 AND ((p.name = $2 AND $2 <> '') OR p.id = $3)
			ORDER BY p.name = $2 DESC, p.id
			LIMIT 1
			FOR UPDATE OF p
		`, req.UserID, name, targetID).Scan(&playlistID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if name == "" {
				return ErrPlaylistNameRequired
			}
			id, created, err := ensurePlaylist(ctx, tx, req.UserID, name)
			if err != nil {
				return err
			}
			playlistID, result.Created = id, created
		case err != nil:
			return fmt.Errorf("resolve playlist: %w", err)
		}

		if err := trackExists(ctx, tx, req.TrackID); err != nil {
			return err
		}
		if err := addMember(ctx, tx, playlistID, req.TrackID); err != nil {
			return err
		}

		record, err := loadPlaylist(ctx, tx, playlistID, req.UserID)
		if err != nil {
			return err
		}
		result.Playlist = record
		return nil
	})
	if err != nil {
		return AddResult{}, err
	}
	return result, nil
}

// RemoveFromPlaylist deletes a membership from a playlist owned by userID.
func (s *Store) RemoveFromPlaylist(ctx context.Context, playlistID int64, userID string, trackID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var owned bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM user_playlists
				WHERE user_id = $1 AND playlist_id = $2
			)
		`, userID, playlistID).Scan(&owned); err != nil {
			return fmt.Errorf("lookup playlist owner: %w", err)
		}
		if !owned {
			return ErrPlaylistNotFound
		}

		res, err := tx.ExecContext(ctx, `
			DELETE FROM playlist_tracks
			WHERE playlist_id = $1 AND track_id = $2
		`, playlistID, trackID)
		if err != nil {
			return fmt.Errorf("remove playlist track: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("remove playlist track rows: %w", err)
		}
		if affected == 0 {
			return ErrTrackNotInPlaylist
		}
		return nil
	})
}
