package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chinook/internal/models"
)

// GetPlaylist returns a playlist with its member tracks. Memberships on the
// tracks are loaded for userID.
func (s *Store) GetPlaylist(ctx context.Context, id int64, userID string) (models.PlaylistRecord, error) {
	var record models.PlaylistRecord
	err := s.withReadTx(ctx, func(tx *sql.Tx) error {
		var err error
		record, err = loadPlaylist(ctx, tx, id, userID)
		return err
	})
	if err != nil {
		return models.PlaylistRecord{}, err
	}
	return record, nil
}

// ListUserPlaylists returns every playlist linked to userID, Favorites first
// then by id.
func (s *Store) ListUserPlaylists(ctx context.Context, userID string) ([]models.PlaylistRecord, error) {
	var playlists []models.PlaylistRecord
	err := s.withReadTx(ctx, func(tx *sql.Tx) error {
		var err error
		playlists, err = listUserPlaylists(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return playlists, nil
}

func listUserPlaylists(ctx context.Context, q queryer, userID string) ([]models.PlaylistRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT p.id, p.name
		FROM playlists p
		JOIN user_playlists up ON up.playlist_id = p.id
		WHERE up.user_id = $1
		ORDER BY p.name <> $2, p.id
	`, userID, models.FavoritesPlaylistName)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	var (
		playlists []models.PlaylistRecord
		ids       []int64
	)
	for rows.Next() {
		var p models.PlaylistRecord
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}

	tracks, err := loadPlaylistTracks(ctx, q, ids, userID)
	if err != nil {
		return nil, err
	}
	for i := range playlists {
		playlists[i].Tracks = tracks[playlists[i].ID]
	}
	return playlists, nil
}

func loadPlaylist(ctx context.Context, q queryer, id int64, userID string) (models.PlaylistRecord, error) {
	var p models.PlaylistRecord
	err := q.QueryRowContext(ctx, `
		SELECT id, name
		FROM playlists
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PlaylistRecord{}, ErrPlaylistNotFound
		}
		return models.PlaylistRecord{}, fmt.Errorf("get playlist: %w", err)
	}

	tracks, err := loadPlaylistTracks(ctx, q, []int64{id}, userID)
	if err != nil {
		return models.PlaylistRecord{}, err
	}
	p.Tracks = tracks[id]
	return p, nil
}
