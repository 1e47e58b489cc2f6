package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"chinook/internal/models"
)

// ListArtists returns every artist with its albums, both ordered by id.
func (s *Store) ListArtists(ctx context.Context) ([]models.Artist, error) {
	var artists []models.Artist
	err := s.withReadTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id, COALESCE(name, '')
			FROM artists
			ORDER BY id
		`)
		if err != nil {
			return fmt.Errorf("list artists: %w", err)
		}
		defer rows.Close()

		var ids []int64
		for rows.Next() {
			var a models.Artist
			if err := rows.Scan(&a.ID, &a.Name); err != nil {
				return fmt.Errorf("scan artist: %w", err)
			}
			artists = append(artists, a)
			ids = append(ids, a.ID)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate artists: %w", err)
		}
		rows.Close()

		albums, err := albumsByArtist(ctx, tx, ids)
		if err != nil {
			return err
		}
		for i := range artists {
			artists[i].Albums = albums[artists[i].ID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return artists, nil
}

// GetArtist returns a single artist with its albums.
func (s *Store) GetArtist(ctx context.Context, id int64) (models.Artist, error) {
	var a models.Artist
	err := s.withReadTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			SELECT id, COALESCE(name, '')
			FROM artists
			WHERE id = $1
		`, id).Scan(&a.ID, &a.Name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrArtistNotFound
			}
			return fmt.Errorf("get artist: %w", err)
		}

		albums, err := albumsByArtist(ctx, tx, []int64{id})
		if err != nil {
			return err
		}
		a.Albums = albums[id]
		return nil
	})
	if err != nil {
		return models.Artist{}, err
	}
	return a, nil
}

func albumsByArtist(ctx context.Context, q queryer, artistIDs []int64) (map[int64][]models.Album, error) {
	result := make(map[int64][]models.Album, len(artistIDs))
	if len(artistIDs) == 0 {
		return result, nil
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, title, artist_id
		FROM albums
		WHERE artist_id = ANY($1)
		ORDER BY artist_id, id
	`, pq.Array(artistIDs))
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			album    models.Album
			artistID int64
		)
		if err := rows.Scan(&album.ID, &album.Title, &artistID); err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		album.ArtistID = &artistID
		result[artistID] = append(result[artistID], album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate albums: %w", err)
	}
	return result, nil
}

// CatalogEmpty reports whether no tracks are stored.
func (s *Store) CatalogEmpty(ctx context.Context) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM tracks)
	`).Scan(&exists); err != nil {
		return false, fmt.Errorf("check catalog: %w", err)
	}
	return !exists, nil
}

// SeedCatalog inserts artists, their albums and tracks in one transaction.
func (s *Store) SeedCatalog(ctx context.Context, seed []models.ArtistSeed) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, artist := range seed {
			var artistID int64
			if err := tx.QueryRowContext(ctx, `
				INSERT INTO artists (name)
				VALUES ($1)
				RETURNING id
			`, artist.Name).Scan(&artistID); err != nil {
				return fmt.Errorf("insert artist %q: %w", artist.Name, err)
			}

			for _, album := range artist.Albums {
				var albumID int64
				if err := tx.QueryRowContext(ctx, `
					INSERT INTO albums (title, artist_id)
					VALUES ($1, $2)
					RETURNING id
				`, album.Title, artistID).Scan(&albumID); err != nil {
					return fmt.Errorf("insert album %q: %w", album.Title, err)
				}

				for _, track := range album.Tracks {
					if _, err := tx.ExecContext(ctx, `
						INSERT INTO tracks (name, album_id)
						VALUES ($1, $2)
					`, track, albumID); err != nil {
						return fmt.Errorf("insert track %q: %w", track, err)
					}
				}
			}
		}
		return nil
	})
}
