package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"chinook/internal/models"
)

// TracksByArtist returns every track on the artist's albums, with the
// memberships userID owns.
func (s *Store) TracksByArtist(ctx context.Context, artistID int64, userID string) ([]models.Track, error) {
	var tracks []models.Track
	err := s.withReadTx(ctx, func(tx *sql.Tx) error {
		var err error
		tracks, err = tracksByArtist(ctx, tx, artistID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tracks, nil
}

func tracksByArtist(ctx context.Context, q queryer, artistID int64, userID string) ([]models.Track, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT t.id, t.name, t.album_id, COALESCE(al.title, ''), COALESCE(ar.name, '')
		FROM tracks t
		JOIN albums al ON al.id = t.album_id
		LEFT JOIN artists ar ON ar.id = al.artist_id
		WHERE al.artist_id = $1
		ORDER BY t.id
	`, artistID)
	if err != nil {
		return nil, fmt.Errorf("list artist tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		var (
			track   models.Track
			albumID sql.NullInt64
		)
		if err := rows.Scan(&track.ID, &track.Name, &albumID, &track.AlbumTitle, &track.ArtistName); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		if albumID.Valid {
			track.AlbumID = &albumID.Int64
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}

	if err := attachMemberships(ctx, q, tracks, userID); err != nil {
		return nil, err
	}
	return tracks, nil
}

// loadPlaylistTracks returns the member tracks of each playlist, keyed by
// playlist id.
func loadPlaylistTracks(ctx context.Context, q queryer, playlistIDs []int64, userID string) (map[int64][]models.Track, error) {
	result := make(map[int64][]models.Track, len(playlistIDs))
	if len(playlistIDs) == 0 {
		return result, nil
	}

	rows, err := q.QueryContext(ctx, `
		SELECT pt.playlist_id, t.id, t.name, t.album_id, COALESCE(al.title, ''), COALESCE(ar.name, '')
		FROM playlist_tracks pt
		JOIN tracks t ON t.id = pt.track_id
		LEFT JOIN albums al ON al.id = t.album_id
		LEFT JOIN artists ar ON ar.id = al.artist_id
		WHERE pt.playlist_id = ANY($1)
		ORDER BY pt.playlist_id, t.id
	`, pq.Array(playlistIDs))
	if err != nil {
		return nil, fmt.Errorf("list playlist tracks: %w", err)
	}
	defer rows.Close()

	type row struct {
		playlistID int64
		track      models.Track
	}
	var all []row
	for rows.Next() {
		var (
			r       row
			albumID sql.NullInt64
		)
		if err := rows.Scan(&r.playlistID, &r.track.ID, &r.track.Name, &albumID, &r.track.AlbumTitle, &r.track.ArtistName); err != nil {
			return nil, fmt.Errorf("scan playlist track: %w", err)
		}
		if albumID.Valid {
			r.track.AlbumID = &albumID.Int64
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist tracks: %w", err)
	}
	rows.Close()

	tracks := make([]models.Track, len(all))
	for i, r := range all {
		tracks[i] = r.track
	}
	if err := attachMemberships(ctx, q, tracks, userID); err != nil {
		return nil, err
	}
	for i, r := range all {
		result[r.playlistID] = append(result[r.playlistID], tracks[i])
	}
	return result, nil
}

// attachMemberships fills Memberships on each track with the playlists
// containing it that userID is linked to. Other users' playlists cannot
// affect the favorite flag and are not loaded.
func attachMemberships(ctx context.Context, q queryer, tracks []models.Track, userID string) error {
	if len(tracks) == 0 || userID == "" {
		return nil
	}

	seen := make(map[int64]struct{}, len(tracks))
	ids := make([]int64, 0, len(tracks))
	for _, t := range tracks {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		ids = append(ids, t.ID)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT pt.track_id, p.id, p.name, up.user_id
		FROM playlist_tracks pt
		JOIN playlists p ON p.id = pt.playlist_id
		JOIN user_playlists up ON up.playlist_id = p.id
		WHERE pt.track_id = ANY($1) AND up.user_id = $2
		ORDER BY pt.track_id, p.id
	`, pq.Array(ids), userID)
	if err != nil {
		return fmt.Errorf("list track memberships: %w", err)
	}
	defer rows.Close()

	byTrack := make(map[int64][]models.Membership, len(ids))
	for rows.Next() {
		var (
			trackID int64
			m       models.Membership
			owner   string
		)
		if err := rows.Scan(&trackID, &m.PlaylistID, &m.Name, &owner); err != nil {
			return fmt.Errorf("scan membership: %w", err)
		}
		list := byTrack[trackID]
		if n := len(list); n > 0 && list[n-1].PlaylistID == m.PlaylistID {
			list[n-1].OwnerIDs = append(list[n-1].OwnerIDs, owner)
		} else {
			m.OwnerIDs = []string{owner}
			list = append(list, m)
		}
		byTrack[trackID] = list
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate memberships: %w", err)
	}

	for i := range tracks {
		tracks[i].Memberships = byTrack[tracks[i].ID]
	}
	return nil
}

func trackExists(ctx context.Context, q queryer, trackID int64) error {
	var exists bool
	if err := q.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM tracks WHERE id = $1)
	`, trackID).Scan(&exists); err != nil {
		return fmt.Errorf("lookup track: %w", err)
	}
	if !exists {
		return ErrTrackNotFound
	}
	return nil
}
