// Package memstore keeps the catalogue and playlists in process memory. It
// mirrors the behaviour of the Postgres store for development and tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"chinook/internal/models"
	"chinook/internal/store"
)

type playlist struct {
	id     int64
	owner  string
	name   string
	users  map[string]struct{}
	tracks map[int64]struct{}
}

type track struct {
	id      int64
	name    string
	albumID *int64
}

type album struct {
	id       int64
	title    string
	artistID *int64
}

// Store is an in-memory implementation of the store operations. Every
// method holds the lock for its whole duration, which makes each call one
// atomic unit.
type Store struct {
	mu        sync.RWMutex
	users     map[string]struct{}
	artists   map[int64]models.Artist
	albums    map[int64]album
	tracks    map[int64]track
	playlists map[int64]*playlist

	nextArtistID   int64
	nextAlbumID    int64
	nextTrackID    int64
	nextPlaylistID int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:          make(map[string]struct{}),
		artists:        make(map[int64]models.Artist),
		albums:         make(map[int64]album),
		tracks:         make(map[int64]track),
		playlists:      make(map[int64]*playlist),
		nextArtistID:   1,
		nextAlbumID:    1,
		nextTrackID:    1,
		nextPlaylistID: 1,
	}
}

// EnsureUser registers a user id if it is not known yet.
func (s *Store) EnsureUser(ctx context.Context, id, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = struct{}{}
	return nil
}

// CatalogEmpty reports whether no tracks are stored.
func (s *Store) CatalogEmpty(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks) == 0, nil
}

// SeedCatalog inserts artists, albums and tracks.
func (s *Store) SeedCatalog(ctx context.Context, seed []models.ArtistSeed) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range seed {
		artistID := s.nextArtistID
		s.nextArtistID++
		s.artists[artistID] = models.Artist{ID: artistID, Name: a.Name}

		for _, al := range a.Albums {
			albumID := s.nextAlbumID
			s.nextAlbumID++
			owner := artistID
			s.albums[albumID] = album{id: albumID, title: al.Title, artistID: &owner}

			for _, name := range al.Tracks {
				trackID := s.nextTrackID
				s.nextTrackID++
				ref := albumID
				s.tracks[trackID] = track{id: trackID, name: name, albumID: &ref}
			}
		}
	}
	return nil
}

// ListArtists returns every artist with its albums, ordered by id.
func (s *Store) ListArtists(ctx context.Context) ([]models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Artist, 0, len(s.artists))
	for _, a := range s.artists {
		a.Albums = s.albumsOf(a.ID)
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetArtist returns one artist with its albums.
func (s *Store) GetArtist(ctx context.Context, id int64) (models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return models.Artist{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.artists[id]
	if !ok {
		return models.Artist{}, store.ErrArtistNotFound
	}
	a.Albums = s.albumsOf(id)
	return a, nil
}

// TracksByArtist returns every track on the artist's albums.
func (s *Store) TracksByArtist(ctx context.Context, artistID int64, userID string) ([]models.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Track
	for _, id := range s.sortedTrackIDs() {
		t := s.tracks[id]
		if t.albumID == nil {
			continue
		}
		al := s.albums[*t.albumID]
		if al.artistID == nil || *al.artistID != artistID {
			continue
		}
		out = append(out, s.rawTrack(id, userID))
	}
	return out, nil
}

// GetPlaylist returns a playlist with its member tracks.
func (s *Store) GetPlaylist(ctx context.Context, id int64, userID string) (models.PlaylistRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.PlaylistRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.playlists[id]
	if !ok {
		return models.PlaylistRecord{}, store.ErrPlaylistNotFound
	}
	return s.record(p, userID), nil
}

// ListUserPlaylists returns every playlist linked to userID, Favorites
// first then by id.
func (s *Store) ListUserPlaylists(ctx context.Context, userID string) ([]models.PlaylistRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []*playlist
	for _, p := range s.playlists {
		if _, ok := p.users[userID]; ok {
			owned = append(owned, p)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		fi := owned[i].name == models.FavoritesPlaylistName
		fj := owned[j].name == models.FavoritesPlaylistName
		if fi != fj {
			return fi
		}
		return owned[i].id < owned[j].id
	})

	out := make([]models.PlaylistRecord, 0, len(owned))
	for _, p := range owned {
		out = append(out, s.record(p, userID))
	}
	return out, nil
}

// ToggleFavorite flips membership of trackID in the user's Favorites
// playlist, creating the playlist on first use.
func (s *Store) ToggleFavorite(ctx context.Context, userID string, trackID int64) (store.ToggleResult, error) {
	if err := ctx.Err(); err != nil {
		return store.ToggleResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return store.ToggleResult{}, store.ErrUserNotFound
	}
	if _, ok := s.tracks[trackID]; !ok {
		return store.ToggleResult{}, store.ErrTrackNotFound
	}

	p, created := s.ensurePlaylist(userID, models.FavoritesPlaylistName)
	result := store.ToggleResult{PlaylistCreated: created}
	if _, ok := p.tracks[trackID]; ok {
		delete(p.tracks, trackID)
		return result, nil
	}
	p.tracks[trackID] = struct{}{}
	result.IsFavorite = true
	return result, nil
}

// AddToPlaylist adds a track to the owned playlist matching req.Name or
// req.PlaylistID, creating a playlist named req.Name when nothing matches.
func (s *Store) AddToPlaylist(ctx context.Context, req models.AddTrackRequest) (store.AddResult, error) {
	if err := ctx.Err(); err != nil {
		return store.AddResult{}, err
	}
	name := strings.TrimSpace(req.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.resolve(req.UserID, name, req.PlaylistID)
	if target == nil && name == "" {
		return store.AddResult{}, store.ErrPlaylistNameRequired
	}
	if target == nil {
		if _, ok := s.users[req.UserID]; !ok {
			return store.AddResult{}, store.ErrUserNotFound
		}
	}
	if _, ok := s.tracks[req.TrackID]; !ok {
		return store.AddResult{}, store.ErrTrackNotFound
	}

	var created bool
	if target == nil {
		target, created = s.ensurePlaylist(req.UserID, name)
	}
	target.tracks[req.TrackID] = struct{}{}

	return store.AddResult{Playlist: s.record(target, req.UserID), Created: created}, nil
}

// RemoveFromPlaylist deletes a membership from a playlist owned by userID.
func (s *Store) RemoveFromPlaylist(ctx context.Context, playlistID int64, userID string, trackID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.playlists[playlistID]
	if !ok {
		return store.ErrPlaylistNotFound
	}
	if _, owned := p.users[userID]; !owned {
		return store.ErrPlaylistNotFound
	}
	if _, member := p.tracks[trackID]; !member {
		return store.ErrTrackNotInPlaylist
	}
	delete(p.tracks, trackID)
	return nil
}

func (s *Store) resolve(userID, name string, id *int64) *playlist {
	var byID *playlist
	for _, p := range s.playlists {
		if _, owned := p.users[userID]; !owned {
			continue
		}
		if name != "" && p.name == name {
			return p
		}
		if id != nil && p.id == *id {
			byID = p
		}
	}
	return byID
}

func (s *Store) ensurePlaylist(userID, name string) (*playlist, bool) {
	for _, p := range s.playlists {
		if p.owner == userID && p.name == name {
			p.users[userID] = struct{}{}
			return p, false
		}
	}

	p := &playlist{
		id:     s.nextPlaylistID,
		owner:  userID,
		name:   name,
		users:  map[string]struct{}{userID: {}},
		tracks: make(map[int64]struct{}),
	}
	s.nextPlaylistID++
	s.playlists[p.id] = p
	return p, true
}

func (s *Store) record(p *playlist, userID string) models.PlaylistRecord {
	ids := make([]int64, 0, len(p.tracks))
	for id := range p.tracks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rec := models.PlaylistRecord{ID: p.id, Name: p.name}
	for _, id := range ids {
		rec.Tracks = append(rec.Tracks, s.rawTrack(id, userID))
	}
	return rec
}

// rawTrack joins a track with its album and artist and collects the
// memberships userID is linked to.
func (s *Store) rawTrack(id int64, userID string) models.Track {
	t := s.tracks[id]
	out := models.Track{ID: t.id, Name: t.name}
	if t.albumID != nil {
		ref := *t.albumID
		out.AlbumID = &ref
		al := s.albums[ref]
		out.AlbumTitle = al.title
		if al.artistID != nil {
			out.ArtistName = s.artists[*al.artistID].Name
		}
	}

	if userID == "" {
		return out
	}
	for _, pid := range s.sortedPlaylistIDs() {
		p := s.playlists[pid]
		if _, member := p.tracks[id]; !member {
			continue
		}
		if _, owned := p.users[userID]; !owned {
			continue
		}
		out.Memberships = append(out.Memberships, models.Membership{
			PlaylistID: p.id,
			Name:       p.name,
			OwnerIDs:   []string{userID},
		})
	}
	return out
}

func (s *Store) albumsOf(artistID int64) []models.Album {
	var out []models.Album
	for _, al := range s.albums {
		if al.artistID == nil || *al.artistID != artistID {
			continue
		}
		ref := artistID
		out = append(out, models.Album{ID: al.id, Title: al.title, ArtistID: &ref})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) sortedTrackIDs() []int64 {
	ids := make([]int64, 0, len(s.tracks))
	for id := range s.tracks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) sortedPlaylistIDs() []int64 {
	ids := make([]int64, 0, len(s.playlists))
	for id := range s.playlists {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
