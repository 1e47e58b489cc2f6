package playlists

import (
	"context"
	"strings"

	"chinook/internal/logging"
	"chinook/internal/metrics"
	"chinook/internal/models"
	"chinook/internal/notify"
	"chinook/internal/store"
)

// Store captures the persistence needs for playlist workflows.
type Store interface {
	GetPlaylist(ctx context.Context, id int64, userID string) (models.PlaylistRecord, error)
	ListUserPlaylists(ctx context.Context, userID string) ([]models.PlaylistRecord, error)
	AddToPlaylist(ctx context.Context, req models.AddTrackRequest) (store.AddResult, error)
	RemoveFromPlaylist(ctx context.Context, playlistID int64, userID string, trackID int64) error
}

// Notifier broadcasts owned-playlist snapshots per user.
type Notifier interface {
	Publish(userID string, snapshot notify.Snapshot)
	Subscribe(ctx context.Context, userID string) (<-chan notify.Snapshot, func())
}

// Service coordinates playlist-related operations.
type Service interface {
	Get(ctx context.Context, id int64, userID string) (models.Playlist, error)
	ListOwned(ctx context.Context, userID string) ([]models.Playlist, error)
	AddTrack(ctx context.Context, req models.AddTrackRequest) (models.Playlist, error)
	RemoveTrack(ctx context.Context, playlistID int64, userID string, trackID int64) error
	Subscribe(ctx context.Context, userID string) (<-chan notify.Snapshot, func(), error)
}

type service struct {
	store    Store
	notifier Notifier
}

// New constructs a Service backed by the provided Store. Owned-playlist
// listings are published to notifier.
func New(store Store, notifier Notifier) Service {
	return &service{store: store, notifier: notifier}
}

func (s *service) Get(ctx context.Context, id int64, userID string) (models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return models.Playlist{}, err
	}
	if userID == "" {
		return models.Playlist{}, store.ErrUnauthorized
	}

	record, err := s.store.GetPlaylist(ctx, id, userID)
	if err != nil {
		return models.Playlist{}, err
	}
	return models.ProjectPlaylist(record, userID), nil
}

// ListOwned returns the user's playlists, Favorites first, and publishes the
// result as the latest snapshot.
func (s *service) ListOwned(ctx context.Context, userID string) ([]models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, store.ErrUnauthorized
	}

	records, err := s.store.ListUserPlaylists(ctx, userID)
	if err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(records))
	for _, r := range records {
		playlists = append(playlists, models.ProjectPlaylist(r, userID))
	}
	models.OrderPlaylists(playlists)

	s.notifier.Publish(userID, playlists)
	logging.WithContext(ctx).Debug().Int("playlists", len(playlists)).Msg("published playlist snapshot")
	return playlists, nil
}

func (s *service) AddTrack(ctx context.Context, req models.AddTrackRequest) (models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return models.Playlist{}, err
	}
	if req.UserID == "" {
		return models.Playlist{}, store.ErrUnauthorized
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" && req.PlaylistID == nil {
		return models.Playlist{}, store.ErrPlaylistNameRequired
	}

	result, err := s.store.AddToPlaylist(ctx, req)
	if err != nil {
		return models.Playlist{}, err
	}

	if result.Created {
		metrics.PlaylistCreated(result.Playlist.Name == models.FavoritesPlaylistName)
		s.refresh(ctx, req.UserID)
	}
	logging.WithContext(ctx).Debug().
		Int64("playlist_id", result.Playlist.ID).
		Int64("track_id", req.TrackID).
		Bool("created", result.Created).
		Msg("track added to playlist")

	return models.ProjectPlaylist(result.Playlist, req.UserID), nil
}

func (s *service) RemoveTrack(ctx context.Context, playlistID int64, userID string, trackID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if userID == "" {
		return store.ErrUnauthorized
	}
	return s.store.RemoveFromPlaylist(ctx, playlistID, userID, trackID)
}

// Subscribe follows the snapshots published by ListOwned for userID. Only
// snapshots published after the call are delivered.
func (s *service) Subscribe(ctx context.Context, userID string) (<-chan notify.Snapshot, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if userID == "" {
		return nil, nil, store.ErrUnauthorized
	}
	ch, cancel := s.notifier.Subscribe(ctx, userID)
	return ch, cancel, nil
}

// refresh republishes the owned playlists after the set changed. The change
// is already committed, so a failure is only logged.
func (s *service) refresh(ctx context.Context, userID string) {
	if _, err := s.ListOwned(ctx, userID); err != nil {
		logging.WithContext(ctx).Warn().Err(err).Msg("refresh playlist snapshot")
	}
}
