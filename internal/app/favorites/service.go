package favorites

import (
	"context"

	"chinook/internal/logging"
	"chinook/internal/metrics"
	"chinook/internal/models"
	"chinook/internal/store"
)

// Store defines persistence operations required for favorites workflows.
type Store interface {
	ToggleFavorite(ctx context.Context, userID string, trackID int64) (store.ToggleResult, error)
}

// PlaylistLister refreshes the owned-playlist snapshot.
type PlaylistLister interface {
	ListOwned(ctx context.Context, userID string) ([]models.Playlist, error)
}

// Service describes high level favorites operations used by HTTP handlers.
type Service interface {
	Toggle(ctx context.Context, userID string, trackID int64) (models.PlaylistTrack, error)
}

type service struct {
	store     Store
	playlists PlaylistLister
}

// New constructs a favorites Service backed by the given store.
func New(st Store, playlists PlaylistLister) Service {
	return &service{store: st, playlists: playlists}
}

// Toggle adds the track to the user's Favorites playlist when it is not a
// member and removes it otherwise. The first favorite creates the playlist
// and republishes the owned-playlist snapshot.
func (s *service) Toggle(ctx context.Context, userID string, trackID int64) (models.PlaylistTrack, error) {
	if err := ctx.Err(); err != nil {
		return models.PlaylistTrack{}, err
	}
	if userID == "" {
		return models.PlaylistTrack{}, store.ErrUnauthorized
	}

	result, err := s.store.ToggleFavorite(ctx, userID, trackID)
	if err != nil {
		return models.PlaylistTrack{}, err
	}

	logger := logging.WithContext(ctx)
	metrics.FavoriteToggled(result.IsFavorite)
	if result.PlaylistCreated {
		metrics.PlaylistCreated(true)
		if _, err := s.playlists.ListOwned(ctx, userID); err != nil {
			logger.Warn().Err(err).Msg("refresh playlist snapshot")
		}
	}
	logger.Debug().Int64("track_id", trackID).Bool("favorite", result.IsFavorite).Msg("favorite toggled")

	return models.PlaylistTrack{TrackID: trackID, IsFavorite: result.IsFavorite}, nil
}
