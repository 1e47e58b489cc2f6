package tracks

import (
	"context"

	"chinook/internal/models"
)

// Store exposes the catalogue queries needed for track browsing.
type Store interface {
	TracksByArtist(ctx context.Context, artistID int64, userID string) ([]models.Track, error)
}

// Service coordinates track-level operations.
type Service interface {
	ByArtist(ctx context.Context, artistID int64, userID string) ([]models.PlaylistTrack, error)
}

type service struct {
	store Store
}

// New constructs a tracks Service.
func New(store Store) Service {
	return &service{store: store}
}

// ByArtist returns the artist's tracks annotated with the user's favorites.
func (s *service) ByArtist(ctx context.Context, artistID int64, userID string) ([]models.PlaylistTrack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tracks, err := s.store.TracksByArtist(ctx, artistID, userID)
	if err != nil {
		return nil, err
	}
	return models.ProjectTracks(tracks, userID), nil
}
