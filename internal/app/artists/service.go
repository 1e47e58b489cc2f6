package artists

import (
	"context"
	"strings"

	"chinook/internal/models"
)

// Store exposes the artist catalogue.
type Store interface {
	ListArtists(ctx context.Context) ([]models.Artist, error)
	GetArtist(ctx context.Context, id int64) (models.Artist, error)
}

// Service provides artist-centric operations.
type Service interface {
	List(ctx context.Context) ([]models.Artist, error)
	Get(ctx context.Context, id int64) (models.Artist, error)
	Search(ctx context.Context, prefix string) ([]models.Artist, error)
}

type service struct {
	store Store
}

// New constructs an artist Service backed by the supplied store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context) ([]models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListArtists(ctx)
}

func (s *service) Get(ctx context.Context, id int64) (models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return models.Artist{}, err
	}
	return s.store.GetArtist(ctx, id)
}

// Search returns artists whose name starts with prefix, ignoring case. An
// empty prefix matches every artist.
func (s *service) Search(ctx context.Context, prefix string) ([]models.Artist, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	target := strings.ToLower(strings.TrimSpace(prefix))
	if target == "" {
		return all, nil
	}

	var matched []models.Artist
	for _, artist := range all {
		if strings.HasPrefix(strings.ToLower(artist.Name), target) {
			matched = append(matched, artist)
		}
	}
	return matched, nil
}
