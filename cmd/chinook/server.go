package main

import (
	"context"
	"net/http"

	"chinook/internal/app/artists"
	"chinook/internal/app/favorites"
	"chinook/internal/app/playlists"
	"chinook/internal/app/tracks"
	"chinook/internal/auth"
	"chinook/internal/config"
	"chinook/internal/http/middleware"
	"chinook/internal/httpapi"
	"chinook/internal/metrics"
	"chinook/internal/models"
	"chinook/internal/notify"
)

// dataStore is implemented by both the Postgres and the in-memory store.
type dataStore interface {
	playlists.Store
	favorites.Store
	artists.Store
	tracks.Store

	EnsureUser(ctx context.Context, id, email string) error
	CatalogEmpty(ctx context.Context) (bool, error)
	SeedCatalog(ctx context.Context, seed []models.ArtistSeed) error
}

func newHTTPHandler(cfg *config.Config, st dataStore, topics *notify.Topics, tokens *auth.Tokens) http.Handler {
	playlistSvc := playlists.New(st, topics)
	favoritesSvc := favorites.New(st, playlistSvc)
	artistSvc := artists.New(st)
	trackSvc := tracks.New(st)

	router := httpapi.New(playlistSvc, favoritesSvc, artistSvc, trackSvc, tokens, st, cfg.CORS.AllowedOrigins).Routes()
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	var handler http.Handler = router
	handler = middleware.CORS(cfg.CORS.AllowedOrigins)(handler)
	handler = middleware.RequestLogging()(handler)
	handler = middleware.Recovery()(handler)
	return handler
}
