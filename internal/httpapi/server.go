package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"chinook/internal/http/middleware"
	"chinook/internal/logging"
	"chinook/internal/models"
	"chinook/internal/notify"
	"chinook/internal/store"
)

// Messages shown to users when an operation fails for an unexpected reason.
const (
	msgGeneric        = "Something went wrong. Please try again"
	msgLoadPlaylists  = "Loading Playlists failed. Please refresh."
	msgLoadArtists    = "Loading Artists failed. Please refresh."
	msgLoadTracks     = "Loading Tracks failed. Please refresh."
	msgMissingToken   = "missing bearer token"
	msgInvalidToken   = "invalid bearer token"
	msgForbidden      = "playlists of other users are not accessible"
	msgInvalidPayload = "invalid JSON payload"
	msgInvalidID      = "invalid id"
)

// PlaylistService coordinates playlist-related operations.
type PlaylistService interface {
	Get(ctx context.Context, id int64, userID string) (models.Playlist, error)
	ListOwned(ctx context.Context, userID string) ([]models.Playlist, error)
	AddTrack(ctx context.Context, req models.AddTrackRequest) (models.Playlist, error)
	RemoveTrack(ctx context.Context, playlistID int64, userID string, trackID int64) error
	Subscribe(ctx context.Context, userID string) (<-chan notify.Snapshot, func(), error)
}

// FavoritesService coordinates favoriting workflows.
type FavoritesService interface {
	Toggle(ctx context.Context, userID string, trackID int64) (models.PlaylistTrack, error)
}

// ArtistService describes artist catalogue workflows.
type ArtistService interface {
	Get(ctx context.Context, id int64) (models.Artist, error)
	Search(ctx context.Context, prefix string) ([]models.Artist, error)
}

// TrackService exposes track browsing.
type TrackService interface {
	ByArtist(ctx context.Context, artistID int64, userID string) ([]models.PlaylistTrack, error)
}

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserRegistry records the users that authenticate against the API.
type UserRegistry interface {
	EnsureUser(ctx context.Context, id, email string) error
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	playlists      PlaylistService
	favorites      FavoritesService
	artists        ArtistService
	tracks         TrackService
	tokens         TokenVerifier
	users          UserRegistry
	allowedOrigins []string

	// registered holds user ids already passed to users.EnsureUser.
	registered sync.Map
}

// New configures a Server. allowedOrigins also governs which origins may open
// the playlist stream.
func New(
	playlists PlaylistService,
	favorites FavoritesService,
	artists ArtistService,
	tracks TrackService,
	tokens TokenVerifier,
	users UserRegistry,
	allowedOrigins []string,
) *Server {
	return &Server{
		playlists:      playlists,
		favorites:      favorites,
		artists:        artists,
		tracks:         tracks,
		tokens:         tokens,
		users:          users,
		allowedOrigins: allowedOrigins,
	}
}

// Routes registers the API handlers on a new router.
func (s *Server) Routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Metrics())

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.authenticate)

	api.HandleFunc("/playlists/stream", s.handlePlaylistStream).Methods(http.MethodGet)
	api.HandleFunc("/playlists/{id:[0-9]+}", s.handleGetPlaylist).Methods(http.MethodGet)
	api.HandleFunc("/playlists/{id:[0-9]+}/tracks/{trackId:[0-9]+}", s.handleAddToPlaylist).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id:[0-9]+}/tracks/{trackId:[0-9]+}", s.handleRemoveFromPlaylist).Methods(http.MethodDelete)
	api.HandleFunc("/users/{id}/playlists", s.handleUserPlaylists).Methods(http.MethodGet)

	api.HandleFunc("/tracks/{id:[0-9]+}/favorite", s.handleToggleFavorite).Methods(http.MethodPost)
	api.HandleFunc("/tracks/{id:[0-9]+}/playlists", s.handleAddTrackByName).Methods(http.MethodPost)

	api.HandleFunc("/artists", s.handleArtists).Methods(http.MethodGet)
	api.HandleFunc("/artists/{id:[0-9]+}", s.handleArtist).Methods(http.MethodGet)
	api.HandleFunc("/artists/{id:[0-9]+}/tracks", s.handleArtistTracks).Methods(http.MethodGet)

	return router
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to a status. Unexpected failures are logged
// and answered with fallback.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	default:
		logging.WithContext(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: fallback})
	}
}

func pathInt64(r *http.Request, key string) (int64, bool) {
	raw := mux.Vars(r)[key]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
