package httpapi

import (
	"net/http"

	"chinook/internal/models"
)

type artistsResponse struct {
	Artists []models.Artist `json:"artists"`
}

type tracksResponse struct {
	Tracks []models.PlaylistTrack `json:"tracks"`
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	trackID, ok := pathInt64(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidID})
		return
	}

	track, err := s.favorites.Toggle(r.Context(), currentUser(r.Context()), trackID)
	if err != nil {
		writeError(w, r, err, msgGeneric)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// handleArtists lists artists, filtered by name prefix when q is given.
func (s *Server) handleArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := s.artists.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err, msgLoadArtists)
		return
	}
	if artists == nil {
		artists = []models.Artist{}
	}
	writeJSON(w, http.StatusOK, artistsResponse{Artists: artists})
}

func (s *Server) handleArtist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidID})
		return
	}

	artist, err := s.artists.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, msgLoadArtists)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

func (s *Server) handleArtistTracks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidID})
		return
	}

	tracks, err := s.tracks.ByArtist(r.Context(), id, currentUser(r.Context()))
	if err != nil {
		writeError(w, r, err, msgLoadTracks)
		return
	}
	if tracks == nil {
		tracks = []models.PlaylistTrack{}
	}
	writeJSON(w, http.StatusOK, tracksResponse{Tracks: tracks})
}
