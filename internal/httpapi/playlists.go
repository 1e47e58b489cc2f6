package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"chinook/internal/models"
)

type playlistsResponse struct {
	Playlists []models.Playlist `json:"playlists"`
}

type addTrackRequest struct {
	Name       string `json:"name"`
	PlaylistID *int64 `json:"playlistId"`
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidID})
		return
	}

	playlist, err := s.playlists.Get(r.Context(), id, currentUser(r.Context()))
	if err != nil {
		writeError(w, r, err, msgGeneric)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (s *Server) handleUserPlaylists(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r.Context())
	if mux.Vars(r)["id"] != userID {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: msgForbidden})
		return
	}

	playlists, err := s.playlists.ListOwned(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, msgLoadPlaylists)
		return
	}
	writeJSON(w, http.StatusOK, playlistsResponse{Playlists: playlists})
}

// handleAddToPlaylist adds a track to a playlist the caller owns, by id.
func (s *Server) handleAddToPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := pathInt64(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidID})
		return
	}
	trackID, ok := pathInt64(r, "trackId")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidID})
		return
	}

	playlist, err := s.playlists.AddTrack(r.Context(), models.AddTrackRequest{
		UserID:     currentUser(r.Context()),
		TrackID:    trackID,
		PlaylistID: &playlistID,
	})
	if err != nil {
		writeError(w, r, err, msgGeneric)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// handleAddTrackByName adds a track to the playlist named in the body,
// creating it when the caller has none by that name.
func (s *Server) handleAddTrackByName(w http.ResponseWriter, r *http.Request) {
	trackID, ok := pathInt64(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidID})
		return
	}

	var body addTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidPayload})
		return
	}

	playlist, err := s.playlists.AddTrack(r.Context(), models.AddTrackRequest{
		Name:       body.Name,
		UserID:     currentUser(r.Context()),
		TrackID:    trackID,
		PlaylistID: body.PlaylistID,
	})
	if err != nil {
		writeError(w, r, err, msgGeneric)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (s *Server) handleRemoveFromPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := pathInt64(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidID})
		return
	}
	trackID, ok := pathInt64(r, "trackId")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidID})
		return
	}

	if err := s.playlists.RemoveTrack(r.Context(), playlistID, currentUser(r.Context()), trackID); err != nil {
		writeError(w, r, err, msgGeneric)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
