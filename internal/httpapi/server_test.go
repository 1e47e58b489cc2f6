package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"chinook/internal/models"
	"chinook/internal/notify"
	"chinook/internal/store"
)

type stubTokens struct{}

// Verify accepts tokens of the form "user:<id>".
func (stubTokens) Verify(token string) (string, error) {
	if id, ok := strings.CutPrefix(token, "user:"); ok && id != "" {
		return id, nil
	}
	return "", errors.New("bad token")
}

type stubPlaylistService struct {
	playlist    models.Playlist
	playlists   []models.Playlist
	err         error
	lastUser    string
	lastRequest models.AddTrackRequest
	removed     [2]int64

	topics *notify.Topics
}

func (s *stubPlaylistService) Get(_ context.Context, id int64, userID string) (models.Playlist, error) {
	s.lastUser = userID
	if s.err != nil {
		return models.Playlist{}, s.err
	}
	return s.playlist, nil
}

func (s *stubPlaylistService) ListOwned(_ context.Context, userID string) ([]models.Playlist, error) {
	s.lastUser = userID
	if s.err != nil {
		return nil, s.err
	}
	if s.topics != nil {
		s.topics.Publish(userID, s.playlists)
	}
	return s.playlists, nil
}

func (s *stubPlaylistService) AddTrack(_ context.Context, req models.AddTrackRequest) (models.Playlist, error) {
	s.lastRequest = req
	if s.err != nil {
		return models.Playlist{}, s.err
	}
	return s.playlist, nil
}

func (s *stubPlaylistService) RemoveTrack(_ context.Context, playlistID int64, userID string, trackID int64) error {
	s.lastUser = userID
	s.removed = [2]int64{playlistID, trackID}
	return s.err
}

func (s *stubPlaylistService) Subscribe(ctx context.Context, userID string) (<-chan notify.Snapshot, func(), error) {
	ch, cancel := s.topics.Subscribe(ctx, userID)
	return ch, cancel, nil
}

type stubFavoritesService struct {
	result models.PlaylistTrack
	err    error
}

func (s stubFavoritesService) Toggle(_ context.Context, _ string, trackID int64) (models.PlaylistTrack, error) {
	if s.err != nil {
		return models.PlaylistTrack{}, s.err
	}
	s.result.TrackID = trackID
	return s.result, nil
}

type stubArtistService struct {
	artists    []models.Artist
	err        error
	lastPrefix string
}

func (s *stubArtistService) Get(_ context.Context, id int64) (models.Artist, error) {
	for _, a := range s.artists {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Artist{}, store.ErrArtistNotFound
}

func (s *stubArtistService) Search(_ context.Context, prefix string) ([]models.Artist, error) {
	s.lastPrefix = prefix
	return s.artists, s.err
}

type stubTrackService struct {
	tracks []models.PlaylistTrack
	err    error
}

func (s stubTrackService) ByArtist(context.Context, int64, string) ([]models.PlaylistTrack, error) {
	return s.tracks, s.err
}

type stubUsers struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (s *stubUsers) EnsureUser(_ context.Context, id, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[id]++
	return s.err
}

func (s *stubUsers) count(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

type fixture struct {
	playlists *stubPlaylistService
	favorites stubFavoritesService
	artists   *stubArtistService
	tracks    stubTrackService
	users     *stubUsers
}

func newTestServer(f *fixture) http.Handler {
	if f.playlists == nil {
		f.playlists = &stubPlaylistService{}
	}
	if f.artists == nil {
		f.artists = &stubArtistService{}
	}
	if f.users == nil {
		f.users = &stubUsers{}
	}
	return New(f.playlists, f.favorites, f.artists, f.tracks, stubTokens{}, f.users, []string{"*"}).Routes()
}

func do(t *testing.T, h http.Handler, method, path, user string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if user != "" {
		req.Header.Set("Authorization", "Bearer user:"+user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload.Error
}

func TestHealthzIsPublic(t *testing.T) {
	rec := do(t, newTestServer(&fixture{}), http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequiresBearerToken(t *testing.T) {
	h := newTestServer(&fixture{})

	rec := do(t, h, http.MethodGet, "/api/v1/playlists/1", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != msgMissingToken {
		t.Fatalf("unexpected error message %q", msg)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/playlists/1", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
	}
}

func TestAuthenticatedUsersAreRegisteredOnce(t *testing.T) {
	users := &stubUsers{}
	h := newTestServer(&fixture{users: users})

	for i := 0; i < 3; i++ {
		rec := do(t, h, http.MethodPost, "/api/v1/tracks/4/favorite", "newcomer", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
	if n := users.count("newcomer"); n != 1 {
		t.Fatalf("expected one registration, got %d", n)
	}

	do(t, h, http.MethodGet, "/api/v1/playlists/1", "", nil)
	if len(users.calls) != 1 {
		t.Fatalf("anonymous request must not register a user: %v", users.calls)
	}
}

func TestRegistrationFailureIsRetried(t *testing.T) {
	users := &stubUsers{err: errors.New("db down")}
	h := newTestServer(&fixture{users: users})

	rec := do(t, h, http.MethodPost, "/api/v1/tracks/4/favorite", "u1", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != msgGeneric {
		t.Fatalf("unexpected error message %q", msg)
	}

	users.err = nil
	rec = do(t, h, http.MethodPost, "/api/v1/tracks/4/favorite", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after recovery, got %d", rec.Code)
	}
	if n := users.count("u1"); n != 2 {
		t.Fatalf("expected a second registration attempt, got %d", n)
	}
}

func TestGetPlaylist(t *testing.T) {
	playlists := &stubPlaylistService{playlist: models.Playlist{
		ID:     3,
		Name:   "Road Trip",
		Tracks: []models.PlaylistTrack{{TrackID: 7, TrackName: "Walk On Water", IsFavorite: true}},
	}}
	h := newTestServer(&fixture{playlists: playlists})

	rec := do(t, h, http.MethodGet, "/api/v1/playlists/3", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if playlists.lastUser != "u1" {
		t.Fatalf("expected user u1, got %q", playlists.lastUser)
	}

	var got models.Playlist
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 3 || len(got.Tracks) != 1 || !got.Tracks[0].IsFavorite {
		t.Fatalf("unexpected playlist %+v", got)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "not found", err: store.ErrPlaylistNotFound, status: http.StatusNotFound},
		{name: "invalid", err: store.ErrPlaylistNameRequired, status: http.StatusBadRequest},
		{name: "conflict", err: store.ErrConflict, status: http.StatusConflict},
		{name: "unauthorized", err: store.ErrUnauthorized, status: http.StatusUnauthorized},
		{name: "internal", err: errors.New("connection reset"), status: http.StatusInternalServerError, message: msgGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fixture{playlists: &stubPlaylistService{err: tt.err}})

			rec := do(t, h, http.MethodGet, "/api/v1/playlists/1", "u1", nil)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.message != "" {
				if msg := decodeError(t, rec); msg != tt.message {
					t.Fatalf("expected %q, got %q", tt.message, msg)
				}
			}
		})
	}
}

func TestUserPlaylistsForbidsOtherUsers(t *testing.T) {
	playlists := &stubPlaylistService{playlists: []models.Playlist{{ID: 1, Name: models.FavoritesPlaylistName}}}
	h := newTestServer(&fixture{playlists: playlists})

	rec := do(t, h, http.MethodGet, "/api/v1/users/u2/playlists", "u1", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/users/u1/playlists", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body playlistsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Playlists) != 1 || !body.Playlists[0].IsFavorites() {
		t.Fatalf("unexpected playlists %+v", body.Playlists)
	}
}

func TestUserPlaylistsLoadFailure(t *testing.T) {
	h := newTestServer(&fixture{playlists: &stubPlaylistService{err: errors.New("db down")}})

	rec := do(t, h, http.MethodGet, "/api/v1/users/u1/playlists", "u1", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != msgLoadPlaylists {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestToggleFavorite(t *testing.T) {
	h := newTestServer(&fixture{favorites: stubFavoritesService{result: models.PlaylistTrack{IsFavorite: true}}})

	rec := do(t, h, http.MethodPost, "/api/v1/tracks/42/favorite", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got models.PlaylistTrack
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TrackID != 42 || !got.IsFavorite {
		t.Fatalf("unexpected track %+v", got)
	}

	h = newTestServer(&fixture{favorites: stubFavoritesService{err: store.ErrTrackNotFound}})
	rec = do(t, h, http.MethodPost, "/api/v1/tracks/42/favorite", "u1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAddTrackByName(t *testing.T) {
	playlists := &stubPlaylistService{playlist: models.Playlist{ID: 5, Name: "Road Trip"}}
	h := newTestServer(&fixture{playlists: playlists})

	rec := do(t, h, http.MethodPost, "/api/v1/tracks/9/playlists", "u1", []byte(`{"name":"Road Trip"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	req := playlists.lastRequest
	if req.Name != "Road Trip" || req.UserID != "u1" || req.TrackID != 9 || req.PlaylistID != nil {
		t.Fatalf("unexpected request %+v", req)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/tracks/9/playlists", "u1", []byte(`{"name":`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestAddAndRemoveByPlaylistID(t *testing.T) {
	playlists := &stubPlaylistService{playlist: models.Playlist{ID: 5}}
	h := newTestServer(&fixture{playlists: playlists})

	rec := do(t, h, http.MethodPost, "/api/v1/playlists/5/tracks/9", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if id := playlists.lastRequest.PlaylistID; id == nil || *id != 5 {
		t.Fatalf("expected playlist id 5, got %v", id)
	}

	rec = do(t, h, http.MethodDelete, "/api/v1/playlists/5/tracks/9", "u1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if playlists.removed != [2]int64{5, 9} {
		t.Fatalf("unexpected removal %v", playlists.removed)
	}

	playlists.err = store.ErrTrackNotInPlaylist
	rec = do(t, h, http.MethodDelete, "/api/v1/playlists/5/tracks/10", "u1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestArtists(t *testing.T) {
	artists := &stubArtistService{artists: []models.Artist{{ID: 1, Name: "AC/DC"}}}
	h := newTestServer(&fixture{artists: artists})

	rec := do(t, h, http.MethodGet, "/api/v1/artists?q=ac", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if artists.lastPrefix != "ac" {
		t.Fatalf("expected prefix ac, got %q", artists.lastPrefix)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/artists/2", "u1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	artists.err = errors.New("boom")
	rec = do(t, h, http.MethodGet, "/api/v1/artists", "u1", nil)
	if msg := decodeError(t, rec); rec.Code != http.StatusInternalServerError || msg != msgLoadArtists {
		t.Fatalf("unexpected failure response %d %q", rec.Code, msg)
	}
}

func TestArtistTracks(t *testing.T) {
	h := newTestServer(&fixture{tracks: stubTrackService{}})

	rec := do(t, h, http.MethodGet, "/api/v1/artists/1/tracks", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"tracks":[]}` {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	h = newTestServer(&fixture{tracks: stubTrackService{err: errors.New("boom")}})
	rec = do(t, h, http.MethodGet, "/api/v1/artists/1/tracks", "u1", nil)
	if msg := decodeError(t, rec); msg != msgLoadTracks {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestPlaylistStreamSendsInitialSnapshot(t *testing.T) {
	topics := notify.NewTopics(4)
	playlists := &stubPlaylistService{
		topics:    topics,
		playlists: []models.Playlist{{ID: 1, Name: models.FavoritesPlaylistName}},
	}
	srv := httptest.NewServer(newTestServer(&fixture{playlists: playlists}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/playlists/stream?access_token=user:u1"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first playlistsResponse
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(first.Playlists) != 1 || first.Playlists[0].ID != 1 {
		t.Fatalf("unexpected snapshot %+v", first)
	}

	topics.Publish("u2", []models.Playlist{{ID: 99}})
	topics.Publish("u1", []models.Playlist{{ID: 1}, {ID: 2}})

	var second playlistsResponse
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(second.Playlists) != 2 {
		t.Fatalf("expected the second snapshot of u1, got %+v", second)
	}
}
