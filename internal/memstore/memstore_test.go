package memstore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chinook/internal/models"
	"chinook/internal/store"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s := New()
	require.NoError(t, s.EnsureUser(ctx, "u1", "u1@example.com"))
	require.NoError(t, s.SeedCatalog(ctx, []models.ArtistSeed{
		{Name: "AC/DC", Albums: []models.AlbumSeed{
			{Title: "For Those About To Rock", Tracks: []string{"For Those About To Rock", "Put The Finger On You"}},
		}},
		{Name: "Accept", Albums: []models.AlbumSeed{
			{Title: "Balls to the Wall", Tracks: []string{"Balls to the Wall"}},
		}},
	}))
	return s
}

func TestToggleFavoriteTwiceIsIdentity(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	first, err := s.ToggleFavorite(ctx, "u1", 1)
	require.NoError(t, err)
	assert.True(t, first.IsFavorite)
	assert.True(t, first.PlaylistCreated)

	second, err := s.ToggleFavorite(ctx, "u1", 1)
	require.NoError(t, err)
	assert.False(t, second.IsFavorite)
	assert.False(t, second.PlaylistCreated)

	playlists, err := s.ListUserPlaylists(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, playlists, 1)
	assert.Equal(t, models.FavoritesPlaylistName, playlists[0].Name)
	assert.Empty(t, playlists[0].Tracks)
}

func TestConcurrentTogglesOnOnePair(t *testing.T) {
	const toggles = 101
	ctx := context.Background()
	s := seeded(t)

	var (
		wg      sync.WaitGroup
		created atomic.Int32
		errs    = make(chan error, toggles)
	)
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.ToggleFavorite(ctx, "u1", 1)
			if err != nil {
				errs <- err
				return
			}
			if res.PlaylistCreated {
				created.Add(1)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("toggle failed: %v", err)
	}
	assert.Equal(t, int32(1), created.Load())

	playlists, err := s.ListUserPlaylists(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, playlists, 1)
	assert.Equal(t, models.FavoritesPlaylistName, playlists[0].Name)
	require.Len(t, playlists[0].Tracks, toggles%2)
	assert.Equal(t, int64(1), playlists[0].Tracks[0].ID)
}

func TestToggleFavoriteErrors(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	_, err := s.ToggleFavorite(ctx, "u1", 404)
	assert.ErrorIs(t, err, store.ErrTrackNotFound)

	_, err = s.ToggleFavorite(ctx, "ghost", 1)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	playlists, err := s.ListUserPlaylists(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, playlists)
}

func TestAddToPlaylistReusesName(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	first, err := s.AddToPlaylist(ctx, models.AddTrackRequest{Name: "Road Trip", UserID: "u1", TrackID: 1})
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := s.AddToPlaylist(ctx, models.AddTrackRequest{Name: "Road Trip", UserID: "u1", TrackID: 2})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Playlist.ID, second.Playlist.ID)
	assert.Len(t, second.Playlist.Tracks, 2)

	again, err := s.AddToPlaylist(ctx, models.AddTrackRequest{UserID: "u1", TrackID: 2, PlaylistID: &first.Playlist.ID})
	require.NoError(t, err)
	assert.Len(t, again.Playlist.Tracks, 2)

	playlists, err := s.ListUserPlaylists(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, playlists, 1)
}

func TestAddToPlaylistValidation(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	unknown := int64(77)

	_, err := s.AddToPlaylist(ctx, models.AddTrackRequest{UserID: "u1", TrackID: 1})
	assert.ErrorIs(t, err, store.ErrPlaylistNameRequired)

	_, err = s.AddToPlaylist(ctx, models.AddTrackRequest{UserID: "u1", TrackID: 1, PlaylistID: &unknown})
	assert.ErrorIs(t, err, store.ErrPlaylistNameRequired)

	_, err = s.AddToPlaylist(ctx, models.AddTrackRequest{Name: "Mix", UserID: "u1", TrackID: 404})
	assert.ErrorIs(t, err, store.ErrTrackNotFound)

	playlists, err := s.ListUserPlaylists(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, playlists)
}

func TestRemoveFromPlaylist(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	require.NoError(t, s.EnsureUser(ctx, "u2", ""))

	added, err := s.AddToPlaylist(ctx, models.AddTrackRequest{Name: "Mix", UserID: "u1", TrackID: 1})
	require.NoError(t, err)
	id := added.Playlist.ID

	assert.ErrorIs(t, s.RemoveFromPlaylist(ctx, id, "u1", 2), store.ErrTrackNotInPlaylist)
	assert.ErrorIs(t, s.RemoveFromPlaylist(ctx, id, "u2", 1), store.ErrPlaylistNotFound)
	assert.ErrorIs(t, s.RemoveFromPlaylist(ctx, 999, "u1", 1), store.ErrPlaylistNotFound)

	got, err := s.GetPlaylist(ctx, id, "u1")
	require.NoError(t, err)
	assert.Len(t, got.Tracks, 1)

	require.NoError(t, s.RemoveFromPlaylist(ctx, id, "u1", 1))
	got, err = s.GetPlaylist(ctx, id, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Tracks)
}

func TestTracksByArtistCarriesMemberships(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	_, err := s.ToggleFavorite(ctx, "u1", 2)
	require.NoError(t, err)

	tracks, err := s.TracksByArtist(ctx, 1, "u1")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "AC/DC", tracks[0].ArtistName)
	assert.False(t, models.IsFavorite(tracks[0].Memberships, "u1"))
	assert.True(t, models.IsFavorite(tracks[1].Memberships, "u1"))

	others, err := s.TracksByArtist(ctx, 1, "u2")
	require.NoError(t, err)
	assert.False(t, models.IsFavorite(others[1].Memberships, "u2"))
}

func TestArtists(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	artists, err := s.ListArtists(ctx)
	require.NoError(t, err)
	require.Len(t, artists, 2)
	assert.Equal(t, "AC/DC", artists[0].Name)
	assert.Len(t, artists[0].Albums, 1)

	_, err = s.GetArtist(ctx, 42)
	assert.ErrorIs(t, err, store.ErrArtistNotFound)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := seeded(t)

	_, err := s.ToggleFavorite(ctx, "u1", 1)
	assert.ErrorIs(t, err, context.Canceled)
}
