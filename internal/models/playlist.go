package models

// FavoritesPlaylistName identifies a user's Favorites playlist.
const FavoritesPlaylistName = "My favorite tracks"

// PlaylistTrack is the view record of a track, annotated for one user.
type PlaylistTrack struct {
	TrackID    int64  `json:"trackId"`
	TrackName  string `json:"trackName,omitempty"`
	AlbumTitle string `json:"albumTitle"`
	ArtistName string `json:"artistName"`
	IsFavorite bool   `json:"isFavorite"`
}

// Playlist is the view record of a playlist and its tracks.
type Playlist struct {
	ID     int64           `json:"playlistId"`
	Name   string          `json:"name"`
	Tracks []PlaylistTrack `json:"tracks"`
}

// IsFavorites reports whether p is a Favorites playlist.
func (p Playlist) IsFavorites() bool {
	return p.Name == FavoritesPlaylistName
}

// PlaylistRecord is a stored playlist with its raw member tracks.
type PlaylistRecord struct {
	ID     int64
	Name   string
	Tracks []Track
}

// AddTrackRequest selects the target playlist for an add-to-playlist call.
// A non-empty Name requests creation or reuse by name; PlaylistID selects an
// existing playlist.
type AddTrackRequest struct {
	Name       string `json:"name"`
	UserID     string `json:"-"`
	TrackID    int64  `json:"-"`
	PlaylistID *int64 `json:"playlistId,omitempty"`
}
