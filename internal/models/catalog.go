package models

// Artist is a catalogue artist together with its albums.
type Artist struct {
	ID     int64   `json:"artistId" db:"id"`
	Name   string  `json:"name" db:"name"`
	Albums []Album `json:"albums,omitempty"`
}

// Album belongs to at most one artist.
type Album struct {
	ID       int64  `json:"albumId" db:"id"`
	Title    string `json:"title" db:"title"`
	ArtistID *int64 `json:"artistId,omitempty" db:"artist_id"`
}

// Track is a raw catalogue row joined with its album and artist, plus the
// playlists the track belongs to. AlbumTitle and ArtistName are empty when
// the track has no album.
type Track struct {
	ID          int64
	Name        string
	AlbumID     *int64
	AlbumTitle  string
	ArtistName  string
	Memberships []Membership
}

// Membership links a track to one playlist and the users owning it.
type Membership struct {
	PlaylistID int64
	Name       string
	OwnerIDs   []string
}

// ArtistSeed describes catalogue rows to insert for demo data.
type ArtistSeed struct {
	Name   string
	Albums []AlbumSeed
}

// AlbumSeed is an album title and its track names.
type AlbumSeed struct {
	Title  string
	Tracks []string
}
