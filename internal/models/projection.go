package models

import "sort"

// IsFavorite reports whether any of the memberships is a Favorites playlist
// owned by userID.
func IsFavorite(memberships []Membership, userID string) bool {
	if userID == "" {
		return false
	}
	for _, m := range memberships {
		if m.Name != FavoritesPlaylistName {
			continue
		}
		for _, owner := range m.OwnerIDs {
			if owner == userID {
				return true
			}
		}
	}
	return false
}

// ProjectTrack converts a raw track into its view record for userID.
func ProjectTrack(t Track, userID string) PlaylistTrack {
	return PlaylistTrack{
		TrackID:    t.ID,
		TrackName:  t.Name,
		AlbumTitle: t.AlbumTitle,
		ArtistName: t.ArtistName,
		IsFavorite: IsFavorite(t.Memberships, userID),
	}
}

// ProjectTracks projects every track, preserving order.
func ProjectTracks(tracks []Track, userID string) []PlaylistTrack {
	out := make([]PlaylistTrack, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, ProjectTrack(t, userID))
	}
	return out
}

// ProjectPlaylist converts a stored playlist into its view record for userID.
func ProjectPlaylist(p PlaylistRecord, userID string) Playlist {
	return Playlist{
		ID:     p.ID,
		Name:   p.Name,
		Tracks: ProjectTracks(p.Tracks, userID),
	}
}

// OrderPlaylists sorts playlists in place: the Favorites playlist first,
// then by id ascending.
func OrderPlaylists(playlists []Playlist) {
	sort.SliceStable(playlists, func(i, j int) bool {
		fi, fj := playlists[i].IsFavorites(), playlists[j].IsFavorites()
		if fi != fj {
			return fi
		}
		return playlists[i].ID < playlists[j].ID
	})
}

// ClonePlaylists returns a deep copy of playlists.
func ClonePlaylists(src []Playlist) []Playlist {
	if src == nil {
		return nil
	}
	out := make([]Playlist, len(src))
	for i, p := range src {
		out[i] = p
		if p.Tracks != nil {
			out[i].Tracks = make([]PlaylistTrack, len(p.Tracks))
			copy(out[i].Tracks, p.Tracks)
		}
	}
	return out
}
