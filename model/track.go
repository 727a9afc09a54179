package model

import "time"

// Track represents a playable audio item in the catalog. Tracks are
// immutable once created; a re-upload creates a new record.
type Track struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ArtistName string    `json:"artist_name"`
	ArtistID   string    `json:"artist_id"`
	AlbumName  string    `json:"album_name"`
	AlbumID    string    `json:"album_id"`
	AlbumImage string    `json:"album_image"` // cover image URL
	AudioURL   string    `json:"audio_url"`
	Duration   float64   `json:"duration"` // seconds
	UserID     string    `json:"user_id"`  // uploader
	CreatedAt  time.Time `json:"created_at"`
}

// IndexOfTrack returns the position of the track with the given id, or -1.
func IndexOfTrack(tracks []Track, id string) int {
	for i := range tracks {
		if tracks[i].ID == id {
			return i
		}
	}
	return -1
}

// ContainsTrack reports whether tracks holds a track with the given id.
func ContainsTrack(tracks []Track, id string) bool {
	return IndexOfTrack(tracks, id) >= 0
}

// DedupTracks returns tracks with later duplicates (by id) dropped, keeping
// first-insertion order.
func DedupTracks(tracks []Track) []Track {
	seen := make(map[string]struct{}, len(tracks))
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}
