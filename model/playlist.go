package model

import "time"

// Playlist is a named, user-owned, ordered collection of tracks. The id and
// creation timestamp are generated by the client that creates it.
type Playlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Tracks      []Track   `json:"tracks"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// PlaylistUpdate carries the fields of a partial playlist update. Nil fields
// are left unchanged.
type PlaylistUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Image       *string  `json:"image,omitempty"`
	Tracks      *[]Track `json:"tracks,omitempty"`
}

// Apply returns a copy of p with the update applied. A replaced track list
// is de-duplicated by id.
func (u PlaylistUpdate) Apply(p Playlist) Playlist {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Tracks != nil {
		p.Tracks = DedupTracks(*u.Tracks)
	}
	return p
}

// Clone returns a deep copy whose track slice can be mutated independently.
// The copy always has a non-nil track list, so it encodes as [] when empty.
func (p Playlist) Clone() Playlist {
	p.Tracks = append(make([]Track, 0, len(p.Tracks)), p.Tracks...)
	return p
}
