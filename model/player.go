package model

import (
	"fmt"
	"time"
)

// RepeatMode controls what happens when playback reaches the end of a track
// or of the queue.
type RepeatMode string

const (
	RepeatOff      RepeatMode = "off"
	RepeatTrack    RepeatMode = "track"
	RepeatPlaylist RepeatMode = "playlist"
)

// ParseRepeatMode validates a repeat mode name.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch RepeatMode(s) {
	case RepeatOff, RepeatTrack, RepeatPlaylist:
		return RepeatMode(s), nil
	}
	return "", fmt.Errorf("invalid repeat mode %q", s)
}

// Next cycles off -> track -> playlist -> off.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatTrack
	case RepeatTrack:
		return RepeatPlaylist
	default:
		return RepeatOff
	}
}

// RecentEntry is one row of the recently played history. It serializes as
// the track fields plus "playedAt", matching the persisted layout.
type RecentEntry struct {
	Track
	PlayedAt time.Time `json:"playedAt"`
}
