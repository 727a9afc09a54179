package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedTrackList is returned when an embedded track list is neither a
// JSON array nor a JSON string holding one.
var ErrMalformedTrackList = errors.New("malformed track list")

// Record is a loosely-typed row as returned by the remote store or embedded
// in a playlist's serialized track list.
type Record map[string]any

// TrackFromRecord converts an untrusted record into a Track. Every optional
// field falls back to its zero value; only the id is required. Older rows
// use "audio" and "album" where newer ones use "audio_url" and "album_name".
func TrackFromRecord(r Record) (Track, error) {
	id := r.str("id")
	if id == "" {
		return Track{}, errors.New("track record without id")
	}
	return Track{
		ID:         id,
		Name:       r.str("name"),
		ArtistName: r.str("artist_name", "artist_dispname"),
		ArtistID:   r.str("artist_id"),
		AlbumName:  r.str("album_name", "album"),
		AlbumID:    r.str("album_id"),
		AlbumImage: r.str("album_image"),
		AudioURL:   r.str("audio_url", "audio"),
		Duration:   r.num("duration"),
		UserID:     r.str("user_id"),
		CreatedAt:  r.time("created_at"),
	}, nil
}

// ParseTrackList decodes a stored track list. Both a JSON array and a
// JSON-encoded string containing an array are accepted. Entries that are not
// objects or have no id are skipped. Empty input and "null" yield an empty list.
func ParseTrackList(raw []byte) ([]Track, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return []Track{}, nil
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return []Track{}, fmt.Errorf("%w: %v", ErrMalformedTrackList, err)
		}
		return ParseTrackList([]byte(inner))
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []Track{}, fmt.Errorf("%w: %v", ErrMalformedTrackList, err)
	}

	tracks := make([]Track, 0, len(items))
	for _, item := range items {
		var rec Record
		if err := json.Unmarshal(item, &rec); err != nil || rec == nil {
			continue
		}
		t, err := TrackFromRecord(rec)
		if err != nil {
			continue
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// EncodeTrackList serializes tracks as a JSON array for the embedded column.
func EncodeTrackList(tracks []Track) (string, error) {
	if tracks == nil {
		tracks = []Track{}
	}
	b, err := json.Marshal(tracks)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r Record) str(keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func (r Record) num(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}

func (r Record) time(key string) time.Time {
	s, ok := r[key].(string)
	if !ok || s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
