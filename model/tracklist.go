package model

import (
	"database/sql/driver"
	"fmt"

	"Vibe/logger"
)

// TrackList is the embedded track column of a playlist row.
type TrackList []Track

// Scan implements sql.Scanner. A malformed column is read as an empty list so
// that a single bad row does not fail a whole listing.
func (tl *TrackList) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*tl = TrackList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into TrackList", value)
	}

	tracks, err := ParseTrackList(raw)
	if err != nil {
		logger.Warn("Recovered malformed playlist track list", logger.ErrorField(err))
		*tl = TrackList{}
		return nil
	}
	*tl = tracks
	return nil
}

// Value implements driver.Valuer; the list is always written as a JSON array.
func (tl TrackList) Value() (driver.Value, error) {
	return EncodeTrackList(tl)
}
