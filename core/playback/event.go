package playback

import (
	"errors"
	"fmt"
)

// EventType names a media event reported by the element.
type EventType string

const (
	EventCanPlay        EventType = "canplay"
	EventLoadedMetadata EventType = "loadedmetadata"
	EventTimeUpdate     EventType = "timeupdate"
	EventSeekStart      EventType = "seekstart"
	EventSeekEnd        EventType = "seekend"
	EventEnded          EventType = "ended"
	EventPlayRejected   EventType = "playrejected"
	EventError          EventType = "error"
)

// Event is the wire form of a media event. Src identifies the media the
// event belongs to; events for anything other than the loaded source are
// stale and dropped.
type Event struct {
	Type     EventType `json:"type"`
	Src      string    `json:"src,omitempty"`
	Time     float64   `json:"time,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Dispatch routes ev to the matching handler. It reports whether the event
// was applied.
func (e *Engine) Dispatch(ev Event) (bool, error) {
	if e.detached {
		return false, nil
	}
	if ev.Src != "" && ev.Src != e.src {
		return false, nil
	}

	switch ev.Type {
	case EventCanPlay:
		e.CanPlay()
	case EventLoadedMetadata:
		e.LoadedMetadata(ev.Duration)
	case EventTimeUpdate:
		e.TimeUpdate(ev.Time)
	case EventSeekStart:
		e.BeginSeek()
	case EventSeekEnd:
		if err := e.EndSeek(ev.Time); err != nil {
			return false, err
		}
	case EventEnded:
		e.Ended()
	case EventPlayRejected:
		e.PlayRejected(eventError(ev))
	case EventError:
		e.MediaError(eventError(ev))
	default:
		return false, fmt.Errorf("unknown media event %q", ev.Type)
	}
	return true, nil
}

func eventError(ev Event) error {
	if ev.Error == "" {
		return nil
	}
	return errors.New(ev.Error)
}
