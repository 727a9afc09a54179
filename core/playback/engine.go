package playback

import (
	"errors"
	"fmt"
	"math"

	"Vibe/core/player"
	"Vibe/logger"
	"Vibe/model"
)

// ErrNotReady is returned by transport calls made before the loaded media
// is decodable.
var ErrNotReady = errors.New("media not ready")

// Element is the native audio element the engine drives.
type Element interface {
	Load(src string)
	Play() error
	Pause()
	Seek(seconds float64)
	SetVolume(v float64)
}

// Engine mirrors player state onto an Element and feeds the element's media
// events back into the store.
//
// Engine is not safe for concurrent use. Store notifications and event
// methods must be serialized by the caller, as core/session does.
type Engine struct {
	store *player.Store
	el    Element

	src         string
	ready       bool
	seeking     bool
	pendingPlay bool
	resumeAt    float64 // position to restore on the next canplay
	lastErr     error
	detached    bool
	unsubscribe func()
}

// NewEngine binds el to store and applies the current state to it.
func NewEngine(store *player.Store, el Element) *Engine {
	e := &Engine{store: store, el: el}

	st := store.Snapshot()
	el.SetVolume(st.Volume)
	if st.CurrentTrack != nil {
		e.load(*st.CurrentTrack, st.IsPlaying)
	}

	e.unsubscribe = store.Subscribe(e.onChange)
	return e
}

// Detach stops reacting to state changes and drops any later media events.
func (e *Engine) Detach() {
	if e.detached {
		return
	}
	e.detached = true
	e.unsubscribe()
}

// Reattach brings a replacement element (a reloaded page) up to date. The
// source is loaded again and transport stays disabled until the new element
// reports canplay; then the stored position is restored and, if the state
// says playing, play is requested.
func (e *Engine) Reattach() {
	if e.detached {
		return
	}
	st := e.store.Snapshot()
	e.ready = false
	e.seeking = false
	e.lastErr = nil
	e.el.SetVolume(st.Volume)
	if e.src == "" {
		e.pendingPlay = false
		e.resumeAt = 0
		return
	}
	e.pendingPlay = st.IsPlaying
	e.resumeAt = st.Progress
	e.el.Load(e.src)
}

// Ready reports whether the loaded media can be played and seeked.
func (e *Engine) Ready() bool { return e.ready }


// Source returns the URL currently loaded into the element.
func (e *Engine) Source() string { return e.src }

// LastError returns the most recent media or play error, cleared on load.
func (e *Engine) LastError() error { return e.lastErr }

func (e *Engine) onChange(c player.Change, st player.State) {
	if e.detached {
		return
	}
	if c.Has(player.ChangeVolume) {
		e.el.SetVolume(st.Volume)
	}
	if c.Has(player.ChangeTrack) && st.CurrentTrack != nil {
		e.load(*st.CurrentTrack, st.IsPlaying)
		return
	}
	if c.Has(player.ChangePlaying) {
		if st.IsPlaying {
			e.requestPlay()
		} else {
			e.pendingPlay = false
			e.el.Pause()
		}
	}
}

func (e *Engine) load(track model.Track, playing bool) {
	e.src = track.AudioURL
	e.ready = false
	e.seeking = false
	e.lastErr = nil
	e.pendingPlay = playing
	e.resumeAt = 0
	e.el.Load(track.AudioURL)

	e.store.SetProgress(0)
	e.store.SetDuration(track.Duration)
}

func (e *Engine) requestPlay() {
	if !e.ready {
		e.pendingPlay = true
		return
	}
	e.pendingPlay = false
	if err := e.el.Play(); err != nil {
		e.playFailed(err)
	}
}

func (e *Engine) playFailed(err error) {
	e.lastErr = err
	logger.Warn("Playback request rejected", logger.String("src", e.src), logger.ErrorField(err))
	e.store.SetIsPlaying(false)
}

// CanPlay marks the media decodable and starts a deferred play request.
func (e *Engine) CanPlay() {
	if e.detached {
		return
	}
	e.ready = true
	if e.resumeAt > 0 {
		e.el.Seek(e.resumeAt)
		e.store.SetProgress(e.resumeAt)
		e.resumeAt = 0
	}
	if e.pendingPlay && e.store.Snapshot().IsPlaying {
		e.requestPlay()
	}
	e.pendingPlay = false
}

// PlayRejected reports an asynchronous play failure, such as an autoplay
// policy refusal.
func (e *Engine) PlayRejected(err error) {
	if e.detached {
		return
	}
	if err == nil {
		err = errors.New("play rejected")
	}
	e.pendingPlay = false
	e.playFailed(err)
}

// TimeUpdate mirrors the element position unless a seek drag is active.
func (e *Engine) TimeUpdate(seconds float64) {
	if e.detached || e.seeking {
		return
	}
	e.store.SetProgress(seconds)
}

// BeginSeek suppresses position updates until EndSeek.
func (e *Engine) BeginSeek() {
	if e.detached {
		return
	}
	e.seeking = true
}

// EndSeek finishes a drag by seeking to pos.
func (e *Engine) EndSeek(pos float64) error {
	if e.detached {
		return nil
	}
	e.seeking = false
	return e.Seek(pos)
}

// Seek moves the playback position.
func (e *Engine) Seek(pos float64) error {
	if e.detached {
		return nil
	}
	if !e.ready {
		return ErrNotReady
	}
	if math.IsNaN(pos) || pos < 0 {
		pos = 0
	}
	e.el.Seek(pos)
	e.store.SetProgress(pos)
	return nil
}

// Ended handles the end of the current media. With repeat=track the same
// media restarts; otherwise the queue advances, and if it cannot, playback
// stops.
func (e *Engine) Ended() {
	if e.detached {
		return
	}
	st := e.store.Snapshot()
	if st.Repeat == model.RepeatTrack {
		e.el.Seek(0)
		e.store.SetProgress(0)
		if st.IsPlaying {
			e.requestPlay()
		} else {
			e.store.SetIsPlaying(true)
		}
		return
	}
	if !e.store.PlayNext() {
		e.store.SetIsPlaying(false)
	}
}

// LoadedMetadata takes the duration reported by the element, falling back
// to the stored duration of the track.
func (e *Engine) LoadedMetadata(duration float64) {
	if e.detached {
		return
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		st := e.store.Snapshot()
		if st.CurrentTrack == nil {
			return
		}
		duration = st.CurrentTrack.Duration
	}
	e.store.SetDuration(duration)
}

// MediaError leaves the player in a non-playable state. No retry is made.
func (e *Engine) MediaError(err error) {
	if e.detached {
		return
	}
	if err == nil {
		err = errors.New("media error")
	}
	e.ready = false
	e.pendingPlay = false
	e.lastErr = fmt.Errorf("load %s: %w", e.src, err)
	logger.Warn("Media failed to load", logger.String("src", e.src), logger.ErrorField(err))
	e.store.SetIsPlaying(false)
}
