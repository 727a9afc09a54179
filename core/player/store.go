package player

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"Vibe/logger"
	"Vibe/model"
)

// DefaultVolume is the initial volume of a new store.
const DefaultVolume = 0.7

// Change is a bitmask of the state fields touched by a mutation.
type Change uint16

const (
	ChangeTrack Change = 1 << iota
	ChangeQueue
	ChangePlaying
	ChangeVolume
	ChangeProgress
	ChangeDuration
	ChangeRepeat
	ChangeShuffle
	ChangeRecent
)

// Has reports whether c includes any of the bits in other.
func (c Change) Has(other Change) bool { return c&other != 0 }

// State is a snapshot of the player.
type State struct {
	CurrentTrack   *model.Track        `json:"currentTrack"`
	Queue          []model.Track       `json:"queue"`
	CurrentIndex   int                 `json:"currentIndex"`
	IsPlaying      bool                `json:"isPlaying"`
	Progress       float64             `json:"progress"`
	Duration       float64             `json:"duration"`
	Volume         float64             `json:"volume"`
	Repeat         model.RepeatMode    `json:"repeat"`
	Shuffle        bool                `json:"shuffle"`
	RecentlyPlayed []model.RecentEntry `json:"recentlyPlayed"`
}

func (s State) clone() State {
	if s.CurrentTrack != nil {
		t := *s.CurrentTrack
		s.CurrentTrack = &t
	}
	s.Queue = append([]model.Track{}, s.Queue...)
	s.RecentlyPlayed = append([]model.RecentEntry{}, s.RecentlyPlayed...)
	return s
}

// Observer is called after every mutation with the fields that changed and
// a snapshot taken after the change. Observers run without the store lock
// held and may call back into the store.
type Observer func(Change, State)

// Option configures a Store.
type Option func(*Store)

// WithRecentStore sets where recently played history is persisted.
func WithRecentStore(rs RecentStore) Option {
	return func(s *Store) { s.recent = rs }
}

// WithRand sets the source used by shuffle. intn must return a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(s *Store) { s.intn = intn }
}

// WithClock sets the time source used to stamp history entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the single source of truth for what is loaded and playing.
type Store struct {
	mu     sync.Mutex
	state  State
	recent RecentStore
	intn   func(n int) int
	now    func() time.Time

	observers map[int]Observer
	nextObsID int
}

// NewStore creates a store and rehydrates the recently played history.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state: State{
			Queue:          []model.Track{},
			Volume:         DefaultVolume,
			Repeat:         model.RepeatOff,
			RecentlyPlayed: []model.RecentEntry{},
		},
		now:       time.Now,
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.intn == nil {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		s.intn = r.Intn
	}
	if s.recent == nil {
		s.recent = NewMemoryRecentStore()
	}

	entries, err := s.recent.Load()
	if err != nil {
		logger.Warn("Failed to load recently played, starting empty", logger.ErrorField(err))
		entries = nil
	}
	if entries != nil {
		s.state.RecentlyPlayed = normalizeRecent(entries)
	}
	return s
}

// Subscribe registers fn and returns a func that removes it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// update runs fn under the lock and notifies observers if it reports a change.
func (s *Store) update(fn func(st *State) Change) Change {
	s.mu.Lock()
	change := fn(&s.state)
	if change == 0 {
		s.mu.Unlock()
		return 0
	}
	snap := s.state.clone()
	obs := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		obs = append(obs, o)
	}
	s.mu.Unlock()

	for _, o := range obs {
		o(change, snap)
	}
	return change
}

// SetCurrentTrack makes track current. A track that is not in the queue is
// appended to it so that queue[currentIndex] is always the current track.
func (s *Store) SetCurrentTrack(track model.Track) {
	s.update(func(st *State) Change {
		return s.selectTrack(st, track)
	})
}

func (s *Store) selectTrack(st *State, track model.Track) Change {
	change := ChangeTrack | ChangeRecent
	idx := model.IndexOfTrack(st.Queue, track.ID)
	if idx < 0 {
		st.Queue = append(st.Queue, track)
		idx = len(st.Queue) - 1
		change |= ChangeQueue
	}
	t := track
	st.CurrentTrack = &t
	st.CurrentIndex = idx
	s.pushRecent(st, track)
	return change
}

// SetQueue replaces the queue. If the current track is in the new queue the
// index follows it; otherwise the index is left as is.
func (s *Store) SetQueue(tracks []model.Track) {
	s.update(func(st *State) Change {
		st.Queue = append([]model.Track{}, tracks...)
		if st.CurrentTrack != nil {
			if idx := model.IndexOfTrack(st.Queue, st.CurrentTrack.ID); idx >= 0 {
				st.CurrentIndex = idx
			}
		}
		return ChangeQueue
	})
}

// PlayNext advances to the next track. It reports whether a track was
// selected; at the end of the queue with repeat other than playlist, or on
// an empty queue, it does nothing.
func (s *Store) PlayNext() bool {
	return s.update(func(st *State) Change {
		n := len(st.Queue)
		if n == 0 {
			return 0
		}

		var next int
		if st.Shuffle && n > 1 {
			next = s.pickShuffled(st.CurrentIndex, n)
		} else {
			next = st.CurrentIndex + 1
			if next >= n {
				if st.Repeat != model.RepeatPlaylist {
					return 0
				}
				next = 0
			}
		}
		return s.selectTrack(st, st.Queue[next])
	}) != 0
}

// pickShuffled draws once over the n-1 slots other than current.
func (s *Store) pickShuffled(current, n int) int {
	if current < 0 || current >= n {
		return s.intn(n)
	}
	r := s.intn(n - 1)
	if r >= current {
		r++
	}
	return r
}

// PlayPrevious steps back one track, wrapping from the first to the last.
// Repeat mode is not consulted.
func (s *Store) PlayPrevious() bool {
	return s.update(func(st *State) Change {
		n := len(st.Queue)
		if n == 0 {
			return 0
		}
		idx := st.CurrentIndex
		if idx > n {
			idx = n
		}
		prev := idx - 1
		if prev < 0 {
			prev = n - 1
		}
		return s.selectTrack(st, st.Queue[prev])
	}) != 0
}

// SetIsPlaying sets the play/pause flag.
func (s *Store) SetIsPlaying(playing bool) {
	s.update(func(st *State) Change {
		if st.IsPlaying == playing {
			return 0
		}
		st.IsPlaying = playing
		return ChangePlaying
	})
}

// SetVolume sets the volume, clamped to [0, 1]. NaN is ignored.
func (s *Store) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = math.Max(0, math.Min(1, v))
	s.update(func(st *State) Change {
		if st.Volume == v {
			return 0
		}
		st.Volume = v
		return ChangeVolume
	})
}

// SetProgress sets the playback position in seconds.
func (s *Store) SetProgress(p float64) {
	if math.IsNaN(p) || p < 0 {
		p = 0
	}
	s.update(func(st *State) Change {
		st.Progress = p
		return ChangeProgress
	})
}

// SetDuration sets the duration of the loaded media in seconds.
func (s *Store) SetDuration(d float64) {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		d = 0
	}
	s.update(func(st *State) Change {
		st.Duration = d
		return ChangeDuration
	})
}

// SetRepeat sets the repeat mode.
func (s *Store) SetRepeat(m model.RepeatMode) {
	s.update(func(st *State) Change {
		if st.Repeat == m {
			return 0
		}
		st.Repeat = m
		return ChangeRepeat
	})
}

// CycleRepeat steps off -> track -> playlist -> off and returns the new mode.
func (s *Store) CycleRepeat() model.RepeatMode {
	var mode model.RepeatMode
	s.update(func(st *State) Change {
		st.Repeat = st.Repeat.Next()
		mode = st.Repeat
		return ChangeRepeat
	})
	return mode
}

// SetShuffle toggles shuffle.
func (s *Store) SetShuffle(on bool) {
	s.update(func(st *State) Change {
		if st.Shuffle == on {
			return 0
		}
		st.Shuffle = on
		return ChangeShuffle
	})
}

// AddToRecentlyPlayed moves track to the front of the history.
func (s *Store) AddToRecentlyPlayed(track model.Track) {
	s.update(func(st *State) Change {
		s.pushRecent(st, track)
		return ChangeRecent
	})
}

// ClearRecentlyPlayed empties the history and erases the persisted copy.
func (s *Store) ClearRecentlyPlayed() {
	s.update(func(st *State) Change {
		st.RecentlyPlayed = []model.RecentEntry{}
		if err := s.recent.Clear(); err != nil {
			logger.Warn("Failed to clear persisted recently played", logger.ErrorField(err))
		}
		return ChangeRecent
	})
}

// pushRecent must be called with the lock held.
func (s *Store) pushRecent(st *State, track model.Track) {
	if track.ID == "" {
		return
	}
	list := make([]model.RecentEntry, 0, MaxRecentlyPlayed)
	list = append(list, model.RecentEntry{Track: track, PlayedAt: s.now()})
	for _, e := range st.RecentlyPlayed {
		if e.ID == track.ID {
			continue
		}
		if len(list) == MaxRecentlyPlayed {
			break
		}
		list = append(list, e)
	}
	st.RecentlyPlayed = list

	if err := s.recent.Save(list); err != nil {
		logger.Warn("Failed to persist recently played",
			logger.String("trackId", track.ID),
			logger.ErrorField(err))
	}
}
