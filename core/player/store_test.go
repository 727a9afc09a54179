package player

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"Vibe/model"
)

func tracks(ids ...string) []model.Track {
	out := make([]model.Track, len(ids))
	for i, id := range ids {
		out[i] = model.Track{ID: id, Name: "Track " + id, AudioURL: "https://cdn/" + id + ".mp3"}
	}
	return out
}

func currentID(st State) string {
	if st.CurrentTrack == nil {
		return ""
	}
	return st.CurrentTrack.ID
}

type failingRecentStore struct {
	saves int
}

func (f *failingRecentStore) Load() ([]model.RecentEntry, error) { return nil, errors.New("disk gone") }
func (f *failingRecentStore) Save([]model.RecentEntry) error {
	f.saves++
	return errors.New("disk full")
}
func (f *failingRecentStore) Clear() error { return errors.New("disk full") }

func TestNewStoreDefaults(t *testing.T) {
	st := NewStore().Snapshot()
	if st.Volume != DefaultVolume || st.Repeat != model.RepeatOff || st.Shuffle || st.IsPlaying {
		t.Errorf("unexpected defaults %+v", st)
	}
	if st.CurrentTrack != nil || len(st.Queue) != 0 || len(st.RecentlyPlayed) != 0 {
		t.Errorf("expected empty store, got %+v", st)
	}
}

func TestSetCurrentTrack(t *testing.T) {
	t.Run("In Queue", func(t *testing.T) {
		s := NewStore()
		q := tracks("a", "b", "c")
		s.SetQueue(q)
		s.SetCurrentTrack(q[1])

		st := s.Snapshot()
		if st.CurrentIndex != 1 || currentID(st) != "b" {
			t.Errorf("expected b at 1, got %s at %d", currentID(st), st.CurrentIndex)
		}
		if len(st.Queue) != 3 {
			t.Errorf("queue should be untouched, got %d", len(st.Queue))
		}
	})

	t.Run("Absent Track Is Appended", func(t *testing.T) {
		s := NewStore()
		s.SetQueue(tracks("a", "b"))
		s.SetCurrentTrack(tracks("z")[0])

		st := s.Snapshot()
		if len(st.Queue) != 3 || st.Queue[st.CurrentIndex].ID != "z" {
			t.Errorf("expected z appended and current, got queue %v index %d", st.Queue, st.CurrentIndex)
		}
	})

	t.Run("Records History", func(t *testing.T) {
		s := NewStore()
		s.SetCurrentTrack(tracks("a")[0])
		if st := s.Snapshot(); len(st.RecentlyPlayed) != 1 || st.RecentlyPlayed[0].ID != "a" {
			t.Errorf("expected a in history, got %v", st.RecentlyPlayed)
		}
	})
}

func TestSetQueueFollowsCurrent(t *testing.T) {
	s := NewStore()
	q := tracks("a", "b", "c")
	s.SetQueue(q)
	s.SetCurrentTrack(q[2])
	s.SetQueue(tracks("c", "a"))

	if st := s.Snapshot(); st.CurrentIndex != 0 {
		t.Errorf("index should follow current track, got %d", st.CurrentIndex)
	}
}

func TestPlayNextSequential(t *testing.T) {
	setup := func(repeat model.RepeatMode) *Store {
		s := NewStore()
		q := tracks("A", "B", "C")
		s.SetQueue(q)
		s.SetCurrentTrack(q[0])
		s.SetRepeat(repeat)
		return s
	}

	t.Run("Repeat Off Stops At End", func(t *testing.T) {
		s := setup(model.RepeatOff)
		if !s.PlayNext() || !s.PlayNext() {
			t.Fatal("first two calls should advance")
		}
		if s.PlayNext() {
			t.Error("third call should not change the current track")
		}
		if st := s.Snapshot(); currentID(st) != "C" || st.CurrentIndex != 2 {
			t.Errorf("expected to stay on C, got %s", currentID(st))
		}
	})

	t.Run("Repeat Playlist Wraps", func(t *testing.T) {
		s := setup(model.RepeatPlaylist)
		s.PlayNext()
		s.PlayNext()
		if !s.PlayNext() {
			t.Fatal("expected wrap to advance")
		}
		if st := s.Snapshot(); currentID(st) != "A" || st.CurrentIndex != 0 {
			t.Errorf("expected wrap to A, got %s", currentID(st))
		}
	})

	t.Run("Repeat Track Still Advances", func(t *testing.T) {
		s := setup(model.RepeatTrack)
		s.PlayNext()
		if st := s.Snapshot(); currentID(st) != "B" {
			t.Errorf("PlayNext ignores repeat=track, got %s", currentID(st))
		}
	})
}

func TestPlayNextShuffle(t *testing.T) {
	t.Run("Never Repeats Index", func(t *testing.T) {
		for _, n := range []int{2, 3, 7} {
			ids := make([]string, n)
			for i := range ids {
				ids[i] = fmt.Sprintf("t%d", i)
			}
			s := NewStore()
			q := tracks(ids...)
			s.SetQueue(q)
			s.SetCurrentTrack(q[0])
			s.SetShuffle(true)

			prev := 0
			for i := 0; i < 500; i++ {
				if !s.PlayNext() {
					t.Fatalf("n=%d: shuffle should always advance", n)
				}
				idx := s.Snapshot().CurrentIndex
				if idx == prev {
					t.Fatalf("n=%d: index %d repeated", n, idx)
				}
				if idx < 0 || idx >= n {
					t.Fatalf("n=%d: index %d out of range", n, idx)
				}
				prev = idx
			}
		}
	})

	t.Run("Single Draw Skips Current", func(t *testing.T) {
		draws := []int{}
		s := NewStore(WithRand(func(n int) int {
			draws = append(draws, n)
			return 1
		}))
		q := tracks("a", "b", "c")
		s.SetQueue(q)
		s.SetCurrentTrack(q[1])
		s.SetShuffle(true)
		s.PlayNext()

		if len(draws) != 1 || draws[0] != 2 {
			t.Errorf("expected one draw over 2 slots, got %v", draws)
		}
		if st := s.Snapshot(); st.CurrentIndex != 2 {
			t.Errorf("draw 1 with current 1 should map to 2, got %d", st.CurrentIndex)
		}
	})

	t.Run("Visits Every Other Track", func(t *testing.T) {
		s := NewStore()
		q := tracks("a", "b", "c", "d")
		s.SetQueue(q)
		s.SetCurrentTrack(q[0])
		s.SetShuffle(true)

		seen := map[int]bool{}
		for i := 0; i < 400; i++ {
			s.PlayNext()
			seen[s.Snapshot().CurrentIndex] = true
		}
		if len(seen) != 4 {
			t.Errorf("expected all indices reachable, got %v", seen)
		}
	})
}

func TestPlayNextSmallQueues(t *testing.T) {
	for _, shuffle := range []bool{false, true} {
		for _, repeat := range []model.RepeatMode{model.RepeatOff, model.RepeatTrack, model.RepeatPlaylist} {
			t.Run(fmt.Sprintf("shuffle=%v repeat=%s", shuffle, repeat), func(t *testing.T) {
				s := NewStore(WithRand(func(n int) int {
					t.Fatalf("no random draw expected for |Q|<=1, got n=%d", n)
					return 0
				}))
				s.SetShuffle(shuffle)
				s.SetRepeat(repeat)

				if s.PlayNext() {
					t.Error("empty queue must be a no-op")
				}

				s.SetCurrentTrack(tracks("solo")[0])
				changed := s.PlayNext()
				if changed != (repeat == model.RepeatPlaylist) {
					t.Errorf("single track: changed=%v", changed)
				}
				if st := s.Snapshot(); currentID(st) != "solo" || st.CurrentIndex != 0 {
					t.Errorf("unexpected state %s at %d", currentID(st), st.CurrentIndex)
				}
			})
		}
	}
}

func TestPlayPrevious(t *testing.T) {
	s := NewStore()
	q := tracks("a", "b", "c")
	s.SetQueue(q)
	s.SetRepeat(model.RepeatOff)

	s.SetCurrentTrack(q[0])
	s.PlayPrevious()
	if st := s.Snapshot(); st.CurrentIndex != 2 || currentID(st) != "c" {
		t.Errorf("from 0 expected wrap to 2, got %d", st.CurrentIndex)
	}

	s.PlayPrevious()
	if st := s.Snapshot(); st.CurrentIndex != 1 {
		t.Errorf("from 2 expected 1, got %d", st.CurrentIndex)
	}

	empty := NewStore()
	if empty.PlayPrevious() {
		t.Error("empty queue must be a no-op")
	}
}

func TestSetters(t *testing.T) {
	s := NewStore()

	s.SetVolume(1.5)
	if v := s.Snapshot().Volume; v != 1 {
		t.Errorf("volume should clamp to 1, got %v", v)
	}
	s.SetVolume(-2)
	if v := s.Snapshot().Volume; v != 0 {
		t.Errorf("volume should clamp to 0, got %v", v)
	}

	s.SetProgress(12.5)
	s.SetDuration(200)
	s.SetIsPlaying(true)
	s.SetShuffle(true)
	st := s.Snapshot()
	if st.Progress != 12.5 || st.Duration != 200 || !st.IsPlaying || !st.Shuffle {
		t.Errorf("setters not applied: %+v", st)
	}

	if m := s.CycleRepeat(); m != model.RepeatTrack {
		t.Errorf("expected track, got %s", m)
	}
}

func TestRecentlyPlayed(t *testing.T) {
	t.Run("Capped And Moved To Front", func(t *testing.T) {
		rs := NewMemoryRecentStore()
		s := NewStore(WithRecentStore(rs))
		for i := 0; i < 60; i++ {
			s.AddToRecentlyPlayed(model.Track{ID: fmt.Sprintf("t%d", i)})
		}
		s.AddToRecentlyPlayed(model.Track{ID: "t30"})

		st := s.Snapshot()
		if len(st.RecentlyPlayed) != MaxRecentlyPlayed {
			t.Fatalf("expected %d entries, got %d", MaxRecentlyPlayed, len(st.RecentlyPlayed))
		}
		if st.RecentlyPlayed[0].ID != "t30" {
			t.Errorf("re-added track should be first, got %s", st.RecentlyPlayed[0].ID)
		}
		count := 0
		for _, e := range st.RecentlyPlayed {
			if e.ID == "t30" {
				count++
			}
		}
		if count != 1 {
			t.Errorf("expected t30 once, got %d", count)
		}

		persisted, _ := rs.Load()
		if len(persisted) != MaxRecentlyPlayed || persisted[0].ID != "t30" {
			t.Errorf("persisted list out of sync: %d entries", len(persisted))
		}
	})

	t.Run("Stamped With Clock", func(t *testing.T) {
		at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		s := NewStore(WithClock(func() time.Time { return at }))
		s.AddToRecentlyPlayed(model.Track{ID: "a"})
		if got := s.Snapshot().RecentlyPlayed[0].PlayedAt; !got.Equal(at) {
			t.Errorf("unexpected playedAt %v", got)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		rs := NewMemoryRecentStore()
		s := NewStore(WithRecentStore(rs))
		s.AddToRecentlyPlayed(model.Track{ID: "a"})
		s.ClearRecentlyPlayed()

		if n := len(s.Snapshot().RecentlyPlayed); n != 0 {
			t.Errorf("expected empty history, got %d", n)
		}
		if persisted, _ := rs.Load(); len(persisted) != 0 {
			t.Errorf("persisted copy should be erased, got %d", len(persisted))
		}
	})

	t.Run("Persistence Failures Are Swallowed", func(t *testing.T) {
		rs := &failingRecentStore{}
		s := NewStore(WithRecentStore(rs))
		q := tracks("a", "b")
		s.SetQueue(q)
		s.SetCurrentTrack(q[0])
		s.PlayNext()
		s.ClearRecentlyPlayed()

		if currentID(s.Snapshot()) != "b" {
			t.Error("playback should continue despite storage errors")
		}
		if rs.saves != 2 {
			t.Errorf("expected 2 save attempts, got %d", rs.saves)
		}
	})

	t.Run("Rehydrated On Start", func(t *testing.T) {
		rs := NewMemoryRecentStore()
		first := NewStore(WithRecentStore(rs))
		first.AddToRecentlyPlayed(model.Track{ID: "a"})
		first.AddToRecentlyPlayed(model.Track{ID: "b"})

		st := NewStore(WithRecentStore(rs)).Snapshot()
		if len(st.RecentlyPlayed) != 2 || st.RecentlyPlayed[0].ID != "b" {
			t.Errorf("unexpected rehydrated history %v", st.RecentlyPlayed)
		}
	})
}

func TestSubscribe(t *testing.T) {
	s := NewStore()
	var got []Change
	unsubscribe := s.Subscribe(func(c Change, st State) {
		got = append(got, c)
	})

	s.SetIsPlaying(true)
	s.SetIsPlaying(true) // no change, no notification
	s.SetCurrentTrack(tracks("a")[0])
	unsubscribe()
	s.SetVolume(0.1)

	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if !got[0].Has(ChangePlaying) {
		t.Errorf("first change should be playing, got %b", got[0])
	}
	if !got[1].Has(ChangeTrack) || !got[1].Has(ChangeQueue) || !got[1].Has(ChangeRecent) {
		t.Errorf("track selection should report track, queue and recent, got %b", got[1])
	}
}

func TestObserverMayReenter(t *testing.T) {
	s := NewStore()
	s.Subscribe(func(c Change, st State) {
		if c.Has(ChangeTrack) && st.IsPlaying {
			s.SetIsPlaying(false)
		}
	})
	s.SetIsPlaying(true)
	s.SetCurrentTrack(tracks("a")[0])

	if s.Snapshot().IsPlaying {
		t.Error("observer mutation should be applied")
	}
}
