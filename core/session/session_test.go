package session

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"Vibe/core/playback"
	"Vibe/core/player"
	"Vibe/model"
)

type fakeElement struct {
	loads   []string
	plays   int
	pauses  int
	seeks   []float64
	volumes int
}

func (f *fakeElement) Load(src string)   { f.loads = append(f.loads, src) }
func (f *fakeElement) Play() error       { f.plays++; return nil }
func (f *fakeElement) Pause()            { f.pauses++ }
func (f *fakeElement) Seek(pos float64)  { f.seeks = append(f.seeks, pos) }
func (f *fakeElement) SetVolume(float64) { f.volumes++ }

func newTestManager(t *testing.T, deps Deps) (*Manager, map[string]*fakeElement) {
	t.Helper()
	elements := map[string]*fakeElement{}
	m := NewManager(deps, WithElementFactory(func(userID string) playback.Element {
		el := &fakeElement{}
		elements[userID] = el
		return el
	}))
	t.Cleanup(m.Close)
	return m, elements
}

func TestManagerGet(t *testing.T) {
	m, _ := newTestManager(t, Deps{})

	if _, err := m.Get(""); !errors.Is(err, ErrNoUser) {
		t.Errorf("expected ErrNoUser, got %v", err)
	}

	a, err := m.Get("u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	again, _ := m.Get("u1")
	if a != again {
		t.Error("expected the same session for the same user")
	}
	b, _ := m.Get("u2")
	if a == b {
		t.Error("users must not share a session")
	}
}

func TestSessionTransport(t *testing.T) {
	m, elements := newTestManager(t, Deps{})
	s, _ := m.Get("u1")
	el := elements["u1"]

	tr := model.Track{ID: "a", AudioURL: "https://cdn/a.mp3", Duration: 120}
	st, err := s.Do(func(store *player.Store, _ *playback.Engine) error {
		store.SetCurrentTrack(tr)
		store.SetIsPlaying(true)
		return nil
	})
	if err != nil {
		t.Fatalf("do failed: %v", err)
	}
	if !st.IsPlaying || st.CurrentTrack == nil || st.Duration != 120 {
		t.Errorf("unexpected state %+v", st)
	}
	if len(el.loads) != 1 || el.loads[0] != tr.AudioURL {
		t.Errorf("expected one load, got %v", el.loads)
	}
	if el.plays != 0 {
		t.Error("play must wait for canplay")
	}

	applied, err := s.HandleEvent(playback.Event{Type: playback.EventCanPlay, Src: tr.AudioURL})
	if !applied || err != nil {
		t.Fatalf("canplay not applied: %v %v", applied, err)
	}
	if el.plays != 1 {
		t.Errorf("expected deferred play, got %d", el.plays)
	}

	applied, _ = s.HandleEvent(playback.Event{Type: playback.EventTimeUpdate, Src: "https://cdn/old.mp3", Time: 9})
	if applied || s.Snapshot().Progress != 0 {
		t.Error("stale event should be dropped")
	}
}

func TestSessionCloseIgnoresEvents(t *testing.T) {
	m, _ := newTestManager(t, Deps{})
	s, _ := m.Get("u1")
	s.Do(func(store *player.Store, _ *playback.Engine) error {
		store.SetCurrentTrack(model.Track{ID: "a", AudioURL: "a.mp3"})
		return nil
	})

	m.Drop("u1")
	if applied, _ := s.HandleEvent(playback.Event{Type: playback.EventTimeUpdate, Time: 5}); applied {
		t.Error("events after close must be ignored")
	}
	fresh, _ := m.Get("u1")
	if fresh == s {
		t.Error("dropped session should be rebuilt")
	}
}

func TestSessionHistoryPersists(t *testing.T) {
	db, err := player.OpenStateDB(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open state db: %v", err)
	}
	defer db.Close()

	m, _ := newTestManager(t, Deps{StateDB: db})
	s, _ := m.Get("u1")
	s.Do(func(store *player.Store, _ *playback.Engine) error {
		store.AddToRecentlyPlayed(model.Track{ID: "a"})
		store.AddToRecentlyPlayed(model.Track{ID: "b"})
		return nil
	})
	m.Drop("u1")

	again, _ := m.Get("u1")
	recent := again.Snapshot().RecentlyPlayed
	if len(recent) != 2 || recent[0].ID != "b" {
		t.Errorf("expected rehydrated [b a], got %+v", recent)
	}

	other, _ := m.Get("u2")
	if len(other.Snapshot().RecentlyPlayed) != 0 {
		t.Error("history must be per user")
	}
}

func TestAttach(t *testing.T) {
	t.Run("Idle Session", func(t *testing.T) {
		m, elements := newTestManager(t, Deps{})
		s, _ := m.Get("u1")
		el := elements["u1"]
		before := el.volumes

		msg, err := s.Attach()
		if err != nil || msg.Type != MsgTypeState {
			t.Fatalf("expected state message, got %+v, %v", msg, err)
		}
		if len(el.loads) != 0 {
			t.Errorf("nothing to load, got %v", el.loads)
		}
		if el.volumes != before+1 {
			t.Error("volume should be reissued")
		}
	})

	t.Run("Reconnect While Playing", func(t *testing.T) {
		m, elements := newTestManager(t, Deps{})
		s, _ := m.Get("u1")
		el := elements["u1"]
		tr := model.Track{ID: "a", AudioURL: "https://cdn/a.mp3", Duration: 120}

		s.Do(func(store *player.Store, _ *playback.Engine) error {
			store.SetCurrentTrack(tr)
			store.SetIsPlaying(true)
			return nil
		})
		s.HandleEvent(playback.Event{Type: playback.EventCanPlay, Src: tr.AudioURL})
		s.HandleEvent(playback.Event{Type: playback.EventTimeUpdate, Src: tr.AudioURL, Time: 42})
		if el.plays != 1 {
			t.Fatalf("expected first element to play, got %d", el.plays)
		}

		msg, err := s.Attach()
		if err != nil {
			t.Fatalf("attach failed: %v", err)
		}
		var st player.State
		if err := json.Unmarshal(msg.Data, &st); err != nil || !st.IsPlaying || st.Progress != 42 {
			t.Errorf("unexpected attached state %+v (%v)", st, err)
		}
		if len(el.loads) != 2 || el.loads[1] != tr.AudioURL {
			t.Errorf("source should be loaded again, got %v", el.loads)
		}

		_, err = s.Do(func(_ *player.Store, engine *playback.Engine) error {
			return engine.Seek(10)
		})
		if !errors.Is(err, playback.ErrNotReady) {
			t.Errorf("seek before the new element is decodable: expected ErrNotReady, got %v", err)
		}

		s.HandleEvent(playback.Event{Type: playback.EventCanPlay, Src: tr.AudioURL})
		if el.plays != 2 {
			t.Errorf("play should be reissued after canplay, got %d plays", el.plays)
		}
		if len(el.seeks) != 1 || el.seeks[0] != 42 {
			t.Errorf("position should be restored, got seeks %v", el.seeks)
		}
		if p := s.Snapshot().Progress; p != 42 {
			t.Errorf("expected progress 42, got %v", p)
		}
	})

	t.Run("Reconnect While Paused", func(t *testing.T) {
		m, elements := newTestManager(t, Deps{})
		s, _ := m.Get("u1")
		el := elements["u1"]
		tr := model.Track{ID: "a", AudioURL: "https://cdn/a.mp3"}

		s.Do(func(store *player.Store, _ *playback.Engine) error {
			store.SetCurrentTrack(tr)
			return nil
		})
		s.HandleEvent(playback.Event{Type: playback.EventCanPlay, Src: tr.AudioURL})
		s.Attach()
		s.HandleEvent(playback.Event{Type: playback.EventCanPlay, Src: tr.AudioURL})
		if el.plays != 0 {
			t.Errorf("paused session must not start playing, got %d plays", el.plays)
		}
	})
}

func TestStatePushedToHub(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	m, _ := newTestManager(t, Deps{Hub: hub})
	client := &Client{Hub: hub, Send: make(chan []byte, sendBuffer), UserID: "u1"}
	hub.Register(client)

	s, _ := m.Get("u1")
	s.Do(func(store *player.Store, _ *playback.Engine) error {
		store.SetVolume(0.3)
		return nil
	})

	select {
	case raw := <-client.Send:
		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != MsgTypeState {
			t.Fatalf("unexpected frame %s", raw)
		}
		var st player.State
		json.Unmarshal(msg.Data, &st)
		if st.Volume != 0.3 {
			t.Errorf("expected pushed volume 0.3, got %v", st.Volume)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no state pushed")
	}
}
