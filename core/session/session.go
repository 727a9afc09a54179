package session

import (
	"sync"

	"Vibe/core/library"
	"Vibe/core/playback"
	"Vibe/core/player"
	"Vibe/logger"
)

// Session is the application state of one signed-in user. Player and
// engine calls are serialized by mu; the library guards itself.
type Session struct {
	UserID string

	mu      sync.Mutex
	store   *player.Store
	engine  *playback.Engine
	library *library.Library

	stopPush func()
}

// Do runs fn with exclusive access to the player and engine and returns
// the resulting state.
func (s *Session) Do(fn func(store *player.Store, engine *playback.Engine) error) (player.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := fn(s.store, s.engine)
	return s.store.Snapshot(), err
}

// Snapshot returns the current player state.
func (s *Session) Snapshot() player.State {
	return s.store.Snapshot()
}

// HandleEvent feeds a media event from the element into the engine.
func (s *Session) HandleEvent(ev playback.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Dispatch(ev)
}

// Library returns the user's likes and playlists.
func (s *Session) Library() *library.Library {
	return s.library
}

// Store exposes the player store for observers outside the session.
func (s *Session) Store() *player.Store {
	return s.store
}

// Attach prepares the session for a newly connected element. The engine
// reissues load and volume through the element; the returned state message
// is for the new connection only.
func (s *Session) Attach() (*WSMessage, error) {
	s.mu.Lock()
	s.engine.Reattach()
	s.mu.Unlock()
	return NewMessage(MsgTypeState, s.store.Snapshot())
}

// Close detaches the engine; later media events are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopPush != nil {
		s.stopPush()
		s.stopPush = nil
	}
	s.engine.Detach()
	logger.Debug("Session closed", logger.String("userId", s.UserID))
}
