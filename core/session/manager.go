package session

import (
	"errors"
	"sync"

	"Vibe/core/library"
	"Vibe/core/playback"
	"Vibe/core/player"
	"Vibe/logger"
	"Vibe/repository"

	bolt "go.etcd.io/bbolt"
)

// ErrNoUser is returned when a session is requested without a user id.
var ErrNoUser = errors.New("session requires a user id")

// Deps are the shared services every session is built from.
type Deps struct {
	Likes     repository.LikeRepository
	Playlists repository.PlaylistRepository
	Tracks    repository.TrackRepository
	StateDB   *bolt.DB // nil keeps history in memory
	Hub       *Hub
	Policy    library.Policy
}

// Option configures a Manager.
type Option func(*Manager)

// WithElementFactory replaces the WebSocket element of new sessions.
func WithElementFactory(fn func(userID string) playback.Element) Option {
	return func(m *Manager) { m.newElement = fn }
}

// WithPlayerOptions adds options to every new player store.
func WithPlayerOptions(opts ...player.Option) Option {
	return func(m *Manager) { m.playerOpts = append(m.playerOpts, opts...) }
}

// Manager creates sessions on first use and keeps them until Close.
type Manager struct {
	deps       Deps
	newElement func(userID string) playback.Element
	playerOpts []player.Option

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(deps Deps, opts ...Option) *Manager {
	m := &Manager{deps: deps, sessions: make(map[string]*Session)}
	for _, opt := range opts {
		opt(m)
	}
	if m.newElement == nil {
		m.newElement = func(userID string) playback.Element {
			return &hubElement{hub: deps.Hub, userID: userID}
		}
	}
	return m
}

// Hub returns the hub shared by all sessions, if any.
func (m *Manager) Hub() *Hub { return m.deps.Hub }

// Get returns the session of userID, creating it if needed.
func (m *Manager) Get(userID string) (*Session, error) {
	if userID == "" {
		return nil, ErrNoUser
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}

	s := m.build(userID)
	m.sessions[userID] = s
	logger.Info("Session created", logger.String("userId", userID))
	return s, nil
}

func (m *Manager) build(userID string) *Session {
	var recent player.RecentStore
	if m.deps.StateDB != nil {
		recent = player.NewBoltRecentStore(m.deps.StateDB, userID)
	} else {
		recent = player.NewMemoryRecentStore()
	}
	opts := append([]player.Option{player.WithRecentStore(recent)}, m.playerOpts...)
	store := player.NewStore(opts...)

	var libOpts []library.Option
	if m.deps.Policy != nil {
		libOpts = append(libOpts, library.WithPolicy(m.deps.Policy))
	}

	s := &Session{
		UserID:  userID,
		store:   store,
		engine:  playback.NewEngine(store, m.newElement(userID)),
		library: library.New(m.deps.Likes, m.deps.Playlists, m.deps.Tracks, library.StaticIdentity(userID), libOpts...),
	}

	if hub := m.deps.Hub; hub != nil {
		s.stopPush = store.Subscribe(func(player.Change, player.State) {
			// nested notifications can arrive out of order, so push the latest state
			msg, err := NewMessage(MsgTypeState, store.Snapshot())
			if err == nil {
				err = hub.SendToUser(userID, msg)
			}
			if err != nil {
				logger.Warn("Failed to push player state", logger.String("userId", userID), logger.ErrorField(err))
			}
		})
	}
	return s
}

// Drop closes and forgets the session of userID.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
