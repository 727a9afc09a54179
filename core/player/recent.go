package player

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"Vibe/model"

	bolt "go.etcd.io/bbolt"
)

// MaxRecentlyPlayed caps the recently played history.
const MaxRecentlyPlayed = 50

// recentKey is the fixed key the history is stored under.
const recentKey = "recentlyPlayed"

var bucketRecent = []byte("recently_played")

// RecentStore persists the recently played list. Save overwrites the whole
// list; a Load of corrupt data returns an empty list.
type RecentStore interface {
	Load() ([]model.RecentEntry, error)
	Save(entries []model.RecentEntry) error
	Clear() error
}

// MemoryRecentStore keeps the list in process memory only.
type MemoryRecentStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryRecentStore() *MemoryRecentStore {
	return &MemoryRecentStore{}
}

func (m *MemoryRecentStore) Load() ([]model.RecentEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decodeRecent(m.data), nil
}

func (m *MemoryRecentStore) Save(entries []model.RecentEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryRecentStore) Clear() error {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}

// OpenStateDB opens (creating if needed) the bolt file holding per-user
// device state.
func OpenStateDB(path string) (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecent)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// BoltRecentStore stores one user's history in a nested bucket keyed by the
// user id.
type BoltRecentStore struct {
	db     *bolt.DB
	userID []byte
}

func NewBoltRecentStore(db *bolt.DB, userID string) *BoltRecentStore {
	return &BoltRecentStore{db: db, userID: []byte(userID)}
}

func (s *BoltRecentStore) Load() ([]model.RecentEntry, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketRecent)
		if root == nil {
			return nil
		}
		b := root.Bucket(s.userID)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(recentKey)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return []model.RecentEntry{}, err
	}
	return decodeRecent(data), nil
}

func (s *BoltRecentStore) Save(entries []model.RecentEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(bucketRecent)
		if err != nil {
			return err
		}
		b, err := root.CreateBucketIfNotExists(s.userID)
		if err != nil {
			return err
		}
		return b.Put([]byte(recentKey), data)
	})
}

func (s *BoltRecentStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketRecent)
		if root == nil || root.Bucket(s.userID) == nil {
			return nil
		}
		return root.DeleteBucket(s.userID)
	})
}

// decodeRecent treats anything unparseable as an empty history.
func decodeRecent(data []byte) []model.RecentEntry {
	if len(data) == 0 {
		return []model.RecentEntry{}
	}
	var entries []model.RecentEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return []model.RecentEntry{}
	}
	return normalizeRecent(entries)
}

// normalizeRecent enforces the cap and id uniqueness on loaded history,
// which may have been written by an older version.
func normalizeRecent(entries []model.RecentEntry) []model.RecentEntry {
	out := make([]model.RecentEntry, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
		if len(out) == MaxRecentlyPlayed {
			break
		}
	}
	return out
}
