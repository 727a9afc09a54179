package server

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"Vibe/core/auth"
	"Vibe/core/playback"
	"Vibe/core/session"
	"Vibe/model"
	"Vibe/repository"
	"Vibe/storage"
)

var errRemote = errors.New("remote down")

type fakeTracks struct {
	mu     sync.Mutex
	tracks map[string]model.Track
	order  []string
}

func newFakeTracks(ts ...model.Track) *fakeTracks {
	f := &fakeTracks{tracks: map[string]model.Track{}}
	for _, t := range ts {
		f.CreateTrack(context.Background(), &t)
	}
	return f
}

func (f *fakeTracks) CreateTrack(ctx context.Context, t *model.Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracks[t.ID] = *t
	f.order = append(f.order, t.ID)
	return nil
}

func (f *fakeTracks) GetTrackByID(ctx context.Context, id string) (*model.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tracks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeTracks) ListTracks(ctx context.Context) ([]model.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Track{}
	for _, id := range f.order {
		out = append(out, f.tracks[id])
	}
	return out, nil
}

func (f *fakeTracks) GetTracksByIDs(ctx context.Context, ids []string) ([]model.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Track{}
	// reversed to prove handlers restore the requested order
	for i := len(ids) - 1; i >= 0; i-- {
		if t, ok := f.tracks[ids[i]]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users []*model.User
}

func (f *fakeUsers) CreateUser(ctx context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users = append(f.users, &cp)
	return nil
}

func (f *fakeUsers) find(match func(*model.User) bool) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.ID == id })
}

func (f *fakeUsers) GetUserByUsername(ctx context.Context, name string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Username == name })
}

func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Email == email })
}

type fakeLikes struct {
	mu   sync.Mutex
	rows map[string]map[string]bool
	fail bool
}

func (f *fakeLikes) AddLike(ctx context.Context, userID, songID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errRemote
	}
	if f.rows[userID] == nil {
		f.rows[userID] = map[string]bool{}
	}
	f.rows[userID][songID] = true
	return nil
}

func (f *fakeLikes) RemoveLike(ctx context.Context, userID, songID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errRemote
	}
	delete(f.rows[userID], songID)
	return nil
}

func (f *fakeLikes) LikedSongIDs(ctx context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := []string{}
	for id := range f.rows[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeLikes) LikedTracks(ctx context.Context, userID string) ([]model.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Track{}
	for id := range f.rows[userID] {
		out = append(out, model.Track{ID: id, ArtistName: "Artist " + id})
	}
	return out, nil
}

type fakePlaylists struct {
	mu         sync.Mutex
	stored     map[string]model.Playlist
	failCreate bool
	failDelete bool
}

func (f *fakePlaylists) Create(ctx context.Context, p *model.Playlist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errRemote
	}
	f.stored[p.ID] = p.Clone()
	return nil
}

func (f *fakePlaylists) ListByUser(ctx context.Context, userID string) ([]model.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Playlist{}
	for _, p := range f.stored {
		if p.UserID == userID {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (f *fakePlaylists) Update(ctx context.Context, p model.Playlist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored[p.ID] = p.Clone()
	return nil
}

func (f *fakePlaylists) Delete(ctx context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return errRemote
	}
	if _, ok := f.stored[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.stored, id)
	return nil
}

type fakeUploader struct {
	mu    sync.Mutex
	kinds []storage.Kind
	fail  storage.Kind
}

func (f *fakeUploader) Upload(ctx context.Context, kind storage.Kind, filename string, r io.Reader, size int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if kind == f.fail {
		return "", &storage.UploadError{Kind: kind, Err: errRemote}
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.kinds = append(f.kinds, kind)
	return "https://media.example/" + string(kind) + "/" + filename, nil
}

type fakeAssistant struct {
	content string
	err     error
	prompts []string
}

func (f *fakeAssistant) Ask(ctx context.Context, message string) (string, error) {
	f.prompts = append(f.prompts, message)
	return f.content, f.err
}

func (f *fakeAssistant) RecommendArtists(ctx context.Context, liked []model.Track) ([]model.ArtistRecommendation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []model.ArtistRecommendation{{Name: "Air", Genre: "French house"}}, nil
}

type fakeElement struct{}

func (fakeElement) Load(string)       {}
func (fakeElement) Play() error       { return nil }
func (fakeElement) Pause()            {}
func (fakeElement) Seek(float64)      {}
func (fakeElement) SetVolume(float64) {}

type testEnv struct {
	handler   *APIHandler
	tracks    *fakeTracks
	users     *fakeUsers
	likes     *fakeLikes
	playlists *fakePlaylists
	uploader  *fakeUploader
	assistant *fakeAssistant
	tokens    *auth.TokenManager
	sessions  *session.Manager
}

func newTestEnv(tracks ...model.Track) *testEnv {
	env := &testEnv{
		tracks:    newFakeTracks(tracks...),
		users:     &fakeUsers{},
		likes:     &fakeLikes{rows: map[string]map[string]bool{}},
		playlists: &fakePlaylists{stored: map[string]model.Playlist{}},
		uploader:  &fakeUploader{},
		assistant: &fakeAssistant{content: "Try Air."},
		tokens:    auth.NewTokenManager("test-secret", time.Hour),
	}
	env.sessions = session.NewManager(session.Deps{
		Likes:     env.likes,
		Playlists: env.playlists,
		Tracks:    env.tracks,
	}, session.WithElementFactory(func(string) playback.Element { return fakeElement{} }))

	env.handler = NewAPIHandler(Deps{
		Tracks:    env.tracks,
		Users:     env.users,
		Uploader:  env.uploader,
		Assistant: env.assistant,
		Tokens:    env.tokens,
		Sessions:  env.sessions,
	})
	return env
}

func (env *testEnv) token(userID string) string {
	tok, err := env.tokens.GenerateToken(userID, "user-"+userID)
	if err != nil {
		panic(err)
	}
	return tok
}
