package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"Vibe/logger"
	"Vibe/model"
	"Vibe/repository"

	"github.com/google/uuid"
)

// Identity resolves the signed-in user.
type Identity interface {
	CurrentUser(ctx context.Context) (userID string, ok bool)
}

// StaticIdentity is an Identity for a session bound to one user.
type StaticIdentity string

func (s StaticIdentity) CurrentUser(context.Context) (string, bool) {
	return string(s), s != ""
}

// NewPlaylist is the input of CreatePlaylist.
type NewPlaylist struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Image       string        `json:"image"`
	Tracks      []model.Track `json:"tracks"`
}

// Option configures a Library.
type Option func(*Library)

// WithPolicy overrides the confirmation policy.
func WithPolicy(p Policy) Option {
	return func(l *Library) { l.policy = p }
}

// WithIDGenerator sets the playlist id generator.
func WithIDGenerator(fn func() string) Option {
	return func(l *Library) { l.newID = fn }
}

// WithClock sets the time source for playlist creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Library) { l.now = now }
}

// Library keeps the liked tracks and playlists of one user consistent with
// the remote data service.
type Library struct {
	likes     repository.LikeRepository
	playlists repository.PlaylistRepository
	tracks    repository.TrackRepository
	identity  Identity
	policy    Policy
	newID     func() string
	now       func() time.Time

	mu              sync.Mutex
	likedTracks     []model.Track
	playlistList    []model.Playlist
	playlistsLoaded bool
	allTracks       []model.Track
}

// New creates an empty Library.
func New(likes repository.LikeRepository, playlists repository.PlaylistRepository, tracks repository.TrackRepository, identity Identity, opts ...Option) *Library {
	l := &Library{
		likes:        likes,
		playlists:    playlists,
		tracks:       tracks,
		identity:     identity,
		policy:       DefaultPolicy(),
		newID:        uuid.NewString,
		now:          time.Now,
		likedTracks:  []model.Track{},
		playlistList: []model.Playlist{},
		allTracks:    []model.Track{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Policy returns the confirmation policy in effect.
func (l *Library) Policy() Policy { return l.policy }

func (l *Library) currentUser(ctx context.Context) (string, error) {
	if l.identity == nil {
		return "", ErrUnauthenticated
	}
	uid, ok := l.identity.CurrentUser(ctx)
	if !ok || uid == "" {
		return "", ErrUnauthenticated
	}
	return uid, nil
}

// ========== Likes ==========

// IsLiked reports whether trackID is in the local liked collection.
func (l *Library) IsLiked(trackID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return model.ContainsTrack(l.likedTracks, trackID)
}

// LikedTracks returns a copy of the local liked collection.
func (l *Library) LikedTracks() []model.Track {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Track{}, l.likedTracks...)
}

// ToggleLike flips the liked state of track for userID and returns the new
// state. The remote write happens first; on failure the local state is left
// unchanged and a *RemoteError is returned. Empty ids make it a no-op.
//
// The liked state is read from the local collection, so toggles racing from
// several devices may disagree until the next LoadLikedTracks.
func (l *Library) ToggleLike(ctx context.Context, userID string, track model.Track) (bool, error) {
	if userID == "" || track.ID == "" {
		logger.Warn("Ignoring like toggle with missing ids",
			logger.String("userId", userID),
			logger.String("trackId", track.ID))
		return l.IsLiked(track.ID), nil
	}

	if l.IsLiked(track.ID) {
		if err := l.likes.RemoveLike(ctx, userID, track.ID); err != nil {
			logger.Error("Failed to remove like", logger.String("userId", userID), logger.String("trackId", track.ID), logger.ErrorField(err))
			return true, &RemoteError{Op: OpUnlike, Err: err}
		}
		l.mu.Lock()
		if i := model.IndexOfTrack(l.likedTracks, track.ID); i >= 0 {
			l.likedTracks = append(l.likedTracks[:i:i], l.likedTracks[i+1:]...)
		}
		l.mu.Unlock()
		return false, nil
	}

	if err := l.likes.AddLike(ctx, userID, track.ID); err != nil {
		logger.Error("Failed to add like", logger.String("userId", userID), logger.String("trackId", track.ID), logger.ErrorField(err))
		return false, &RemoteError{Op: OpLike, Err: err}
	}
	l.mu.Lock()
	if !model.ContainsTrack(l.likedTracks, track.ID) {
		l.likedTracks = append(l.likedTracks, track)
	}
	l.mu.Unlock()
	return true, nil
}

// LoadLikedTracks replaces the local liked collection with the tracks of
// allTracks the user has liked remotely. This is the reconciliation point
// for any drift left by ToggleLike.
func (l *Library) LoadLikedTracks(ctx context.Context, userID string, allTracks []model.Track) error {
	if userID == "" {
		return ErrInvalidInput
	}
	ids, err := l.likes.LikedSongIDs(ctx, userID)
	if err != nil {
		logger.Error("Failed to load liked ids", logger.String("userId", userID), logger.ErrorField(err))
		return &RemoteError{Op: OpFetchLikes, Err: err}
	}

	likedSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		likedSet[id] = struct{}{}
	}
	liked := make([]model.Track, 0, len(ids))
	for _, t := range allTracks {
		if _, ok := likedSet[t.ID]; ok {
			liked = append(liked, t)
		}
	}

	l.mu.Lock()
	l.allTracks = append([]model.Track{}, allTracks...)
	l.likedTracks = model.DedupTracks(liked)
	l.mu.Unlock()
	return nil
}

// FetchLikedTracks loads the current user's liked tracks joined with their
// track rows and replaces the local collection.
func (l *Library) FetchLikedTracks(ctx context.Context) ([]model.Track, error) {
	uid, err := l.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	tracks, err := l.likes.LikedTracks(ctx, uid)
	if err != nil {
		logger.Error("Failed to fetch liked tracks", logger.String("userId", uid), logger.ErrorField(err))
		return nil, &RemoteError{Op: OpFetchLikes, Err: err}
	}

	tracks = model.DedupTracks(tracks)
	l.mu.Lock()
	l.likedTracks = tracks
	l.mu.Unlock()
	return append([]model.Track{}, tracks...), nil
}

// ========== Tracks ==========

// FetchTracks loads the catalog and remembers it as the track set used for
// like reconciliation.
func (l *Library) FetchTracks(ctx context.Context) ([]model.Track, error) {
	tracks, err := l.tracks.ListTracks(ctx)
	if err != nil {
		logger.Error("Failed to fetch tracks", logger.ErrorField(err))
		return nil, fmt.Errorf("fetch tracks: %w", err)
	}
	l.mu.Lock()
	l.allTracks = tracks
	l.mu.Unlock()
	return append([]model.Track{}, tracks...), nil
}

// AllTracks returns the last fetched catalog.
func (l *Library) AllTracks() []model.Track {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Track{}, l.allTracks...)
}

// ========== Playlists ==========

// Playlists returns a copy of the local playlist collection.
func (l *Library) Playlists() []model.Playlist {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Playlist, len(l.playlistList))
	for i, p := range l.playlistList {
		out[i] = p.Clone()
	}
	return out
}

// Playlist returns the local playlist with the given id.
func (l *Library) Playlist(id string) (model.Playlist, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOfPlaylist(id); i >= 0 {
		return l.playlistList[i].Clone(), true
	}
	return model.Playlist{}, false
}

func (l *Library) indexOfPlaylist(id string) int {
	for i := range l.playlistList {
		if l.playlistList[i].ID == id {
			return i
		}
	}
	return -1
}

// FetchPlaylists replaces the local collection with the current user's
// playlists, newest first.
func (l *Library) FetchPlaylists(ctx context.Context) ([]model.Playlist, error) {
	uid, err := l.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	list, err := l.playlists.ListByUser(ctx, uid)
	if err != nil {
		logger.Error("Failed to fetch playlists", logger.String("userId", uid), logger.ErrorField(err))
		return nil, &RemoteError{Op: OpFetchPlaylists, Err: err}
	}

	l.mu.Lock()
	l.playlistList = list
	l.playlistsLoaded = true
	l.mu.Unlock()
	return l.Playlists(), nil
}

func (l *Library) ensurePlaylists(ctx context.Context) error {
	l.mu.Lock()
	loaded := l.playlistsLoaded
	l.mu.Unlock()
	if loaded {
		return nil
	}
	_, err := l.FetchPlaylists(ctx)
	return err
}

// CreatePlaylist creates a playlist with a client-generated id and
// timestamp and prepends it to the local collection without refetching.
func (l *Library) CreatePlaylist(ctx context.Context, in NewPlaylist) (model.Playlist, error) {
	uid, err := l.currentUser(ctx)
	if err != nil {
		return model.Playlist{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Playlist{}, fmt.Errorf("%w: playlist name is required", ErrInvalidInput)
	}
	if len(in.Tracks) == 0 {
		return model.Playlist{}, fmt.Errorf("%w: at least one track is required", ErrInvalidInput)
	}

	p := model.Playlist{
		ID:          l.newID(),
		Name:        name,
		Description: in.Description,
		Image:       in.Image,
		Tracks:      model.DedupTracks(in.Tracks),
		UserID:      uid,
		CreatedAt:   l.now(),
	}
	if p.Image == "" {
		p.Image = p.Tracks[0].AlbumImage
	}

	prepend := func() {
		l.mu.Lock()
		l.playlistList = append([]model.Playlist{p.Clone()}, l.playlistList...)
		l.mu.Unlock()
	}

	confirmed := l.policy.For(OpCreatePlaylist) == Confirmed
	if !confirmed {
		prepend()
	}
	if err := l.playlists.Create(ctx, &p); err != nil {
		logger.Error("Failed to create playlist", logger.String("playlistId", p.ID), logger.String("userId", uid), logger.ErrorField(err))
		if confirmed {
			return model.Playlist{}, &RemoteError{Op: OpCreatePlaylist, Err: err}
		}
		return p, &RemoteError{Op: OpCreatePlaylist, Err: err}
	}
	if confirmed {
		prepend()
	}
	return p, nil
}

// AddToPlaylist appends track unless a track with the same id is present.
func (l *Library) AddToPlaylist(ctx context.Context, playlistID string, track model.Track) (model.Playlist, error) {
	if track.ID == "" {
		return model.Playlist{}, fmt.Errorf("%w: track id is required", ErrInvalidInput)
	}
	return l.mutatePlaylist(ctx, OpAddTrack, playlistID, func(p model.Playlist) (model.Playlist, bool) {
		if model.ContainsTrack(p.Tracks, track.ID) {
			return p, false
		}
		p.Tracks = append(p.Tracks, track)
		return p, true
	})
}

// RemoveFromPlaylist drops the track with trackID from the playlist.
func (l *Library) RemoveFromPlaylist(ctx context.Context, playlistID, trackID string) (model.Playlist, error) {
	return l.mutatePlaylist(ctx, OpRemoveTrack, playlistID, func(p model.Playlist) (model.Playlist, bool) {
		i := model.IndexOfTrack(p.Tracks, trackID)
		if i < 0 {
			return p, false
		}
		p.Tracks = append(p.Tracks[:i:i], p.Tracks[i+1:]...)
		return p, true
	})
}

// UpdatePlaylist applies a partial update.
func (l *Library) UpdatePlaylist(ctx context.Context, playlistID string, upd model.PlaylistUpdate) (model.Playlist, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return model.Playlist{}, fmt.Errorf("%w: playlist name cannot be empty", ErrInvalidInput)
	}
	return l.mutatePlaylist(ctx, OpUpdatePlaylist, playlistID, func(p model.Playlist) (model.Playlist, bool) {
		return upd.Apply(p), true
	})
}

// mutatePlaylist applies fn to a copy of the playlist and writes the result
// according to the policy for op.
func (l *Library) mutatePlaylist(ctx context.Context, op Op, playlistID string, fn func(model.Playlist) (model.Playlist, bool)) (model.Playlist, error) {
	if err := l.ensurePlaylists(ctx); err != nil {
		return model.Playlist{}, err
	}

	current, ok := l.Playlist(playlistID)
	if !ok {
		return model.Playlist{}, ErrPlaylistNotFound
	}
	updated, changed := fn(current)
	if !changed {
		return current, nil
	}

	replace := func() {
		l.mu.Lock()
		if i := l.indexOfPlaylist(playlistID); i >= 0 {
			l.playlistList[i] = updated.Clone()
		}
		l.mu.Unlock()
	}

	confirmed := l.policy.For(op) == Confirmed
	if !confirmed {
		replace()
	}
	if err := l.playlists.Update(ctx, updated); err != nil {
		logger.Error("Failed to write playlist", logger.String("op", string(op)), logger.String("playlistId", playlistID), logger.ErrorField(err))
		if confirmed {
			return current, &RemoteError{Op: op, Err: err}
		}
		return updated, &RemoteError{Op: op, Err: err}
	}
	if confirmed {
		replace()
	}
	return updated, nil
}

// DeletePlaylist removes a playlist. Under the default policy the local copy
// is removed only after the remote delete succeeds.
func (l *Library) DeletePlaylist(ctx context.Context, playlistID string) error {
	uid, err := l.currentUser(ctx)
	if err != nil {
		return err
	}
	if err := l.ensurePlaylists(ctx); err != nil {
		return err
	}
	if _, ok := l.Playlist(playlistID); !ok {
		return ErrPlaylistNotFound
	}

	remove := func() {
		l.mu.Lock()
		if i := l.indexOfPlaylist(playlistID); i >= 0 {
			l.playlistList = append(l.playlistList[:i:i], l.playlistList[i+1:]...)
		}
		l.mu.Unlock()
	}

	confirmed := l.policy.For(OpDeletePlaylist) == Confirmed
	if !confirmed {
		remove()
	}
	if err := l.playlists.Delete(ctx, playlistID, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// already gone remotely
			remove()
			return nil
		}
		logger.Error("Failed to delete playlist", logger.String("playlistId", playlistID), logger.String("userId", uid), logger.ErrorField(err))
		return &RemoteError{Op: OpDeletePlaylist, Err: err}
	}
	if confirmed {
		remove()
	}
	return nil
}
