package repository

import (
	"context"

	"Vibe/logger"
	"Vibe/model"
)

// LikeIDCache caches a user's liked song ids.
type LikeIDCache interface {
	Get(ctx context.Context, userID string) (ids []string, ok bool, err error)
	Set(ctx context.Context, userID string, ids []string) error
	Invalidate(ctx context.Context, userID string) error
}

// cachedLikeRepository serves LikedSongIDs from a cache and invalidates on
// every write. Cache errors never fail the call; the store is authoritative.
type cachedLikeRepository struct {
	LikeRepository
	cache LikeIDCache
}

// NewCachedLikeRepository wraps inner with a liked-id cache.
func NewCachedLikeRepository(inner LikeRepository, cache LikeIDCache) LikeRepository {
	return &cachedLikeRepository{LikeRepository: inner, cache: cache}
}

func (r *cachedLikeRepository) AddLike(ctx context.Context, userID, songID string) error {
	if err := r.LikeRepository.AddLike(ctx, userID, songID); err != nil {
		return err
	}
	r.invalidate(ctx, userID)
	return nil
}

func (r *cachedLikeRepository) RemoveLike(ctx context.Context, userID, songID string) error {
	if err := r.LikeRepository.RemoveLike(ctx, userID, songID); err != nil {
		return err
	}
	r.invalidate(ctx, userID)
	return nil
}

func (r *cachedLikeRepository) LikedSongIDs(ctx context.Context, userID string) ([]string, error) {
	ids, ok, err := r.cache.Get(ctx, userID)
	if err != nil {
		logger.Warn("Liked id cache read failed", logger.String("userId", userID), logger.ErrorField(err))
	} else if ok {
		return ids, nil
	}

	ids, err = r.LikeRepository.LikedSongIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, userID, ids); err != nil {
		logger.Warn("Liked id cache write failed", logger.String("userId", userID), logger.ErrorField(err))
	}
	return ids, nil
}

func (r *cachedLikeRepository) LikedTracks(ctx context.Context, userID string) ([]model.Track, error) {
	return r.LikeRepository.LikedTracks(ctx, userID)
}

func (r *cachedLikeRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Invalidate(ctx, userID); err != nil {
		logger.Warn("Liked id cache invalidation failed", logger.String("userId", userID), logger.ErrorField(err))
	}
}
