package repository

import (
	"context"
	"fmt"

	"Vibe/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository persists user/track like rows.
type LikeRepository interface {
	AddLike(ctx context.Context, userID, songID string) error
	RemoveLike(ctx context.Context, userID, songID string) error
	LikedSongIDs(ctx context.Context, userID string) ([]string, error)
	LikedTracks(ctx context.Context, userID string) ([]model.Track, error)
}

type gormLikeRepository struct {
	db *gorm.DB
}

// NewGormLikeRepository returns a LikeRepository backed by gdb.
func NewGormLikeRepository(db *gorm.DB) LikeRepository {
	return &gormLikeRepository{db: db}
}

// AddLike inserts the relation. An existing relation is left as is, so the
// pair can never be duplicated.
func (r *gormLikeRepository) AddLike(ctx context.Context, userID, songID string) error {
	rel := model.LikedRelation{UserID: userID, SongID: songID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rel).Error
	if err != nil {
		return fmt.Errorf("failed to like song %s for user %s: %w", songID, userID, err)
	}
	return nil
}

// RemoveLike deletes the relation; deleting an absent relation is not an error.
func (r *gormLikeRepository) RemoveLike(ctx context.Context, userID, songID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND song_id = ?", userID, songID).
		Delete(&model.LikedRelation{}).Error
	if err != nil {
		return fmt.Errorf("failed to unlike song %s for user %s: %w", songID, userID, err)
	}
	return nil
}

// LikedSongIDs returns the ids of every song the user has liked.
func (r *gormLikeRepository) LikedSongIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).
		Model(&model.LikedRelation{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("song_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list liked songs for user %s: %w", userID, err)
	}
	return ids, nil
}

// LikedTracks joins the user's liked relations with the songs table.
func (r *gormLikeRepository) LikedTracks(ctx context.Context, userID string) ([]model.Track, error) {
	var rows []songRow
	err := r.db.WithContext(ctx).
		Table("liked_songs").
		Select("songs.id, songs.name, songs.artist_name, songs.artist_id, songs.album_name, songs.album_id, songs.album_image, songs.audio_url, songs.duration, songs.user_id, songs.created_at").
		Joins("JOIN songs ON songs.id = liked_songs.song_id").
		Where("liked_songs.user_id = ?", userID).
		Order("liked_songs.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load liked tracks for user %s: %w", userID, err)
	}

	tracks := make([]model.Track, 0, len(rows))
	for _, row := range rows {
		if t, ok := row.toTrack(); ok {
			tracks = append(tracks, t)
		}
	}
	return tracks, nil
}
