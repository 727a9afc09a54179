package repository

import (
	"context"
	"fmt"
	"time"

	"Vibe/model"

	"gorm.io/gorm"
)

// PlaylistRepository persists playlists per user.
type PlaylistRepository interface {
	Create(ctx context.Context, p *model.Playlist) error
	ListByUser(ctx context.Context, userID string) ([]model.Playlist, error)
	Update(ctx context.Context, p model.Playlist) error
	Delete(ctx context.Context, id, userID string) error
}

// playlistRecord is the playlists table row. The track list is stored as an
// embedded JSON column.
type playlistRecord struct {
	ID          string          `gorm:"primaryKey;size:36"`
	Name        string          `gorm:"size:255;not null"`
	Description string          `gorm:"type:text"`
	Image       string          `gorm:"size:1024"`
	Tracks      model.TrackList `gorm:"type:longtext"`
	UserID      string          `gorm:"size:64;not null;index"`
	CreatedAt   time.Time       `gorm:"index"`
}

// TableName pins the GORM table name.
func (playlistRecord) TableName() string {
	return "playlists"
}

func newPlaylistRecord(p model.Playlist) playlistRecord {
	return playlistRecord{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Image:       p.Image,
		Tracks:      model.TrackList(model.DedupTracks(p.Tracks)),
		UserID:      p.UserID,
		CreatedAt:   p.CreatedAt,
	}
}

func (r playlistRecord) toModel() model.Playlist {
	tracks := []model.Track(r.Tracks)
	if tracks == nil {
		tracks = []model.Track{}
	}
	return model.Playlist{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Image:       r.Image,
		Tracks:      tracks,
		UserID:      r.UserID,
		CreatedAt:   r.CreatedAt,
	}
}

// Models lists the GORM models owned by this package for AutoMigrate.
func Models() []interface{} {
	return []interface{}{&playlistRecord{}, &model.LikedRelation{}}
}

// gormPlaylistRepository stores playlists through GORM.
type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository returns a PlaylistRepository backed by gdb.
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

// Create inserts a playlist whose id and timestamp were generated by the caller.
func (r *gormPlaylistRepository) Create(ctx context.Context, p *model.Playlist) error {
	rec := newPlaylistRecord(*p)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create playlist %s: %w", p.ID, err)
	}
	return nil
}

// ListByUser returns the user's playlists, newest first.
func (r *gormPlaylistRepository) ListByUser(ctx context.Context, userID string) ([]model.Playlist, error) {
	var recs []playlistRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists for user %s: %w", userID, err)
	}

	out := make([]model.Playlist, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toModel())
	}
	return out, nil
}

// Update writes the mutable fields of p. The owner check is part of the filter.
func (r *gormPlaylistRepository) Update(ctx context.Context, p model.Playlist) error {
	rec := newPlaylistRecord(p)
	err := r.db.WithContext(ctx).
		Model(&playlistRecord{}).
		Where("id = ? AND user_id = ?", p.ID, p.UserID).
		Updates(map[string]interface{}{
			"name":        rec.Name,
			"description": rec.Description,
			"image":       rec.Image,
			"tracks":      rec.Tracks,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update playlist %s: %w", p.ID, err)
	}
	return nil
}

// Delete removes the playlist. ErrNotFound is returned when nothing matched.
func (r *gormPlaylistRepository) Delete(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&playlistRecord{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete playlist %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("playlist %s: %w", id, ErrNotFound)
	}
	return nil
}
