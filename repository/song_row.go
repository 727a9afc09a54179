package repository

import (
	"database/sql"

	"Vibe/model"
)

const songColumns = "id, name, artist_name, artist_id, album_name, album_id, album_image, audio_url, duration, user_id, created_at"

// songRow is the raw shape of a songs row. Every column may come back NULL
// from rows written by older clients, so conversion to model.Track goes
// through toTrack which applies the defaults in one place.
type songRow struct {
	ID         sql.NullString  `gorm:"column:id"`
	Name       sql.NullString  `gorm:"column:name"`
	ArtistName sql.NullString  `gorm:"column:artist_name"`
	ArtistID   sql.NullString  `gorm:"column:artist_id"`
	AlbumName  sql.NullString  `gorm:"column:album_name"`
	AlbumID    sql.NullString  `gorm:"column:album_id"`
	AlbumImage sql.NullString  `gorm:"column:album_image"`
	AudioURL   sql.NullString  `gorm:"column:audio_url"`
	Duration   sql.NullFloat64 `gorm:"column:duration"`
	UserID     sql.NullString  `gorm:"column:user_id"`
	CreatedAt  sql.NullTime    `gorm:"column:created_at"`
}

func (r *songRow) scanTargets() []interface{} {
	return []interface{}{
		&r.ID, &r.Name, &r.ArtistName, &r.ArtistID, &r.AlbumName, &r.AlbumID,
		&r.AlbumImage, &r.AudioURL, &r.Duration, &r.UserID, &r.CreatedAt,
	}
}

func (r songRow) toTrack() (model.Track, bool) {
	if !r.ID.Valid || r.ID.String == "" {
		return model.Track{}, false
	}
	t := model.Track{
		ID:         r.ID.String,
		Name:       r.Name.String,
		ArtistName: r.ArtistName.String,
		ArtistID:   r.ArtistID.String,
		AlbumName:  r.AlbumName.String,
		AlbumID:    r.AlbumID.String,
		AlbumImage: r.AlbumImage.String,
		AudioURL:   r.AudioURL.String,
		UserID:     r.UserID.String,
	}
	if r.Duration.Valid && r.Duration.Float64 > 0 {
		t.Duration = r.Duration.Float64
	}
	if r.CreatedAt.Valid {
		t.CreatedAt = r.CreatedAt.Time
	}
	return t, true
}
