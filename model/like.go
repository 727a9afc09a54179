package model

import "time"

// LikedRelation marks that a user has favorited a track. At most one row
// exists per (user, song) pair.
type LikedRelation struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id" gorm:"size:64;not null;uniqueIndex:uq_liked_user_song"`
	SongID    string    `json:"song_id" gorm:"size:64;not null;uniqueIndex:uq_liked_user_song;index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName pins the GORM table name.
func (LikedRelation) TableName() string {
	return "liked_songs"
}
