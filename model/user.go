package model

import (
	"strings"
	"time"
)

// User is an account. Its id is the value carried in the JWT subject and
// used as the owner of playlists, likes and uploaded tracks.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LooksLikeEmail reports whether a login identifier should be matched
// against emails rather than usernames. Usernames may not contain '@'.
func LooksLikeEmail(identifier string) bool {
	return strings.Contains(identifier, "@")
}
