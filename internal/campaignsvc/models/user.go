package models

import (
	"time"
)

// UserID is the opaque identity of an authenticated user. Zero means "nobody".
type UserID int64

// User represents the users table in the database.
type User struct {
	UserId    UserID    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
