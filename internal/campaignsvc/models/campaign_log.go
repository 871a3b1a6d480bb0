package models

import "time"

// CampaignLog is an append-only campaign event line.
type CampaignLog struct {
	ID         int64     `json:"id"`
	CampaignID int64     `json:"campaign"`
	ActorID    *UserID   `json:"user"` // nil once the actor is deleted
	ActorName  string    `json:"user_name,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
