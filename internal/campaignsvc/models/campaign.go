package models

import (
	"strings"
	"time"
)

// Campaign is a game container owned by one game-master with zero or more players.
type Campaign struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	OwnerID      UserID    `json:"owner"`
	OwnerName    string    `json:"owner_name"`
	Players      []UserID  `json:"players"`
	PlayersCount int       `json:"players_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// CampaignInput is the writable part of a campaign.
type CampaignInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Normalize trims and validates campaign input.
func (in CampaignInput) Normalize() (CampaignInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return CampaignInput{}, newValidationError("campaign name is required")
	}
	if len(in.Name) > MaxNameLength {
		return CampaignInput{}, newValidationError("campaign name must be at most %d characters", MaxNameLength)
	}
	return in, nil
}

func (c *Campaign) IsOwner(u UserID) bool {
	return u != 0 && c.OwnerID == u
}

func (c *Campaign) IsPlayer(u UserID) bool {
	for _, p := range c.Players {
		if p == u {
			return true
		}
	}
	return false
}

// IsMember is true for the owner and for every player.
func (c *Campaign) IsMember(u UserID) bool {
	return c.IsOwner(u) || c.IsPlayer(u)
}

// AddPlayer adds u to the player set. Adding an existing player is a no-op and returns false.
func (c *Campaign) AddPlayer(u UserID) bool {
	if c.IsPlayer(u) {
		return false
	}
	c.Players = append(c.Players, u)
	c.PlayersCount = len(c.Players)
	return true
}

// RequireOwner returns an AuthorizationError unless u owns the campaign.
func (c *Campaign) RequireOwner(u UserID, action string) error {
	if !c.IsOwner(u) {
		return &AuthorizationError{Message: "only the campaign owner can " + action}
	}
	return nil
}
