package comm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// event types published on the campaign events subject
const (
	TypeCharacterStatusChanged = "character.status-changed"
	TypeInviteSent             = "invite.sent"
	TypeInviteResponded        = "invite.responded"
)

// Event is the envelope every campaign service message travels in.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	CampaignID int64           `json:"campaign_id"`
	ActorID    int64           `json:"actor_id"`
	Source     string          `json:"source"` // publishing service instance
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh event id.
func NewEvent(eventType string, campaignID, actorID int64, data any) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		CampaignID: campaignID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}, nil
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

type StatusChange struct {
	CharacterID   int64  `json:"character_id"`
	CharacterName string `json:"character_name"`
	From          string `json:"from"`
	To            string `json:"to"`
	LogID         int64  `json:"log_id"`
	Message       string `json:"message"`
}

type InviteData struct {
	InviteID      int64  `json:"invite_id"`
	InvitedUserID int64  `json:"invited_user_id"`
	InvitedByID   int64  `json:"invited_by_id"`
	Status        string `json:"status"`
}
