package models

import (
	"strings"
	"time"
)

// InviteStatus is the lifecycle status of a campaign invite.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRejected InviteStatus = "rejected"
)

// ParseInviteResponse accepts "accepted"/"accept" and "rejected"/"reject"/"decline".
func ParseInviteResponse(label string) (InviteStatus, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "accepted", "accept":
		return InviteAccepted, nil
	case "rejected", "reject", "declined", "decline":
		return InviteRejected, nil
	}
	return "", newValidationError("invite response must be accepted or rejected, got %q", label)
}

// CampaignInvite offers campaign membership to one user.
type CampaignInvite struct {
	ID              int64        `json:"id"`
	CampaignID      int64        `json:"campaign"`
	InvitedUserID   UserID       `json:"invited_user"`
	InvitedUserName string       `json:"invited_user_name"`
	InvitedByID     UserID       `json:"invited_by"`
	InvitedByName   string       `json:"invited_by_name"`
	Status          InviteStatus `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	RespondedAt     *time.Time   `json:"responded_at"`
}

// NewInvite creates a pending invite. Only the campaign owner may invite.
func NewInvite(campaign *Campaign, inviter, invitee UserID, now time.Time) (*CampaignInvite, error) {
	if err := campaign.RequireOwner(inviter, "send invites"); err != nil {
		return nil, err
	}
	if invitee == 0 {
		return nil, newValidationError("user_id is required")
	}
	return &CampaignInvite{
		CampaignID:    campaign.ID,
		InvitedUserID: invitee,
		InvitedByID:   inviter,
		Status:        InvitePending,
		CreatedAt:     now.UTC(),
	}, nil
}

// Respond resolves a pending invite once. On error the invite is untouched.
// The caller is responsible for adding the invitee to the campaign on accept.
func (i *CampaignInvite) Respond(response InviteStatus, actor UserID, now time.Time) error {
	if response != InviteAccepted && response != InviteRejected {
		return newValidationError("invite response must be accepted or rejected, got %q", string(response))
	}
	if actor != i.InvitedUserID {
		return ErrNotInvitee
	}
	if i.Status != InvitePending {
		return ErrAlreadyResponded
	}

	respondedAt := now.UTC()
	i.Status = response
	i.RespondedAt = &respondedAt
	return nil
}
