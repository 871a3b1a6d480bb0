package models

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle status of a campaign character.
type Status string

const (
	StatusDraft   Status = "DRAFT"
	StatusActive  Status = "ACTIVE"
	StatusDead    Status = "DEAD"
	StatusRetired Status = "RETIRED"
	StatusRemoved Status = "REMOVED"
)

// Statuses lists every status in declaration order.
var Statuses = []Status{StatusDraft, StatusActive, StatusDead, StatusRetired, StatusRemoved}

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusDead, StatusRetired, StatusRemoved:
		return true
	}
	return false
}

// ParseStatus converts a label such as "active" to a Status.
func ParseStatus(label string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(label)))
	if !s.Valid() {
		return "", newValidationError("unknown character status %q", label)
	}
	return s, nil
}

// approver names who may authorize a transition.
type approver int

const (
	approverCharacterOwner approver = iota + 1
	approverCampaignOwner
)

type transition struct {
	from Status
	to   Status
}

type transitionRule struct {
	approver approver
	denial   string
}

// transitions is the full set of allowed status changes. Pairs that are not
// listed (DEAD→RETIRED, RETIRED→DEAD, DRAFT→anything but ACTIVE, ...) are invalid.
// REMOVED is handled before this table is consulted.
var transitions = map[transition]transitionRule{
	{StatusDraft, StatusActive}: {
		approver: approverCharacterOwner,
		denial:   "only the character's player can activate a draft character",
	},
	{StatusActive, StatusDead}: {
		approver: approverCampaignOwner,
		denial:   "only the campaign owner can mark a character as dead",
	},
	{StatusActive, StatusRemoved}: {
		approver: approverCampaignOwner,
		denial:   "only the campaign owner can remove a character from the campaign",
	},
	{StatusActive, StatusRetired}: {
		approver: approverCharacterOwner,
		denial:   "only the character's player can retire a character",
	},
	{StatusDead, StatusActive}: {
		approver: approverCampaignOwner,
		denial:   "only the campaign owner can bring a dead character back",
	},
	{StatusRetired, StatusActive}: {
		approver: approverCampaignOwner,
		denial:   "only the campaign owner can reactivate a retired character",
	},
}

// CanChangeStatus decides whether actor may move c to requested. campaignOwner is
// the owner of the campaign c belongs to. It returns nil, an *InvalidTransitionError
// or an *AuthorizationError.
func CanChangeStatus(c *Character, campaignOwner UserID, requested Status, actor UserID) error {
	if !requested.Valid() {
		return newValidationError("unknown character status %q", string(requested))
	}
	if requested == c.Status {
		return &InvalidTransitionError{
			From:    c.Status,
			To:      requested,
			Message: "character already has that status",
		}
	}

	if c.Status == StatusRemoved {
		if actor != campaignOwner {
			return &AuthorizationError{Message: "only the campaign owner can change the status of a removed character"}
		}
		return nil
	}

	rule, ok := transitions[transition{from: c.Status, to: requested}]
	if !ok {
		return &InvalidTransitionError{
			From:    c.Status,
			To:      requested,
			Message: "invalid status transition",
		}
	}

	var required UserID
	switch rule.approver {
	case approverCharacterOwner:
		required = c.UserID
	case approverCampaignOwner:
		required = campaignOwner
	}
	if actor != required {
		return &AuthorizationError{Message: rule.denial}
	}
	return nil
}

// ChangeStatus applies an authorized transition to c and returns the log entry
// that has to be stored together with the new status. On error c is untouched.
func ChangeStatus(c *Character, campaignOwner UserID, requested Status, actor UserID, now time.Time) (*CampaignLog, error) {
	if err := CanChangeStatus(c, campaignOwner, requested, actor); err != nil {
		return nil, err
	}

	old := c.Status
	c.Status = requested

	actorID := actor
	return &CampaignLog{
		CampaignID: c.CampaignID,
		ActorID:    &actorID,
		Message:    TransitionMessage(c.Name, old, requested),
		CreatedAt:  now.UTC(),
	}, nil
}

// TransitionMessage renders the campaign log line for a status change.
func TransitionMessage(name string, from, to Status) string {
	return fmt.Sprintf("%s: %s → %s", name, from, to)
}
