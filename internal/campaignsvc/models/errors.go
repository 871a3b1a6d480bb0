package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced record does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyResponded indicates an invite that is no longer pending.
	ErrAlreadyResponded = errors.New("invite has already been responded to")
	// ErrNotInvitee indicates a response from someone other than the invited user.
	ErrNotInvitee = errors.New("only the invited user can respond to this invite")
	// ErrInviteExists indicates a second invite for the same campaign and user.
	ErrInviteExists = errors.New("user has already been invited to this campaign")
	// ErrCharacterExists indicates a second character for the same user in a campaign.
	ErrCharacterExists = errors.New("user already has a character in this campaign")
	// ErrInvalidProficiencyLevel indicates a proficiency level outside 0, 1, 2.
	ErrInvalidProficiencyLevel = errors.New("proficiency level must be 0, 1 or 2")
)

// ValidationError reports malformed input. It is never corrected silently.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// AuthorizationError reports an actor lacking permission for an otherwise valid action.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// InvalidTransitionError reports a status change that nobody may perform.
type InvalidTransitionError struct {
	From    Status
	To      Status
	Message string
}

func (e *InvalidTransitionError) Error() string {
	return e.Message
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
