package model

import "errors"

// Error kinds. Every domain error unwraps to exactly one of these.
var (
	ErrValidation       = errors.New("validation error")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidState     = errors.New("invalid state")
	ErrCapacityExceeded = errors.New("capacity exceeded")
)

// Error is a user-facing domain error
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

var (
	ErrUsernameTaken      = &Error{ErrConflict, "username is already registered"}
	ErrInvalidCredentials = &Error{ErrUnauthorized, "invalid username or password"}
	ErrNoToken            = &Error{ErrUnauthorized, "not authorized, no token"}
	ErrInvalidToken       = &Error{ErrUnauthorized, "not authorized, token failed"}
	ErrUserNotFound       = &Error{ErrUnauthorized, "not authorized, user not found"}
	ErrNotCreator         = &Error{ErrUnauthorized, "not authorized, you are not the creator of this session"}
	ErrSessionNotFound    = &Error{ErrNotFound, "session not found"}
	ErrSessionCompleted   = &Error{ErrInvalidState, "session is completed and no longer accepts predictions"}
	ErrSessionFull        = &Error{ErrCapacityExceeded, "session has reached its maximum number of players"}
	ErrAlreadyPredicted   = &Error{ErrConflict, "you have already submitted a prediction for this session"}
)

// Invalid returns a validation error with message
func Invalid(message string) error {
	return &Error{Kind: ErrValidation, Message: message}
}
