package swiss

import "errors"

var (
	// ErrInvalidState is returned when a lifecycle operation is not allowed in
	// the tournament's current state. Callers report it to the user.
	ErrInvalidState = errors.New("invalid tournament state")

	// ErrForbidden is returned when the actor may not perform the operation.
	// No state has been changed when it is returned.
	ErrForbidden = errors.New("operation not allowed for the current user")

	ErrNotFound      = errors.New("requested resource not found")
	ErrInvalidResult = errors.New("invalid match result")
	ErrInvalidInput  = errors.New("invalid input")
)
