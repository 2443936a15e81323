package entities

import "errors"

var (
	// ErrNotFound is wrapped by every "unknown id" error in the repositories.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is wrapped when an operation's precondition does not hold.
	ErrInvalidState = errors.New("invalid state")
)
