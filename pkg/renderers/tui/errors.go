package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoMethod is returned when a container offers nothing to submit.
	ErrNoMethod = errors.New("tui: container has no submit method")
	// ErrPasswordRule is returned by the new-password validator.
	ErrPasswordRule = errors.New("password must be at least 8 characters and include a digit, a lowercase and an uppercase letter")
)
