package task

import "errors"

var (
	// ErrInvalidFilter indicates a filter name other than all, active or completed.
	ErrInvalidFilter = errors.New("invalid task filter")
	// ErrInvalidData indicates a stored task list that cannot be used.
	ErrInvalidData = errors.New("invalid stored task list")
)
