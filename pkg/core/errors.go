package core

import "errors"

// Common errors.
var (
	ErrNoStorage   = errors.New("storage is not available")
	ErrNotFound    = errors.New("document not found")
	ErrInvalidTime = errors.New("invalid time, use HH:MM")
	ErrAsleep      = errors.New("device is asleep")
)
