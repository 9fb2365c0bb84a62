package textdrop_errors

import "errors"

// Common errors
var (
	ErrNotFound       = errors.New("session not found")
	ErrInvalidState   = errors.New("operation not valid for session state")
	ErrTypeNotAllowed = errors.New("file type not allowed")
	ErrTooLarge       = errors.New("file too large")
	ErrInvalidIndex   = errors.New("chunk index out of range")
	ErrNoFileYet      = errors.New("no file uploaded yet")
)
