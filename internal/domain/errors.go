package domain

import "errors"

// Storage-level outcomes shared by every repository implementation.
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate record")
	ErrStatusConflict = errors.New("status changed concurrently")
)
