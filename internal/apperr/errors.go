package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrLocked   = errors.New("vault locked by another process")
)
