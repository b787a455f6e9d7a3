package session

import "errors"

var (
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrNotFound        = errors.New("not_found")
	ErrAlreadyResolved = errors.New("already_resolved")
)
