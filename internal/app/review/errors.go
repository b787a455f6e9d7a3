package review

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid_request")
	// ErrNotFound covers a missing record, a wrong-type record and a
	// record that is not awaiting review. Collapsed on purpose so the
	// response does not leak which precondition failed.
	ErrNotFound          = errors.New("not_found")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrAlreadyProcessed  = errors.New("already_processed")
)
