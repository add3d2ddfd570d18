package services

import "errors"

// Business-rule rejections. These are expected outcomes a caller can fix by
// correcting its input; controllers map them to 4xx responses with the
// wrapped detail message intact.
var (
	ErrNotFound            = errors.New("submission not found")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrMissingPayloadField = errors.New("missing payload field")
	ErrTerminalState       = errors.New("submission is in a terminal state")
)

// Infrastructure failures. Propagated, never retried here: retrying a
// non-idempotent transition could double-apply side effects.
var (
	ErrStorage           = errors.New("storage error")
	ErrLedgerUnavailable = errors.New("external ledger unavailable")
	ErrUpload            = errors.New("proof upload failed")
)
