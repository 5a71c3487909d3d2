package ledger

import "errors"

// Domain errors. The HTTP layer maps them onto status codes.
var (
	// ErrNotFound is returned when a referenced record does not exist (404).
	ErrNotFound = errors.New("record not found")
	// ErrValidation marks malformed or out of range input (400).
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks uniqueness or dependency conflicts (409).
	ErrConflict = errors.New("conflict")
	// ErrForbidden marks operations the caller may not perform (403).
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState marks a transition not allowed from the current status (400).
	ErrInvalidState = errors.New("invalid state transition")
	// ErrOverpayment is returned when payments would exceed a purchase total (400).
	ErrOverpayment = errors.New("amount exceeds remaining balance")
)
