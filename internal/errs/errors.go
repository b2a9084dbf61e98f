package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound  = errors.New("not_found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid")
	// ErrUnprocessable is used for semantic validation failures (HTTP 422)
	ErrUnprocessable = errors.New("unprocessable")
	// ErrInsufficientFunds indicates a manual payment exceeding the linked account's balance
	ErrInsufficientFunds = errors.New("insufficient_funds")
	// ErrTypeMismatch indicates a sweep target whose type differs from the source account
	ErrTypeMismatch = errors.New("type_mismatch")
	// ErrNoRecurringPayment indicates a payment was requested on an account without a descriptor
	ErrNoRecurringPayment = errors.New("no_recurring_payment")
)
