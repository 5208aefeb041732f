package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredential   = errors.New("missing credential")
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrTokenNotFound       = errors.New("decision token not found")
	ErrTokenConsumed       = errors.New("decision token already consumed")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrLockHeld            = errors.New("transaction lock held")
)

// AlreadyDecidedError reports that a decision request arrived after the
// booking reached a terminal status. It carries the real current status so
// reused links show the actual outcome instead of a token error.
type AlreadyDecidedError struct {
	Status BookingStatus
}

func (e *AlreadyDecidedError) Error() string {
	return fmt.Sprintf("booking already decided: %s", e.Status)
}

// ValidationError collects per-field messages for a rejected submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission: %d field(s)", len(e.Fields))
}
