package negotiation

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound     = errors.New("negotiation session not found")
	ErrParticipantNotFound = errors.New("participant not found in session")

	// ErrSessionNotActive reports a guarded transition write that matched no
	// ACTIVE row: the session reached a terminal state between the caller's
	// read and its write. The store is unchanged.
	ErrSessionNotActive = errors.New("session is no longer active")
)

// ValidationError rejects malformed or out-of-range input. Recoverable,
// surfaced to the initiating user only, never broadcast.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for one input field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// PreconditionError rejects an operation that is not legal in the current
// state, e.g. confirming while the total is off 100. Recoverable, local to
// the caller, no side effects.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// NewPreconditionError builds a PreconditionError.
func NewPreconditionError(reason string) error {
	return &PreconditionError{Reason: reason}
}

// StorageError wraps a failed durable write. The transition it interrupted
// must not be broadcast; the client retries.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err with the failing operation name.
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPrecondition reports whether err is a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
