package pipeline

import (
	"errors"
	"fmt"
)

// ErrNotFound signals a referenced entity that does not exist or is
// soft-deleted. Surfaced as HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict signals a lost-update race: the application row moved
// between read and write. Surfaced as HTTP 409; the caller may retry.
var ErrConflict = errors.New("application was modified concurrently")

// ValidationError is a caller-correctable precondition violation.
// Surfaced as HTTP 400 with the reason as the message.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a precondition violation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
