package service

import (
	"errors"
	"fmt"
)

// Upload validation errors, surfaced synchronously to the submitter before
// any job is created.
var (
	ErrInvalidFileType = errors.New("invalid file type, please upload a CSV")
	ErrFileTooLarge    = errors.New("file is too large")
)

// Model service failure classes. Unavailable covers transport failures and
// timeouts; ErrModelError covers a reachable service answering with a
// non-success response, so clients can decide whether a retry makes sense.
var (
	ErrModelUnavailable = errors.New("model service is unavailable")
	ErrModelError       = errors.New("model service returned an error")
)

// ValidationError describes an uploaded file that cannot be processed at all,
// such as a missing required column. It fails the whole job, unlike
// individual malformed rows which are merely skipped.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
