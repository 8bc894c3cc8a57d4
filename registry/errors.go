package registry

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the acting principal's role does not
// permit the operation.
var ErrUnauthorized = errors.New("operation not permitted for this role")

// ErrNotFound is returned when the referenced application does not exist.
var ErrNotFound = errors.New("application not found")

// ErrInvalidTransition is returned when a review targets an application that
// already left the pending state.
var ErrInvalidTransition = errors.New("application already reviewed")

// ValidationError reports a rejected submission or review input. The failed
// operation performs no persistence write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func requiredField(field string) error {
	return &ValidationError{Field: field, Reason: "required"}
}
