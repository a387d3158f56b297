package domain

import "fmt"

// ValidationError reports a malformed or missing request field. It is detected
// before any I/O and is recoverable by the caller correcting its input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError builds a validation failure for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StoreError wraps a time-series store failure with its original cause.
// Callers must treat it as a transient infrastructure fault.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err as a store failure for the given operation.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// PublishError wraps a broker failure during event emission. The underlying
// data is already durable when it occurs, so it never fails the operation.
type PublishError struct {
	Topic string
	Err   error
}

func (e *PublishError) Error() string { return fmt.Sprintf("publish to %s: %v", e.Topic, e.Err) }
func (e *PublishError) Unwrap() error { return e.Err }

// AnalyticsError is the single wrapper produced at the report generator
// boundary: a human-readable summary plus the original cause.
type AnalyticsError struct {
	Op  string
	Err error
}

func (e *AnalyticsError) Error() string { return fmt.Sprintf("analytics: %s: %v", e.Op, e.Err) }
func (e *AnalyticsError) Unwrap() error { return e.Err }

// NewAnalyticsError wraps err once at the service boundary.
func NewAnalyticsError(op string, err error) *AnalyticsError {
	return &AnalyticsError{Op: op, Err: err}
}
