// Package apperr defines the typed error taxonomy used across the
// upload, store and worker boundaries so callers can branch with
// errors.As instead of matching on error strings.
package apperr

import "fmt"

// ValidationError indicates a malformed request. It never reaches the
// worker; the ingress controller rejects it with 4xx before enqueuing.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates no task with the given id exists.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

func NewNotFound(format string, args ...any) *NotFoundError {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

// InProgressError is not truly an error: it signals the task exists
// but has not reached a terminal state yet. Mapped to HTTP 202.
type InProgressError struct {
	Msg string
}

func (e *InProgressError) Error() string { return e.Msg }

func NewInProgress(format string, args ...any) *InProgressError {
	return &InProgressError{Msg: fmt.Sprintf(format, args...)}
}

// PipelineError wraps a failure inside the detection pipeline. The
// worker converts it into a failure-shaped Result, persists it,
// publishes the FAILURE state, logs the error and acknowledges the
// message.
type PipelineError struct {
	Msg string
	Err error
}

func (e *PipelineError) Error() string { return e.Msg }
func (e *PipelineError) Unwrap() error { return e.Err }

func NewPipeline(err error, format string, args ...any) *PipelineError {
	return &PipelineError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// StoreError wraps a Result Store failure. The worker logs it and
// re-raises so the message is redelivered.
type StoreError struct {
	Msg string
	Err error
}

func (e *StoreError) Error() string { return e.Msg }
func (e *StoreError) Unwrap() error { return e.Err }

func NewStore(err error, format string, args ...any) *StoreError {
	return &StoreError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// CacheError wraps a Transient Cache failure. Callers log and swallow
// it; it never affects the job's terminal outcome.
type CacheError struct {
	Msg string
	Err error
}

func (e *CacheError) Error() string { return e.Msg }
func (e *CacheError) Unwrap() error { return e.Err }

func NewCache(err error, format string, args ...any) *CacheError {
	return &CacheError{Msg: fmt.Sprintf(format, args...), Err: err}
}
