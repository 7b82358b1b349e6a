package source

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorCode classifies fetch failures.
type ErrorCode string

const (
	// ErrCodeTransport covers connection failures and timeouts.
	ErrCodeTransport ErrorCode = "TRANSPORT"
	// ErrCodeRemoteStatus means the upstream answered with a non-200 status.
	ErrCodeRemoteStatus ErrorCode = "REMOTE_STATUS"
	// ErrCodeEmptyResult means the call succeeded but carried zero records.
	ErrCodeEmptyResult ErrorCode = "EMPTY_RESULT"
	// ErrCodeMalformedInput means the payload was not a record sequence.
	ErrCodeMalformedInput ErrorCode = "MALFORMED_INPUT"
)

// SourceError is a structured error for fetch failures. It is always
// returned, never panicked, so callers can decide on emptiness before
// running the pipeline.
type SourceError struct {
	Code    ErrorCode
	Message string
	Status  int // upstream HTTP status, set for ErrCodeRemoteStatus
	Cause   error
}

func (e *SourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}

// IsTimeout reports whether the failure was a timeout rather than some other
// transport problem.
func (e *SourceError) IsTimeout() bool {
	if e.Code != ErrCodeTransport || e.Cause == nil {
		return false
	}
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Cause, &netErr) && netErr.Timeout()
}

// AsSourceError unwraps err into a *SourceError when possible.
func AsSourceError(err error) (*SourceError, bool) {
	var se *SourceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
