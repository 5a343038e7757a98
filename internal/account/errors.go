package account

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an expected absence, e.g. a user without a profile row.
var ErrNotFound = errors.New("account: record not found")

// ServiceError is a transport, auth or database failure reported by a backend.
type ServiceError struct {
	Op      string // session, profile, update, signout, signin, signup
	Code    string // backend error code when one was returned
	Status  int    // HTTP status for remote backends, 0 otherwise
	Message string // human readable, safe to show
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": service error"
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ValidationError is raised locally before any backend call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// AsServiceError unwraps err to a *ServiceError.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Wrap converts err into a *ServiceError for op, leaving nil,
// ErrNotFound and existing service errors unchanged.
func Wrap(op string, err error) error {
	if err == nil || IsNotFound(err) {
		return err
	}
	if _, ok := AsServiceError(err); ok {
		return err
	}
	return &ServiceError{Op: op, Err: err}
}
