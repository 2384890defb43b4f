package engagement

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("no authenticated user")
	ErrSelfFollow      = errors.New("cannot follow yourself")
	ErrEmptyBody       = errors.New("body must not be empty")
	ErrInvalidTarget   = errors.New("invalid reaction target")
	ErrInvalidFollowee = errors.New("invalid followee")
	ErrNotFound        = errors.New("not found")
)

// ValidationError is returned before any state is touched.
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// RemoteFailure wraps an error from the Remote. When it comes out of a toggle
// or a read-mark, the local state has already been rolled back.
type RemoteFailure struct {
	Op  string
	Err error
}

func (e *RemoteFailure) Error() string {
	return fmt.Sprintf("%s: remote call failed: %v", e.Op, e.Err)
}

func (e *RemoteFailure) Unwrap() error { return e.Err }

// NotFoundError reports a node or notification unknown to the local store.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func invalid(op string, err error) error {
	return &ValidationError{Op: op, Err: err}
}

func remoteFailure(op string, err error) error {
	return &RemoteFailure{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsRemoteFailure reports whether err is a RemoteFailure.
func IsRemoteFailure(err error) bool {
	var r *RemoteFailure
	return errors.As(err, &r)
}
