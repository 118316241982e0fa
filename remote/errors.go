package remote

import (
	"errors"
	"fmt"
)

// ErrProfileNotFound is returned by ProfileDirectory lookups for
// principals with no registered profile.
var ErrProfileNotFound = errors.New("profile not found")

// Code classifies a remote call failure. The set is closed; remote
// error payloads are mapped onto it with the remote-provided reason
// carried verbatim in Message.
type Code uint8

const (
	// CodeUnavailable means the call could not reach the service or the
	// service could not answer.
	CodeUnavailable Code = iota
	// CodeRejected means the service refused the operation (missing
	// privilege, stale state, rule violation).
	CodeRejected
	// CodeNotFound means the addressed entity does not exist.
	CodeNotFound
	// CodeInternal means the service reported an internal fault.
	CodeInternal
)

func (c Code) String() string {
	switch c {
	case CodeUnavailable:
		return "unavailable"
	case CodeRejected:
		return "rejected"
	case CodeNotFound:
		return "not_found"
	case CodeInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// CallError is the failure type for every remote operation.
type CallError struct {
	Op      string
	Code    Code
	Message string
}

func (e *CallError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote %s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("remote %s: %s: %s", e.Op, e.Code, e.Message)
}

// IsRejected reports whether err is a remote rejection, as opposed to a
// transport or availability failure.
func IsRejected(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Code == CodeRejected
}
