// Package errors provides the structured error taxonomy for reviews.
// Every error that crosses a package boundary carries the operation that
// failed and a Kind the pager uses to decide how to recover.
package errors

import (
	"errors"
	"fmt"
)

// Op describes an operation, usually as "package.function".
type Op string

// Kind categorizes the type of error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransport covers collaborator-level failures: no connectivity,
	// timeouts, non-OK HTTP statuses, unreadable fixture files.
	KindTransport
	// KindDecode covers malformed or invalid page payloads.
	KindDecode
	// KindNotFound covers lookups by a stale or unknown identifier.
	KindNotFound
	KindConfig
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport error"
	case KindDecode:
		return "decode error"
	case KindNotFound:
		return "not found"
	case KindConfig:
		return "configuration error"
	case KindIO:
		return "I/O error"
	default:
		return "unknown error"
	}
}

// Error is the structured error type for reviews.
type Error struct {
	Op      Op     // Operation that failed
	Kind    Kind   // Category of error
	Err     error  // Underlying error
	Context string // Additional context
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Context, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new Error. Arguments can be:
// - Op: the operation name
// - Kind: the error kind
// - string: context message
// - error: the underlying error
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case string:
			e.Context = a
		case error:
			e.Err = a
		}
	}
	if e.Err == nil {
		e.Err = errors.New(e.Context)
		e.Context = ""
	}
	return e
}

// Is reports whether err is of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the Kind of an error, KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Transport wraps a fetch failure.
func Transport(op Op, err error) error {
	return E(op, KindTransport, err)
}

// Decode wraps a payload decoding or validation failure.
func Decode(op Op, err error) error {
	return E(op, KindDecode, err)
}

// RowNotFound reports an expand or lookup on an id that is not in the list.
func RowNotFound(id string) error {
	return E(Op("feed.ExpandRow"), KindNotFound, fmt.Sprintf("row %s not found", id))
}

// ConfigInvalid reports a configuration value that cannot be used.
func ConfigInvalid(reason string) error {
	return E(Op("config.Validate"), KindConfig, reason)
}
