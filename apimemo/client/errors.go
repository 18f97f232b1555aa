package client

import (
	"errors"
	"fmt"
)

// Kind classifies every error returned by the dispatcher.
type Kind int

const (
	// KindInvalidRequest is a malformed logical request. It never reaches the cache.
	KindInvalidRequest Kind = iota + 1
	// KindInvalidConfiguration is a bad cache capacity or a required option
	// missing when the call is assembled.
	KindInvalidConfiguration
	// KindTransport is a network/HTTP-level failure. It is never cached.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid request"
	case KindInvalidConfiguration:
		return "invalid configuration"
	case KindTransport:
		return "transport error"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrInvalidRequest       = &Error{Kind: KindInvalidRequest}
	ErrInvalidConfiguration = &Error{Kind: KindInvalidConfiguration}
	ErrTransport            = &Error{Kind: KindTransport}
)

// ErrMissingOption is wrapped by InvalidConfiguration errors raised for an
// option absent at call-assembly time.
var ErrMissingOption = errors.New("missing configuration option")

// Error is the tagged error type of this package.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "build request"
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func invalidRequest(format string, args ...any) error {
	return &Error{Kind: KindInvalidRequest, Op: "build request", Err: fmt.Errorf(format, args...)}
}

func missingOption(name string) error {
	return &Error{Kind: KindInvalidConfiguration, Op: "assemble call", Err: fmt.Errorf("%w: %s", ErrMissingOption, name)}
}

func transportError(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}
