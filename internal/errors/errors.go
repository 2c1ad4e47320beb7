package errors

import "fmt"

// Kind classifies an error for propagation policy: user-caused kinds are
// reported back to the requesting user, RateLimited and Unavailable are
// surfaced as "try again later" and logged once.
type Kind uint

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNotFound
	KindInsufficientQuantity
	KindRateLimited
	KindSessionExpired
	KindUnavailable
)

// String returns the kind name for logs.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindInsufficientQuantity:
		return "insufficient_quantity"
	case KindRateLimited:
		return "rate_limited"
	case KindSessionExpired:
		return "session_expired"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is an error with a Kind and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by kind so callers can compare against sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates a new error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new error of the given kind wrapping a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// InvalidArgument reports malformed user input.
func InvalidArgument(format string, args ...interface{}) *Error {
	return New(KindInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFound reports a missing position, user or unknown ticker.
func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

// InsufficientQuantity reports a removal exceeding current holdings.
func InsufficientQuantity(format string, args ...interface{}) *Error {
	return New(KindInsufficientQuantity, fmt.Sprintf(format, args...))
}

// RateLimited reports provider throttling.
func RateLimited(message string) *Error {
	return New(KindRateLimited, message)
}

// SessionExpired reports a stale interactive-dialog reference.
func SessionExpired(message string) *Error {
	return New(KindSessionExpired, message)
}

// Unavailable reports a transient store or provider failure.
func Unavailable(message string, err error) *Error {
	return Wrap(KindUnavailable, message, err)
}

// KindOf extracts the kind from an error chain, KindUnknown if none.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return KindUnknown
		}
		err = u.Unwrap()
	}
	return KindUnknown
}

// IsUserError reports whether the error is an expected, user-caused
// condition that should be replied, not logged as operational.
func IsUserError(err error) bool {
	switch KindOf(err) {
	case KindInvalidArgument, KindNotFound, KindInsufficientQuantity, KindSessionExpired:
		return true
	}
	return false
}
