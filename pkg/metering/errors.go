// Package metering holds the admission and accounting rules for purchased chat sessions.
package metering

import (
	"errors"
	"fmt"
)

// Kind is the closed set of outcomes a chat turn can fail with.
type Kind int

const (
	Unknown Kind = iota
	Unauthorized
	InvalidRequest
	NoActiveSession
	SessionExpired
	QuotaExceeded
	UpstreamRateLimited
	UpstreamPaymentRequired
	UpstreamError
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case InvalidRequest:
		return "invalid_request"
	case NoActiveSession:
		return "no_active_session"
	case SessionExpired:
		return "session_expired"
	case QuotaExceeded:
		return "quota_exceeded"
	case UpstreamRateLimited:
		return "upstream_rate_limited"
	case UpstreamPaymentRequired:
		return "upstream_payment_required"
	case UpstreamError:
		return "upstream_error"
	default:
		return "unknown"
	}
}

// Error is the only error type callers of the gate, proxy and reconciler need to inspect.
// Message is safe to show to the end user; Err holds the internal cause.
type Error struct {
	Kind    Kind
	Message string

	// Set for QuotaExceeded.
	Used  int64
	Limit int64

	// Set for upstream failures; for logs only.
	UpstreamStatus int

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so errors.Is(err, &Error{Kind: QuotaExceeded}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Caller-facing messages.
const (
	MsgUnauthorized      = "Unauthorized"
	MsgNoActiveSession   = "No active session found"
	MsgSessionExpired    = "Session expired"
	MsgQuotaExceeded     = "Token limit exceeded"
	MsgRateLimited       = "Rate limits exceeded, please try again later."
	MsgPaymentRequired   = "Payment required, please add funds to your workspace."
	MsgUpstreamError     = "AI gateway error"
	MsgInternalError     = "Internal server error"
	MsgInvalidTranscript = "Invalid messages"
	MsgInvalidSessionId  = "Invalid session id"
)

var defaultMessages = map[Kind]string{
	Unknown:                 MsgInternalError,
	Unauthorized:            MsgUnauthorized,
	InvalidRequest:          MsgInvalidTranscript,
	NoActiveSession:         MsgNoActiveSession,
	SessionExpired:          MsgSessionExpired,
	QuotaExceeded:           MsgQuotaExceeded,
	UpstreamRateLimited:     MsgRateLimited,
	UpstreamPaymentRequired: MsgPaymentRequired,
	UpstreamError:           MsgUpstreamError,
}

// New builds an Error with the default caller-facing message of its kind.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Message: defaultMessages[kind], Err: cause}
}

// Newf builds an Error with a custom caller-facing message.
func Newf(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf reports the Kind of err. Anything not produced by this package is Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// AsError converts err into an *Error, wrapping foreign errors as Unknown.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return New(Unknown, err)
}
