package contact

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a rejected submission
type Kind int

const (
	KindRateLimited Kind = iota + 1
	KindInvalidInput
	KindDeliveryFailed
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate limited"
	case KindInvalidInput:
		return "invalid input"
	case KindDeliveryFailed:
		return "delivery failed"
	case KindInternal:
		return "internal error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// User-facing messages. Only these ever reach the caller.
const (
	MsgRateLimited    = "Too many submissions. Please try again later."
	MsgMissingFields  = "Missing required fields"
	MsgNameTooLong    = "Name must be 100 characters or fewer."
	MsgEmailTooLong   = "Email must be 254 characters or fewer."
	MsgMessageTooLong = "Message must be 5000 characters or fewer."
	MsgPhoneTooLong   = "Phone must be 50 characters or fewer."
	MsgInvalidSubject = "Invalid subject selected."
	MsgDeliveryFailed = "Failed to send email"
	MsgInternal       = "Internal server error"
)

// Error is a rejected submission. Message is safe to show to the submitter;
// Err holds the cause and is only meant for server logs.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration
	Err        error
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

// KindOf returns the Kind of err, or KindInternal for errors that did not
// come from the gatekeeper
func KindOf(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return KindInternal
}

func invalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

func internalError(err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgInternal, Err: err}
}

func deliveryFailed(err error) *Error {
	return &Error{Kind: KindDeliveryFailed, Message: MsgDeliveryFailed, Err: err}
}
