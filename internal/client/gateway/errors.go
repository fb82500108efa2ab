package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a gateway failure for user messaging.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindRateLimited
	KindUnavailable
	KindMalformedRequest
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate-limited"
	case KindUnavailable:
		return "server-unavailable"
	case KindMalformedRequest:
		return "malformed-request"
	default:
		return "unknown"
	}
}

// ErrEmptyResponse is returned when the gateway answered but carried no text.
var ErrEmptyResponse = errors.New("gateway: empty response")

// Error is a classified gateway failure. The upstream body is never part of
// the error so it cannot leak into user-facing text.
type Error struct {
	Kind       Kind
	StatusCode int
	// Err is the transport error, if the request never got a response.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("gateway %s: status %d", e.Kind, e.StatusCode)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps an HTTP status from the gateway to a Kind.
func Classify(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= http.StatusInternalServerError:
		return KindUnavailable
	case status == http.StatusBadRequest:
		return KindMalformedRequest
	default:
		return KindUnknown
	}
}

// UserMessage returns the short advisory shown to the user for err.
func UserMessage(err error) string {
	var gwErr *Error
	kind := KindUnknown
	if errors.As(err, &gwErr) {
		kind = gwErr.Kind
	}
	switch kind {
	case KindUnauthorized:
		return "Please check your API key settings and try again."
	case KindRateLimited:
		return "Too many requests. Please wait a moment and try again."
	case KindUnavailable:
		return "The AI service is temporarily unavailable. Please try again later."
	case KindMalformedRequest:
		return "Unable to process your request. Please try rephrasing."
	default:
		return "Something went wrong. Please try again."
	}
}
