package n8n

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure categories reported by the client.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindNotFound
	KindRateLimited
	KindUpstreamFailure
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstreamFailure:
		return "upstream_failure"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is; every *Error matches the sentinel of its Kind.
var (
	ErrUnknown         = errors.New("unknown error")
	ErrUnauthorized    = errors.New("invalid API credentials")
	ErrNotFound        = errors.New("resource not found")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrUpstreamFailure = errors.New("n8n instance error")
	ErrUnavailable     = errors.New("unable to connect to n8n instance")
)

// Messages surfaced to callers.
const (
	MessageUnauthorized = "Invalid API credentials"
	MessageNotFound     = "Resource not found"
	MessageRateLimited  = "Rate limit exceeded"
	MessageServerError  = "N8N instance error"
	MessageAPIError     = "N8N API error"
	MessageUnavailable  = "Unable to connect to N8N instance"
	MessageUnknown      = "Unknown error"
)

// Error is a classified upstream failure.
type Error struct {
	Kind       Kind
	Op         string // e.g. "GET /workflows/abc"
	StatusCode int    // upstream HTTP status, 0 when no response was received
	Message    string // human-readable, safe to show to API clients
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's Kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnauthorized:
		return ErrUnauthorized
	case KindNotFound:
		return ErrNotFound
	case KindRateLimited:
		return ErrRateLimited
	case KindUpstreamFailure:
		return ErrUpstreamFailure
	case KindUnavailable:
		return ErrUnavailable
	default:
		return ErrUnknown
	}
}

// KindOf returns the Kind of a classified error, or KindUnknown for any other error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// MessageOf returns the caller-facing message of a classified error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}

	if err != nil && err.Error() != "" {
		return err.Error()
	}

	return MessageUnknown
}

// IsNotFound checks if an error indicates the upstream resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailable checks if an error indicates the upstream could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// statusError classifies a non-2xx upstream response.
func statusError(op string, status int, body []byte) *Error {
	e := &Error{Op: op, StatusCode: status}

	switch {
	case status == http.StatusUnauthorized:
		e.Kind, e.Message = KindUnauthorized, MessageUnauthorized
	case status == http.StatusNotFound:
		e.Kind, e.Message = KindNotFound, MessageNotFound
	case status == http.StatusTooManyRequests:
		e.Kind, e.Message = KindRateLimited, MessageRateLimited
	case status >= http.StatusInternalServerError:
		e.Kind, e.Message = KindUpstreamFailure, MessageServerError
	default:
		e.Kind, e.Message = KindUpstreamFailure, upstreamMessage(body)
	}

	return e
}

func upstreamMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}

	return MessageAPIError
}

// transportError classifies a request that got no usable response.
func transportError(op string, err error) *Error {
	return &Error{Kind: KindUnavailable, Op: op, Message: MessageUnavailable, Err: err}
}

// requestError classifies a request that could not be built.
func requestError(op string, err error) *Error {
	msg := MessageUnknown
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}

	return &Error{Kind: KindUnknown, Op: op, Message: msg, Err: err}
}

// payloadError classifies a response body that is not the expected JSON.
func payloadError(op string, err error) *Error {
	return &Error{Kind: KindUpstreamFailure, Op: op, Message: MessageAPIError, Err: err}
}
