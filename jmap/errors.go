package jmap

import (
	"errors"
	"fmt"
)

// Kind classifies a protocol failure.
type Kind int

const (
	// KindHTTP covers connectivity failures, non-2xx statuses, malformed
	// redirects and empty bodies.
	KindHTTP Kind = iota
	// KindParse covers bodies that are not valid JSON or do not match the
	// expected shape.
	KindParse
	// KindAPI covers well-formed responses that are semantically wrong:
	// missing mail capability, unexpected method name, empty response list.
	KindAPI
)

// String returns the display prefix for the kind.
func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "HTTP error"
	case KindParse:
		return "Parse error"
	case KindAPI:
		return "API error"
	default:
		return "Unknown error"
	}
}

// Error is the failure type shared by discovery and method calls.
type Error struct {
	Kind       Kind
	Message    string
	Status     int   // HTTP status when a response was received
	AuthFailed bool  // set for 401 responses
	Err        error // underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

func httpErrorf(format string, v ...interface{}) *Error {
	return &Error{Kind: KindHTTP, Message: fmt.Sprintf(format, v...)}
}

func apiErrorf(format string, v ...interface{}) *Error {
	return &Error{Kind: KindAPI, Message: fmt.Sprintf(format, v...)}
}

func statusError(status int, body []byte) *Error {
	excerpt := "(empty response)"
	if len(body) > 0 {
		excerpt = truncate(string(body), 200)
	}
	return &Error{
		Kind:    KindHTTP,
		Status:  status,
		Message: fmt.Sprintf("server returned status %d: %s", status, excerpt),
	}
}

func authError() *Error {
	return &Error{
		Kind:       KindHTTP,
		Status:     401,
		AuthFailed: true,
		Message:    "authentication failed (401 Unauthorized)",
	}
}

// IsAuthFailed reports whether err is a 401 authentication failure.
func IsAuthFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.AuthFailed
}

// truncate caps a diagnostic excerpt at max bytes.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
