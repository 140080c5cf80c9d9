// Package client is a Go SDK for the account API. It mirrors the behavior a
// single-page application needs: typed endpoint calls, a session state
// machine, and a route guard.
package client

import "fmt"

// ValidationError carries the field errors from a 422 response. Fields holds
// the first message per field.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// Field returns the message for a field, or an empty string.
func (e *ValidationError) Field(name string) string {
	return e.Fields[name]
}

// AuthenticationError is a 401. The caller should drop local session state
// and send the user to the login route.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthenticated"
}

// SessionMismatchError is a 419-class response. Distinct from a credential
// failure: the remedy is refreshing the page, not retyping a password.
type SessionMismatchError struct {
	Message string
}

func (e *SessionMismatchError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "session expired, please refresh and try again"
}

// TransportError wraps network-level failures. Offline and server-down are
// indistinguishable to the caller.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "network error occurred"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is any other non-success status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}
