package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// User-facing fallback messages, kept stable so screens can display them
// verbatim.
const (
	msgNetworkUnavailable = "No internet connection. Please check your network."
	msgSessionExpired     = "Session expired. Please login again."
	msgGeneric            = "Something went wrong. Please try again."
)

// Error is the single normalized shape every transport failure is reduced
// to before it reaches calling code. Callers branch on the flags, never on
// transport internals.
type Error struct {
	Message string
	Status  int
	Body    []byte

	NetworkUnavailable bool
	RequiresLogin      bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func networkUnavailable() *Error {
	return &Error{Message: msgNetworkUnavailable, NetworkUnavailable: true}
}

func sessionExpired() *Error {
	return &Error{Message: msgSessionExpired, RequiresLogin: true}
}

// fromResponse extracts a human-readable message from the response body,
// falling back to the generic message, and preserves status and raw body
// for diagnostics.
func fromResponse(status int, body []byte) *Error {
	apiErr := &Error{Message: msgGeneric, Status: status, Body: body}

	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
	}

	return apiErr
}

// IsNetworkUnavailable reports whether err represents absent connectivity.
func IsNetworkUnavailable(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.NetworkUnavailable
}

// RequiresLogin reports whether err means the session is gone and the user
// must re-authenticate.
func RequiresLogin(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.RequiresLogin
}
