package hue

import (
	"errors"
	"fmt"
)

// Domain-specific errors for bridge operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotHueBridge is returned when a probe target answers HTTP but does
	// not identify itself as a Hue-compatible bridge.
	ErrNotHueBridge = errors.New("hue: target is not a hue bridge")

	// ErrEmptyResponse is returned when the bridge returns a response with no
	// result items where at least one was expected.
	ErrEmptyResponse = errors.New("hue: empty response from bridge")

	// ErrInvalidRef is returned when a lamp or group reference cannot be parsed.
	ErrInvalidRef = errors.New("hue: invalid reference")
)

// Well-known bridge error codes, as reported by the firmware.
const (
	// CodeUnauthorized means the supplied username is not registered on the bridge.
	CodeUnauthorized = 1

	// CodeResourceUnavailable means the addressed lamp or group does not exist.
	CodeResourceUnavailable = 3

	// CodeInternalError covers transient firmware-side failures.
	CodeInternalError = 901

	// CodeLinkButtonNotPressed is returned by user creation until the
	// physical link button on the bridge has been pressed.
	CodeLinkButtonNotPressed = 101
)

// APIError is an application-level rejection reported by the bridge firmware.
// It is target-scoped and never retryable: the bridge received the request,
// understood it, and refused it.
type APIError struct {
	// Type is the numeric error code from the bridge.
	Type int

	// Address is the resource path the error relates to, e.g. "/lights/2/state/on".
	Address string

	// Description is the human-readable reason from the bridge.
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hue: bridge error %d at %s: %s", e.Type, e.Address, e.Description)
}

// IsUnauthorized reports whether the error is a credential rejection.
func (e *APIError) IsUnauthorized() bool {
	return e.Type == CodeUnauthorized
}

// IsLinkButton reports whether the error means the link button must be pressed.
func (e *APIError) IsLinkButton() bool {
	return e.Type == CodeLinkButtonNotPressed
}

// TransportError is a network-level failure: timeout, connection refused,
// DNS failure, or a malformed response. The request may or may not have
// reached the bridge, so transport errors are candidates for retry.
type TransportError struct {
	// Op is the operation that failed, e.g. "set light state".
	Op string

	// Err is the underlying network or decode error.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("hue: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a transport-level failure that may
// succeed on retry. Application-level bridge rejections are not transient.
func IsTransient(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
