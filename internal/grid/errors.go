package grid

import "errors"

// Domain-specific errors for grid operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownBridge is returned when a bridge id does not resolve to a
	// registered bridge.
	ErrUnknownBridge = errors.New("grid: unknown bridge")

	// ErrUnknownTarget is returned when a lamp or group reference does not
	// resolve to anything in the current snapshot.
	ErrUnknownTarget = errors.New("grid: unknown target")

	// ErrDuplicateBridge is returned when registering an address that is
	// already registered.
	ErrDuplicateBridge = errors.New("grid: bridge already registered")

	// ErrUnreachableBridge is returned when the registration-time probe of a
	// bridge fails.
	ErrUnreachableBridge = errors.New("grid: bridge unreachable")

	// ErrInvalidRef is returned when a lamp or group reference string cannot
	// be parsed.
	ErrInvalidRef = errors.New("grid: invalid reference")

	// ErrNoTargets is returned when a command names no targets at all.
	ErrNoTargets = errors.New("grid: no targets")
)
