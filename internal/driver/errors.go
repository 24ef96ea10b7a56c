// internal/driver/errors.go
package driver

import "errors"

var (
	// ErrNoSuchElement is returned by FindElement when nothing matched
	// within the ambient implicit wait.
	ErrNoSuchElement = errors.New("no such element")
	// ErrStaleElement means the node was detached from the document between
	// lookup and use.
	ErrStaleElement = errors.New("element is stale or detached from the document")
	// ErrInvalidElementState is the transient "cannot edit now" condition
	// (disabled, readonly, mid-animation) reported during text entry.
	ErrInvalidElementState = errors.New("invalid element state")
	// ErrNoShadowRoot is returned by ShadowRoot when the host has none.
	ErrNoShadowRoot = errors.New("no shadow root")
	// ErrUnsupportedLocator is returned when a backend cannot evaluate a strategy.
	ErrUnsupportedLocator = errors.New("unsupported locator")
	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("session closed")
)

// IsStaleOrMissing reports whether err means the target vanished.
func IsStaleOrMissing(err error) bool {
	return errors.Is(err, ErrStaleElement) || errors.Is(err, ErrNoSuchElement)
}
