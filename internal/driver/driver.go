// internal/driver/driver.go
//
// Package driver defines the contract between the page-object core and the
// browser backends. The core never constructs or configures sessions; it is
// handed a Session (or a Provider) and only calls through these interfaces.
package driver

import (
	"context"
	"time"
)

// SearchContext is anything nodes can be looked up from: the document root
// (a Session), an element, or a shadow root.
type SearchContext interface {
	// FindElement returns the first match in document order, polling for up
	// to the session's implicit wait. It returns ErrNoSuchElement when
	// nothing matched.
	FindElement(ctx context.Context, loc Locator) (Node, error)
	// FindElements returns all matches in document order. An empty result is
	// not an error. It polls the implicit wait until at least one match
	// appears, the same way FindElement does.
	FindElements(ctx context.Context, loc Locator) ([]Node, error)
}

// Node is an opaque handle to a live DOM node.
type Node interface {
	SearchContext

	// Text returns the rendered text of the node.
	Text(ctx context.Context) (string, error)
	// Attribute returns the DOM property of that name when it is defined,
	// otherwise the HTML attribute. ok is false when neither exists.
	Attribute(ctx context.Context, name string) (value string, ok bool, err error)
	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	SendKeys(ctx context.Context, keys string) error
	IsEnabled(ctx context.Context) (bool, error)
	IsDisplayed(ctx context.Context) (bool, error)
	// ShadowRoot returns the node's shadow boundary, or ErrNoShadowRoot.
	ShadowRoot(ctx context.Context) (SearchContext, error)
	// Screenshot captures the node as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)
}

// Gestures are the pointer interactions a session can dispatch against nodes.
type Gestures interface {
	DoubleClick(ctx context.Context, n Node) error
	DragAndDrop(ctx context.Context, source, target Node) error
	DragAndDropByOffset(ctx context.Context, n Node, dx, dy float64) error
	MoveTo(ctx context.Context, n Node) error
	MoveByOffset(ctx context.Context, dx, dy float64) error
	// ClickAndHoldRelease presses at the current pointer position and
	// releases over n.
	ClickAndHoldRelease(ctx context.Context, n Node) error
}

// Session is a single browser session. It is not safe for concurrent use:
// callers must serialise every lookup and interaction against one session.
type Session interface {
	SearchContext
	Gestures

	ID() string
	ImplicitWait() time.Duration
	SetImplicitWait(d time.Duration)
	// ExecuteScript runs script with args bound to arguments[i]; Node args
	// are passed as element references. res may be nil.
	ExecuteScript(ctx context.Context, script string, res interface{}, args ...interface{}) error
	CurrentURL(ctx context.Context) (string, error)
	Navigate(ctx context.Context, url string) error
	Refresh(ctx context.Context) error
	SetViewport(ctx context.Context, width, height int) error
	Close(ctx context.Context) error
}

// Provider owns a session's create-once/close lifecycle. Session is
// idempotent; Close closes and clears the handle so the next Session call
// creates a new one. Providers are single-owner like the sessions they hand out.
type Provider interface {
	Session(ctx context.Context) (Session, error)
	Close(ctx context.Context) error
}
