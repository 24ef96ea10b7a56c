// internal/pageobject/descriptor.go
package pageobject

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/xkilldash9x/testlab/internal/driver"
	"github.com/xkilldash9x/testlab/internal/wait"
)

// Factory builds the declared type around a freshly resolved base element.
// args are the descriptor's initializer arguments.
type Factory[T any] func(el *Element, args ...interface{}) T

// ContainerFactory builds a logical container over the enclosing scope.
type ContainerFactory[T any] func(scope Scope, name string, args ...interface{}) T

var capableType = reflect.TypeOf((*Capable)(nil)).Elem()

func implementsCapable[T any]() bool {
	return reflect.TypeOf((*T)(nil)).Elem().Implements(capableType)
}

// asBase recovers the base element of a value built by a Factory. Callers
// only reach it for types validated at declaration.
func asBase[T any](v T) *Element {
	return any(v).(Capable).Base()
}

type descriptor struct {
	name    string
	locator driver.Locator
	// global resolves from the session root instead of the enclosing element.
	global bool
	shadow driver.Locator
	args   []interface{}
}

// Option tunes a descriptor declaration.
type Option func(*descriptor)

// Global resolves from the session root rather than the enclosing element.
func Global() Option { return func(d *descriptor) { d.global = true } }

// InShadow performs one more lookup with loc inside the host's shadow root.
func InShadow(loc driver.Locator) Option { return func(d *descriptor) { d.shadow = loc } }

// WithArgs forwards initializer arguments to the factory.
func WithArgs(args ...interface{}) Option {
	return func(d *descriptor) { d.args = append(d.args, args...) }
}

func newDescriptor(name string, loc driver.Locator, opts []Option) descriptor {
	d := descriptor{name: name, locator: loc}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d *descriptor) Name() string            { return d.name }
func (d *descriptor) Locator() driver.Locator { return d.locator }

func (d *descriptor) root(scope Scope) (driver.SearchContext, error) {
	if d.global {
		return scope.Page().session, nil
	}
	return scope.searchContext()
}

func (d *descriptor) absent(cause error) *AbsentError {
	return &AbsentError{Name: d.name, Locator: d.locator, Cause: cause}
}

// classify turns a lookup failure into what the element carries: absence
// for no-such-element and missing shadow roots, the wrapped error otherwise.
func (d *descriptor) classify(err error) error {
	var absent *AbsentError
	switch {
	case errors.As(err, &absent):
		// The enclosing element is absent, so this one is too.
		return d.absent(err)
	case errors.Is(err, driver.ErrNoSuchElement), errors.Is(err, driver.ErrNoShadowRoot):
		return d.absent(err)
	default:
		return fmt.Errorf("failed to resolve %q (%s): %w", d.name, d.locator, err)
	}
}

// One declares a single-element binding.
type One[T any] struct {
	descriptor
	factory Factory[T]
}

// NewElement declares a single-element descriptor. T must implement
// Capable; a mismatch panics with ErrInvalidUsage, so package-level
// declarations fail at init.
func NewElement[T any](name string, loc driver.Locator, factory Factory[T], opts ...Option) *One[T] {
	validateLocated[T](name, loc, factory)
	return &One[T]{descriptor: newDescriptor(name, loc, opts), factory: factory}
}

func validateLocated[T any](name string, loc driver.Locator, factory interface{}) {
	if loc.IsZero() {
		panic(invalidUsage("descriptor %q has no locator; declare it with NewContainer", name))
	}
	if !implementsCapable[T]() {
		panic(invalidUsage("descriptor %q: %v does not implement Capable", name, reflect.TypeOf((*T)(nil)).Elem()))
	}
	if reflect.ValueOf(factory).IsNil() {
		panic(invalidUsage("descriptor %q has no factory", name))
	}
}

// Resolve looks the element up afresh and wraps it. Zero matches give an
// absent T; nothing is cached between calls.
func (o *One[T]) Resolve(ctx context.Context, scope Scope) T {
	return o.factory(o.find(ctx, scope), o.args...)
}

// Find is Resolve that also reports why the element is absent.
func (o *One[T]) Find(ctx context.Context, scope Scope) (T, error) {
	base := o.find(ctx, scope)
	return o.factory(base, o.args...), base.err
}

func (o *One[T]) find(ctx context.Context, scope Scope) *Element {
	el := &Element{name: o.name, locator: o.locator, page: scope.Page()}
	node, err := o.lookup(ctx, scope)
	if err != nil {
		el.err = o.classify(err)
		return el
	}
	el.node = node
	return el
}

func (o *One[T]) lookup(ctx context.Context, scope Scope) (driver.Node, error) {
	sc, err := o.root(scope)
	if err != nil {
		return nil, err
	}
	node, err := sc.FindElement(ctx, o.locator)
	if err != nil || o.shadow.IsZero() {
		return node, err
	}
	root, err := node.ShadowRoot(ctx)
	if err != nil {
		return nil, err
	}
	return root.FindElement(ctx, o.shadow)
}

// IsPresent reports whether the element exists and is displayed, probing
// once with no implicit wait. Lookup failures count as not present.
func (o *One[T]) IsPresent(ctx context.Context, scope Scope) bool {
	return o.IsPresentWithin(ctx, scope, 0)
}

// IsPresentWithin is IsPresent with lookups allowed to wait up to timeout.
func (o *One[T]) IsPresentWithin(ctx context.Context, scope Scope, timeout time.Duration) bool {
	var present bool
	_ = wait.WithImplicitWait(scope.Page().session, timeout, func() error {
		node, err := o.lookup(ctx, scope)
		if err != nil {
			return err
		}
		present, err = node.IsDisplayed(ctx)
		return err
	})
	return present
}

// Many declares a list binding.
type Many[T any] struct {
	descriptor
	factory Factory[T]
}

// NewElements declares a list descriptor with the same validation as NewElement.
func NewElements[T any](name string, loc driver.Locator, factory Factory[T], opts ...Option) *Many[T] {
	validateLocated[T](name, loc, factory)
	return &Many[T]{descriptor: newDescriptor(name, loc, opts), factory: factory}
}

// Resolve returns the current matches in document order, each named
// "<name> - item #<i>". No match is an empty collection, not an error.
func (m *Many[T]) Resolve(ctx context.Context, scope Scope) Collection[T] {
	c, _ := m.Find(ctx, scope)
	return c
}

// Find is Resolve that also returns lookup failures other than absence.
func (m *Many[T]) Find(ctx context.Context, scope Scope) (Collection[T], error) {
	page := scope.Page()
	nodes, err := m.nodes(ctx, scope)
	if err != nil {
		if err = m.classify(err); errors.Is(err, ErrAbsent) {
			err = nil
		}
		return Collection[T]{name: m.name, page: page, err: err}, err
	}

	items := make([]T, 0, len(nodes))
	for i, node := range nodes {
		el := &Element{
			name:    fmt.Sprintf("%s - item #%d", m.name, i),
			locator: m.locator,
			node:    node,
			page:    page,
		}
		items = append(items, m.factory(el, m.args...))
	}
	return Collection[T]{name: m.name, items: items, page: page}, nil
}

// nodes collects the matches. With a shadow sub-locator it gathers matches
// inside every host's shadow root; hosts without one contribute nothing.
func (m *Many[T]) nodes(ctx context.Context, scope Scope) ([]driver.Node, error) {
	sc, err := m.root(scope)
	if err != nil {
		return nil, err
	}
	hosts, err := sc.FindElements(ctx, m.locator)
	if err != nil || m.shadow.IsZero() {
		return hosts, err
	}

	var nodes []driver.Node
	for _, host := range hosts {
		root, err := host.ShadowRoot(ctx)
		if errors.Is(err, driver.ErrNoShadowRoot) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found, err := root.FindElements(ctx, m.shadow)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, found...)
	}
	return nodes, nil
}

// Nodes returns the current matches without wrapping them; an absent
// parent yields none.
func (m *Many[T]) Nodes(ctx context.Context, scope Scope) ([]driver.Node, error) {
	nodes, err := m.nodes(ctx, scope)
	if err != nil && errors.Is(m.classify(err), ErrAbsent) {
		return nil, nil
	}
	return nodes, err
}

// Count returns the number of current matches.
func (m *Many[T]) Count(ctx context.Context, scope Scope) (int, error) {
	nodes, err := m.Nodes(ctx, scope)
	return len(nodes), err
}

// IsPresent reports whether there is at least one match and every match is
// displayed, probing once with no implicit wait.
func (m *Many[T]) IsPresent(ctx context.Context, scope Scope) bool {
	return m.IsPresentWithin(ctx, scope, 0)
}

// IsPresentWithin is IsPresent with lookups allowed to wait up to timeout.
func (m *Many[T]) IsPresentWithin(ctx context.Context, scope Scope, timeout time.Duration) bool {
	var present bool
	_ = wait.WithImplicitWait(scope.Page().session, timeout, func() error {
		nodes, err := m.nodes(ctx, scope)
		if err != nil || len(nodes) == 0 {
			return err
		}
		for _, node := range nodes {
			visible, err := node.IsDisplayed(ctx)
			if err != nil || !visible {
				return err
			}
		}
		present = true
		return nil
	})
	return present
}

// WaitNotEmpty waits until the list has a match and returns it resolved.
func (m *Many[T]) WaitNotEmpty(ctx context.Context, scope Scope, timeout time.Duration) (Collection[T], error) {
	if err := scope.Page().WaitForNotEmpty(ctx, scope, m, timeout); err != nil {
		return Collection[T]{name: m.name, page: scope.Page(), err: err}, err
	}
	return m.Find(ctx, scope)
}

// Container declares a locator-less logical grouping resolved against the
// enclosing scope.
type Container[T any] struct {
	name    string
	factory ContainerFactory[T]
	args    []interface{}
}

// NewContainer declares a container. T must not implement Capable and no
// locator options are accepted; violations panic with ErrInvalidUsage.
func NewContainer[T any](name string, factory ContainerFactory[T], opts ...Option) *Container[T] {
	if implementsCapable[T]() {
		panic(invalidUsage("container %q: %v implements Capable; declare it with a locator", name, reflect.TypeOf((*T)(nil)).Elem()))
	}
	if factory == nil {
		panic(invalidUsage("container %q has no factory", name))
	}
	d := newDescriptor(name, driver.Locator{}, opts)
	if d.global || !d.shadow.IsZero() {
		panic(invalidUsage("container %q accepts only WithArgs", name))
	}
	return &Container[T]{name: name, factory: factory, args: d.args}
}

func (c *Container[T]) Name() string { return c.name }

// Resolve builds the container over scope.
func (c *Container[T]) Resolve(scope Scope) T {
	return c.factory(scope, c.name, c.args...)
}
