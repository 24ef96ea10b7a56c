// internal/pageobject/collection.go
package pageobject

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/xkilldash9x/testlab/internal/report"
)

// ErrNoAttribute is returned by AttributeOf when a member lacks the attribute.
var ErrNoAttribute = errors.New("attribute not set")

// Collection is an ordered, named snapshot of a list descriptor's matches.
// Like Element it is discarded after the operation that resolved it.
type Collection[T any] struct {
	name  string
	items []T
	page  *Page
	// err is a lookup failure other than absence.
	err error
}

func (c Collection[T]) Name() string { return c.name }
func (c Collection[T]) Len() int     { return len(c.items) }
func (c Collection[T]) At(i int) T   { return c.items[i] }
func (c Collection[T]) Err() error   { return c.err }

// Items returns a copy of the members in document order.
func (c Collection[T]) Items() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Texts reads every member's text.
func (c Collection[T]) Texts(ctx context.Context) ([]string, error) {
	return c.values(ctx, TextOf[T]())
}

// ValueSource extracts one comparable string from a member.
type ValueSource[T any] func(ctx context.Context, item T) (string, error)

// TextOf reads the member's text.
func TextOf[T any]() ValueSource[T] {
	return func(ctx context.Context, item T) (string, error) {
		return asBase(item).Text(ctx)
	}
}

// AttributeOf reads a named attribute of the member. A member without it
// yields ErrNoAttribute.
func AttributeOf[T any](name string) ValueSource[T] {
	return func(ctx context.Context, item T) (string, error) {
		el := asBase(item)
		v, ok, err := el.Attribute(ctx, name)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: %s of %q", ErrNoAttribute, name, el.Name())
		}
		return v, nil
	}
}

// ChildText reads the text of a sub-element declared on the member type.
// An absent sub-element yields its *AbsentError.
func ChildText[T any](child func(ctx context.Context, item T) Capable) ValueSource[T] {
	return func(ctx context.Context, item T) (string, error) {
		return child(ctx, item).Base().Text(ctx)
	}
}

func (c Collection[T]) values(ctx context.Context, source ValueSource[T]) ([]string, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make([]string, 0, len(c.items))
	for _, item := range c.items {
		v, err := source(ctx, item)
		if errors.Is(err, ErrNoAttribute) {
			v, err = "", nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// HasSize checks the number of members.
func (c Collection[T]) HasSize(ctx context.Context, n int) (err error) {
	end := c.page.Step(ctx, fmt.Sprintf("%q has %d items", c.name, n))
	defer func() { end(err) }()

	if c.err != nil {
		return c.err
	}
	return c.checkSize(ctx, n, len(c.items), "items")
}

// HasSizeWhere counts only members for which source yields a value; a
// missing attribute or an absent sub-element does not count.
func (c Collection[T]) HasSizeWhere(ctx context.Context, n int, source ValueSource[T]) (err error) {
	end := c.page.Step(ctx, fmt.Sprintf("%q has %d items with the attribute set", c.name, n))
	defer func() { end(err) }()

	if c.err != nil {
		return c.err
	}
	count := 0
	for _, item := range c.items {
		_, serr := source(ctx, item)
		switch {
		case serr == nil:
			count++
		case errors.Is(serr, ErrNoAttribute), errors.Is(serr, ErrAbsent):
		default:
			return serr
		}
	}
	return c.checkSize(ctx, n, count, "matching items")
}

func (c Collection[T]) checkSize(ctx context.Context, expected, actual int, noun string) error {
	if expected == actual {
		return nil
	}
	return c.page.Fail(ctx, &report.AssertionError{
		Subject:  c.name,
		Message:  fmt.Sprintf("expected %d %s, got %d", expected, noun, actual),
		Expected: expected,
		Actual:   actual,
	})
}

// HasValues compares the members' texts with values.
func (c Collection[T]) HasValues(ctx context.Context, values []string, inAnyOrder bool) error {
	return c.HasValuesOf(ctx, values, inAnyOrder, TextOf[T]())
}

// HasValuesOf compares the values source extracts with values. inAnyOrder
// sorts both sides first, so any permutation of the same multiset passes.
func (c Collection[T]) HasValuesOf(ctx context.Context, values []string, inAnyOrder bool, source ValueSource[T]) (err error) {
	end := c.page.Step(ctx, fmt.Sprintf("%q has values %q (any order: %v)", c.name, values, inAnyOrder))
	defer func() { end(err) }()

	actual, err := c.values(ctx, source)
	if err != nil {
		return err
	}
	expected := append([]string(nil), values...)
	if inAnyOrder {
		sort.Strings(expected)
		sort.Strings(actual)
	}
	if cmp.Equal(expected, actual, cmpopts.EquateEmpty()) {
		return nil
	}
	return c.page.Fail(ctx, &report.AssertionError{
		Subject:  c.name,
		Message:  "values do not match",
		Expected: expected,
		Actual:   actual,
		Diff:     cmp.Diff(expected, actual, cmpopts.EquateEmpty()),
	})
}

// HasText checks that some member's text equals text.
func (c Collection[T]) HasText(ctx context.Context, text string) (err error) {
	end := c.page.Step(ctx, fmt.Sprintf("%q contains an item with text %q", c.name, text))
	defer func() { end(err) }()
	return c.membership(ctx, text, true)
}

// HasNoText checks that no member's text equals text.
func (c Collection[T]) HasNoText(ctx context.Context, text string) (err error) {
	end := c.page.Step(ctx, fmt.Sprintf("%q has no item with text %q", c.name, text))
	defer func() { end(err) }()
	return c.membership(ctx, text, false)
}

func (c Collection[T]) membership(ctx context.Context, text string, want bool) error {
	texts, err := c.Texts(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, t := range texts {
		if t == text {
			found = true
			break
		}
	}
	if found == want {
		return nil
	}
	msg := fmt.Sprintf("text %q not found among items", text)
	if !want {
		msg = fmt.Sprintf("text %q is present among items", text)
	}
	return c.page.Fail(ctx, &report.AssertionError{
		Subject:  c.name,
		Message:  msg,
		Expected: text,
		Actual:   texts,
	})
}
