// internal/pageobject/element.go
package pageobject

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/testlab/internal/driver"
	"github.com/xkilldash9x/testlab/internal/report"
	"github.com/xkilldash9x/testlab/internal/wait"
)

// Capable is the element capability set. Every type a located descriptor
// resolves into implements it, usually by embedding *Element.
type Capable interface {
	Base() *Element
}

// Element is a resolved node with synchronized interaction operations. It
// is an ephemeral handle: descriptors build a new one on every access and
// nothing should keep it beyond the operation at hand.
//
// An Element may be absent (resolution found nothing). Every operation on
// an absent element returns an *AbsentError naming it.
type Element struct {
	name    string
	locator driver.Locator
	node    driver.Node
	page    *Page
	// err is why the element is not present; nil when node is set.
	err error
}

var _ Capable = (*Element)(nil)
var _ Scope = (*Element)(nil)

// Wrap builds a present Element around a node obtained outside a descriptor.
func Wrap(page *Page, name string, node driver.Node) *Element {
	return &Element{name: name, node: node, page: page}
}

// AsElement is the factory for descriptors that need no richer type.
func AsElement(el *Element, _ ...interface{}) *Element { return el }

func (e *Element) Base() *Element          { return e }
func (e *Element) Page() *Page             { return e.page }
func (e *Element) Name() string            { return e.name }
func (e *Element) String() string          { return e.name }
func (e *Element) Locator() driver.Locator { return e.locator }
func (e *Element) Present() bool           { return e.node != nil }

// Err returns why the element is absent, or nil.
func (e *Element) Err() error { return e.err }

// Node exposes the underlying handle for operations the wrapper lacks.
func (e *Element) Node() (driver.Node, error) { return e.live() }

func (e *Element) searchContext() (driver.SearchContext, error) {
	return e.live()
}

func (e *Element) live() (driver.Node, error) {
	if e.node != nil {
		return e.node, nil
	}
	if e.err != nil {
		return nil, e.err
	}
	return nil, &AbsentError{Name: e.name, Locator: e.locator}
}

func (e *Element) logger() *zap.Logger {
	return e.page.logger.With(zap.String("element", e.name))
}

// -- Reads --

// Text returns the node's rendered text.
func (e *Element) Text(ctx context.Context) (string, error) {
	node, err := e.live()
	if err != nil {
		return "", err
	}
	return node.Text(ctx)
}

// Attribute returns the named property or attribute; ok is false when the
// node has neither.
func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	node, err := e.live()
	if err != nil {
		return "", false, err
	}
	return node.Attribute(ctx, name)
}

func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	node, err := e.live()
	if err != nil {
		return false, err
	}
	return node.IsDisplayed(ctx)
}

func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	node, err := e.live()
	if err != nil {
		return false, err
	}
	return node.IsEnabled(ctx)
}

// Int interprets the text as an integer after removing grouping spaces.
func (e *Element) Int(ctx context.Context) (int, error) {
	text, err := e.Text(ctx)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(stripGrouping(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %q of %q", ErrNotNumeric, text, e.name)
	}
	return n, nil
}

// Float interprets the text as a decimal after removing grouping spaces.
func (e *Element) Float(ctx context.Context) (float64, error) {
	text, err := e.Text(ctx)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(stripGrouping(text), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q of %q", ErrNotNumeric, text, e.name)
	}
	return f, nil
}

// stripGrouping removes the whitespace used as thousands separators,
// including no-break and thin spaces.
func stripGrouping(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u2009', '\u202f', '\t', '\n':
			return -1
		}
		return r
	}, s)
}

// IsScrollable reports whether the content overflows vertically.
func (e *Element) IsScrollable(ctx context.Context) (bool, error) {
	scrollHeight, err := e.intAttribute(ctx, "scrollHeight")
	if err != nil {
		return false, err
	}
	offsetHeight, err := e.intAttribute(ctx, "offsetHeight")
	if err != nil {
		return false, err
	}
	return scrollHeight > offsetHeight, nil
}

func (e *Element) intAttribute(ctx context.Context, name string) (int, error) {
	raw, ok, err := e.Attribute(ctx, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("element %q has no %s", e.name, name)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("element %q: %s=%q: %w", e.name, name, raw, ErrNotNumeric)
	}
	return int(f), nil
}

// Screenshot captures the element after scrolling it into view. Storing the
// capture is left to the report sink (see Page.Attach).
func (e *Element) Screenshot(ctx context.Context) (capture report.Capture, err error) {
	end := e.page.Step(ctx, fmt.Sprintf("Capture element %q", e.name))
	defer func() { end(err) }()

	node, err := e.live()
	if err != nil {
		return report.Capture{}, err
	}
	if err := e.scrollIntoView(ctx, node); err != nil {
		return report.Capture{}, err
	}
	png, err := node.Screenshot(ctx)
	if err != nil {
		return report.Capture{}, fmt.Errorf("failed to capture %q: %w", e.name, err)
	}
	return report.Capture{Name: e.name, PNG: png}, nil
}

// -- Interactions --

// Click waits until the element is displayed and enabled, clicks it, and
// optionally pauses afterwards so animations can settle.
func (e *Element) Click(ctx context.Context, pauseAfter ...time.Duration) (err error) {
	end := e.page.Step(ctx, fmt.Sprintf("Click element %q", e.name))
	defer func() { end(err) }()

	node, err := e.waitClickable(ctx)
	if err != nil {
		return err
	}
	if err := node.Click(ctx); err != nil {
		return fmt.Errorf("failed to click %q: %w", e.name, err)
	}
	for _, d := range pauseAfter {
		if err := wait.Sleep(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// DoubleClick waits for clickability and dispatches a double click.
func (e *Element) DoubleClick(ctx context.Context) (err error) {
	end := e.page.Step(ctx, fmt.Sprintf("Double-click element %q", e.name))
	defer func() { end(err) }()

	node, err := e.waitClickable(ctx)
	if err != nil {
		return err
	}
	return e.page.session.DoubleClick(ctx, node)
}

func (e *Element) waitClickable(ctx context.Context) (driver.Node, error) {
	node, err := e.live()
	if err != nil {
		return nil, err
	}
	_, err = wait.For(ctx, e.page.waits, e.page.timeouts.Element, func(ctx context.Context) (bool, bool, error) {
		visible, err := node.IsDisplayed(ctx)
		if err != nil || !visible {
			return false, false, err
		}
		enabled, err := node.IsEnabled(ctx)
		return enabled, enabled, err
	})
	if err != nil {
		return nil, fmt.Errorf("element %q is not clickable: %w", e.name, err)
	}
	return node, nil
}

// SendKeys clears the element and types value.
func (e *Element) SendKeys(ctx context.Context, value string) (err error) {
	end := e.page.Step(ctx, fmt.Sprintf("Type %q into %q", value, e.name))
	defer func() { end(err) }()
	return e.typeKeys(ctx, value, true)
}

// AppendKeys types value without clearing first.
func (e *Element) AppendKeys(ctx context.Context, value string) (err error) {
	end := e.page.Step(ctx, fmt.Sprintf("Append %q to %q", value, e.name))
	defer func() { end(err) }()
	return e.typeKeys(ctx, value, false)
}

// typeKeys runs clear+type, retrying the whole sequence while the node
// reports a transient state. The last failure is returned as is.
func (e *Element) typeKeys(ctx context.Context, value string, clear bool) error {
	node, err := e.live()
	if err != nil {
		return err
	}

	retries := e.page.timeouts.KeysRetries
	for attempt := 0; ; attempt++ {
		err = enterKeys(ctx, node, value, clear)
		if err == nil || !retryableKeysError(err) || attempt >= retries {
			return err
		}
		e.logger().Debug("Element not editable yet, retrying.", zap.Int("attempt", attempt+1), zap.Error(err))
		if serr := wait.Sleep(ctx, e.page.timeouts.KeysRetryDelay); serr != nil {
			return serr
		}
	}
}

func enterKeys(ctx context.Context, node driver.Node, value string, clear bool) error {
	if clear {
		if err := node.Clear(ctx); err != nil {
			return err
		}
	}
	return node.SendKeys(ctx, value)
}

// retryableKeysError reports transient edit failures. A stale handle never
// becomes live again, so it is not retried.
func retryableKeysError(err error) bool {
	return errors.Is(err, driver.ErrInvalidElementState)
}

// ScrollIntoView centers the element in the viewport.
func (e *Element) ScrollIntoView(ctx context.Context) (err error) {
	end := e.page.Step(ctx, fmt.Sprintf("Scroll to element %q", e.name))
	defer func() { end(err) }()

	node, err := e.live()
	if err != nil {
		return err
	}
	return e.scrollIntoView(ctx, node)
}

func (e *Element) scrollIntoView(ctx context.Context, node driver.Node) error {
	return e.page.session.ExecuteScript(ctx,
		`arguments[0].scrollIntoView({block: "center", inline: "center"})`, nil, node)
}

// DragAndDropByOffset drags the element by (dx, dy) pixels.
func (e *Element) DragAndDropByOffset(ctx context.Context, dx, dy float64) (err error) {
	end := e.page.Step(ctx, fmt.Sprintf("Drag element %q by x=%v y=%v", e.name, dx, dy))
	defer func() { end(err) }()

	node, err := e.live()
	if err != nil {
		return err
	}
	return e.page.session.DragAndDropByOffset(ctx, node, dx, dy)
}

// MoveTo moves the pointer over the element.
func (e *Element) MoveTo(ctx context.Context) (err error) {
	end := e.page.Step(ctx, fmt.Sprintf("Move pointer to element %q", e.name))
	defer func() { end(err) }()

	node, err := e.live()
	if err != nil {
		return err
	}
	return e.page.session.MoveTo(ctx, node)
}

// ClickAndHold presses at the current pointer position and releases over
// the element.
func (e *Element) ClickAndHold(ctx context.Context) (err error) {
	end := e.page.Step(ctx, fmt.Sprintf("Press and release pointer over element %q", e.name))
	defer func() { end(err) }()

	node, err := e.live()
	if err != nil {
		return err
	}
	return e.page.session.ClickAndHoldRelease(ctx, node)
}

// -- Assertions --

// HasText waits (short wait) until the text equals one of candidates.
func (e *Element) HasText(ctx context.Context, candidates ...string) error {
	return e.HasTextWithin(ctx, 0, candidates...)
}

// HasTextWithin is HasText with an explicit timeout; zero means the short wait.
func (e *Element) HasTextWithin(ctx context.Context, timeout time.Duration, candidates ...string) (err error) {
	end := e.page.Step(ctx, fmt.Sprintf("Text of %q is one of %q", e.name, candidates))
	defer func() { end(err) }()
	return e.awaitText(ctx, timeout, candidates, wait.HasText(e, candidates...), "does not match")
}

// ContainsText waits (short wait) until the text contains one of candidates.
func (e *Element) ContainsText(ctx context.Context, candidates ...string) error {
	return e.ContainsTextWithin(ctx, 0, candidates...)
}

// ContainsTextWithin is ContainsText with an explicit timeout.
func (e *Element) ContainsTextWithin(ctx context.Context, timeout time.Duration, candidates ...string) (err error) {
	end := e.page.Step(ctx, fmt.Sprintf("Text of %q contains one of %q", e.name, candidates))
	defer func() { end(err) }()
	return e.awaitText(ctx, timeout, candidates, wait.ContainsText(e, candidates...), "is not contained in")
}

// awaitText polls pred with the implicit wait held at zero so each text
// read is a single round trip.
func (e *Element) awaitText(ctx context.Context, timeout time.Duration, candidates []string, pred wait.Predicate[string], relation string) error {
	if timeout <= 0 {
		timeout = e.page.timeouts.Short
	}
	return e.page.waits.NoWait(func() error {
		_, werr := wait.Until(ctx, timeout, e.page.waits.Interval(), pred)
		if werr == nil {
			return nil
		}
		actual, _ := e.Text(ctx)
		return e.page.Fail(ctx, &report.AssertionError{
			Subject:  e.name,
			Message:  fmt.Sprintf("expected text %q %s the element text %q", candidates, relation, actual),
			Expected: candidates,
			Actual:   actual,
			Cause:    werr,
		})
	})
}

// WaitForText waits until the element renders any text and returns it. A
// zero timeout means the element wait.
func (e *Element) WaitForText(ctx context.Context, timeout time.Duration) (text string, err error) {
	end := e.page.Step(ctx, fmt.Sprintf("Wait for text in %q", e.name))
	defer func() { end(err) }()

	if _, err := e.live(); err != nil {
		return "", err
	}
	if timeout <= 0 {
		timeout = e.page.timeouts.Element
	}
	err = e.page.waits.NoWait(func() error {
		var werr error
		if text, werr = wait.Until(ctx, timeout, e.page.waits.Interval(), wait.TextNotEmpty(e)); werr == nil {
			return nil
		}
		return e.page.Fail(ctx, &report.AssertionError{
			Subject: e.name,
			Message: "element text is still empty",
			Cause:   werr,
		})
	})
	return text, err
}

// WaitForNoText waits until the element's text is empty.
func (e *Element) WaitForNoText(ctx context.Context, timeout time.Duration) (err error) {
	end := e.page.Step(ctx, fmt.Sprintf("Wait for %q to have no text", e.name))
	defer func() { end(err) }()

	if _, err := e.live(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = e.page.timeouts.Element
	}
	return e.page.waits.NoWait(func() error {
		_, werr := wait.Until(ctx, timeout, e.page.waits.Interval(), wait.TextEmpty(e))
		if werr == nil {
			return nil
		}
		actual, _ := e.Text(ctx)
		return e.page.Fail(ctx, &report.AssertionError{
			Subject: e.name,
			Message: fmt.Sprintf("element text %q did not clear", actual),
			Actual:  actual,
			Cause:   werr,
		})
	})
}

// ContainsAttributeValue reads attribute once and checks value is a
// substring of it. An empty attribute or "text" reads the element text.
func (e *Element) ContainsAttributeValue(ctx context.Context, value, attribute string) (err error) {
	if attribute == "" {
		attribute = "text"
	}
	end := e.page.Step(ctx, fmt.Sprintf("Attribute %s of %q contains %q", attribute, e.name, value))
	defer func() { end(err) }()

	var actual string
	var ok bool
	if attribute == "text" {
		actual, err = e.Text(ctx)
		ok = err == nil
	} else {
		actual, ok, err = e.Attribute(ctx, attribute)
	}
	if err != nil {
		return err
	}
	if ok && strings.Contains(actual, value) {
		return nil
	}
	return e.page.Fail(ctx, &report.AssertionError{
		Subject:  e.name,
		Message:  fmt.Sprintf("attribute %s does not contain %q", attribute, value),
		Expected: value,
		Actual:   actual,
	})
}

// HasState checks the enabled state.
func (e *Element) HasState(ctx context.Context, enabled bool) (err error) {
	end := e.page.Step(ctx, fmt.Sprintf("Element %q has enabled=%v", e.name, enabled))
	defer func() { end(err) }()

	actual, err := e.IsEnabled(ctx)
	if err != nil {
		return err
	}
	if actual == enabled {
		return nil
	}
	return e.page.Fail(ctx, &report.AssertionError{
		Subject:  e.name,
		Message:  "enabled state does not match",
		Expected: enabled,
		Actual:   actual,
	})
}
