// internal/pageobject/helpers_test.go
package pageobject_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/testlab/internal/browser/htmldoc"
	"github.com/xkilldash9x/testlab/internal/config"
	"github.com/xkilldash9x/testlab/internal/driver"
	"github.com/xkilldash9x/testlab/internal/pageobject"
	"github.com/xkilldash9x/testlab/internal/report"
)

// fastTimeouts keeps waits short enough for unit tests.
func fastTimeouts() pageobject.Timeouts {
	return pageobject.Timeouts{
		Implicit:       20 * time.Millisecond,
		Short:          150 * time.Millisecond,
		Element:        150 * time.Millisecond,
		Poll:           10 * time.Millisecond,
		KeysRetryDelay: time.Millisecond,
		KeysRetries:    10,
	}
}

// recordingSink keeps steps and failures for inspection.
type recordingSink struct {
	mu       sync.Mutex
	steps    []string
	failures []*report.AssertionError
}

func (r *recordingSink) Step(_ context.Context, title string) func(error) {
	r.mu.Lock()
	r.steps = append(r.steps, title)
	r.mu.Unlock()
	return func(error) {}
}

func (r *recordingSink) Failure(_ context.Context, f *report.AssertionError) {
	r.mu.Lock()
	r.failures = append(r.failures, f)
	r.mu.Unlock()
}

func (r *recordingSink) Attach(context.Context, report.Capture) error { return nil }

type fixture struct {
	session *htmldoc.Session
	page    *pageobject.Page
	sink    *recordingSink
}

// newFixture loads markup into an offline session with no ambient implicit
// wait and wraps it in a page.
func newFixture(t *testing.T, markup string) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	s := htmldoc.NewSession(config.NewDefaultConfig(), logger)
	s.SetImplicitWait(0)
	require.NoError(t, s.Load(markup, "http://app.test/page"))

	sink := &recordingSink{}
	page := pageobject.NewPage(s,
		pageobject.WithURL("http://app.test/page"),
		pageobject.WithTimeouts(fastTimeouts()),
		pageobject.WithSink(sink),
		pageobject.WithLogger(logger),
	)
	return &fixture{session: s, page: page, sink: sink}
}

// fakeNode is a scripted driver.Node for behaviour the offline session
// cannot produce, such as transient edit failures.
type fakeNode struct {
	texts []string
	reads int

	attrs map[string]string

	keysFailures int
	keysCalls    int
	keysErr      error
	typed        string

	displayed bool
	enabled   bool
}

func newFakeNode() *fakeNode {
	return &fakeNode{displayed: true, enabled: true, attrs: map[string]string{}, keysErr: driver.ErrInvalidElementState}
}

func (f *fakeNode) FindElement(context.Context, driver.Locator) (driver.Node, error) {
	return nil, driver.ErrNoSuchElement
}

func (f *fakeNode) FindElements(context.Context, driver.Locator) ([]driver.Node, error) {
	return nil, nil
}

// Text returns the scripted texts in turn, repeating the last one.
func (f *fakeNode) Text(context.Context) (string, error) {
	if len(f.texts) == 0 {
		return "", nil
	}
	i := f.reads
	if i >= len(f.texts) {
		i = len(f.texts) - 1
	}
	f.reads++
	return f.texts[i], nil
}

func (f *fakeNode) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := f.attrs[name]
	return v, ok, nil
}

func (f *fakeNode) Click(context.Context) error { return nil }
func (f *fakeNode) Clear(context.Context) error { return nil }

func (f *fakeNode) SendKeys(_ context.Context, keys string) error {
	f.keysCalls++
	if f.keysCalls <= f.keysFailures {
		return f.keysErr
	}
	f.typed = keys
	return nil
}

func (f *fakeNode) IsEnabled(context.Context) (bool, error)   { return f.enabled, nil }
func (f *fakeNode) IsDisplayed(context.Context) (bool, error) { return f.displayed, nil }

func (f *fakeNode) ShadowRoot(context.Context) (driver.SearchContext, error) {
	return nil, driver.ErrNoShadowRoot
}

func (f *fakeNode) Screenshot(context.Context) ([]byte, error) { return []byte("png"), nil }
