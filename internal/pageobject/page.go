// internal/pageobject/page.go
package pageobject

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/testlab/internal/config"
	"github.com/xkilldash9x/testlab/internal/driver"
	"github.com/xkilldash9x/testlab/internal/report"
	"github.com/xkilldash9x/testlab/internal/wait"
)

// Scope is a resolution context: a Page (the session root) or a resolved
// element. Descriptors resolve relative to a Scope.
type Scope interface {
	Page() *Page
	searchContext() (driver.SearchContext, error)
}

// Timeouts groups every duration the page objects wait on.
type Timeouts struct {
	// Implicit bounds disappearance waits called without a timeout.
	Implicit time.Duration
	// Short bounds text assertions.
	Short time.Duration
	// Element bounds clickability and visibility waits.
	Element        time.Duration
	Poll           time.Duration
	KeysRetryDelay time.Duration
	KeysRetries    int
}

// DefaultTimeouts mirrors the configuration defaults.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Implicit:       100 * time.Millisecond,
		Short:          2 * time.Second,
		Element:        3 * time.Second,
		Poll:           wait.DefaultInterval,
		KeysRetryDelay: 200 * time.Millisecond,
		KeysRetries:    10,
	}
}

// TimeoutsFromConfig converts the waits configuration section.
func TimeoutsFromConfig(cfg config.WaitsConfig) Timeouts {
	return Timeouts{
		Implicit:       cfg.Implicit,
		Short:          cfg.Short,
		Element:        cfg.Element,
		Poll:           cfg.PollInterval,
		KeysRetryDelay: cfg.KeysRetryDelay,
		KeysRetries:    cfg.KeysRetries,
	}
}

// Page is the root resolution context. It holds an explicit session rather
// than reaching for a global one, so independent pages on independent
// sessions can run in parallel.
type Page struct {
	session  driver.Session
	url      string
	timeouts Timeouts
	waits    *wait.Controller
	sink     report.Sink
	logger   *zap.Logger
}

// PageOption configures a Page.
type PageOption func(*Page)

func WithURL(url string) PageOption            { return func(p *Page) { p.url = url } }
func WithTimeouts(t Timeouts) PageOption       { return func(p *Page) { p.timeouts = t } }
func WithSink(sink report.Sink) PageOption     { return func(p *Page) { p.sink = sink } }
func WithLogger(logger *zap.Logger) PageOption { return func(p *Page) { p.logger = logger } }

// NewPage borrows session. The caller keeps ownership and closes it.
func NewPage(session driver.Session, opts ...PageOption) *Page {
	p := &Page{
		session:  session,
		timeouts: DefaultTimeouts(),
		sink:     report.Nop(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("pageobject")
	p.waits = wait.NewController(session, p.timeouts.Element, p.timeouts.Poll)
	return p
}

// OpenPage acquires the provider's session and wraps it in a Page.
func OpenPage(ctx context.Context, provider driver.Provider, opts ...PageOption) (*Page, error) {
	session, err := provider.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	return NewPage(session, opts...), nil
}

func (p *Page) Page() *Page                                  { return p }
func (p *Page) searchContext() (driver.SearchContext, error) { return p.session, nil }

func (p *Page) Session() driver.Session { return p.session }
func (p *Page) URL() string             { return p.url }
func (p *Page) Timeouts() Timeouts      { return p.timeouts }
func (p *Page) Waits() *wait.Controller { return p.waits }
func (p *Page) Sink() report.Sink       { return p.sink }
func (p *Page) Logger() *zap.Logger     { return p.logger }

// Open navigates to the page URL.
func (p *Page) Open(ctx context.Context) (err error) {
	if p.url == "" {
		return errors.New("page url is not set")
	}
	end := p.Step(ctx, "Open "+p.url)
	defer func() { end(err) }()
	return p.session.Navigate(ctx, p.url)
}

// Refresh reloads the current document.
func (p *Page) Refresh(ctx context.Context) (err error) {
	end := p.Step(ctx, "Reload the current page")
	defer func() { end(err) }()
	return p.session.Refresh(ctx)
}

// CurrentURL returns the session's current URL, or "" when it cannot be read.
func (p *Page) CurrentURL(ctx context.Context) string {
	u, err := p.session.CurrentURL(ctx)
	if err != nil {
		p.logger.Debug("Could not read current url.", zap.Error(err))
		return ""
	}
	return u
}

// Attach hands a capture to the report sink.
func (p *Page) Attach(ctx context.Context, capture report.Capture) error {
	return p.sink.Attach(ctx, capture)
}

// WaitForElementToDisplay waits until el is displayed. A non-positive
// timeout uses the session's current implicit wait.
func (p *Page) WaitForElementToDisplay(ctx context.Context, el Capable, timeout time.Duration) (err error) {
	base := el.Base()
	end := p.Step(ctx, fmt.Sprintf("Wait for element %q to display", base.Name()))
	defer func() { end(err) }()

	if timeout <= 0 {
		timeout = p.session.ImplicitWait()
	}
	_, werr := wait.Until(ctx, timeout, p.waits.Interval(), displayed(base, true))
	if werr == nil {
		return nil
	}
	msg := fmt.Sprintf("element was not displayed within %v", timeout)
	if errors.Is(werr, ErrAbsent) {
		msg = "element is absent from the page"
	}
	return p.Fail(ctx, &report.AssertionError{Subject: base.Name(), Message: msg, Cause: werr})
}

// WaitForElementToDisappear waits until el is hidden or detached. An absent
// element has nothing to wait for.
func (p *Page) WaitForElementToDisappear(ctx context.Context, el Capable, timeout time.Duration) (err error) {
	base := el.Base()
	end := p.Step(ctx, fmt.Sprintf("Wait for element %q to disappear within %v", base.Name(), timeout))
	defer func() { end(err) }()

	if !base.Present() {
		return nil
	}
	if timeout <= 0 {
		timeout = p.timeouts.Implicit
	}
	return p.waits.NoWait(func() error {
		_, werr := wait.Until(ctx, timeout, p.waits.Interval(), displayed(base, false))
		if werr == nil || errors.Is(werr, wait.ErrStaleOrMissing) {
			// Detached counts as gone.
			return nil
		}
		return p.Fail(ctx, &report.AssertionError{
			Subject: base.Name(),
			Message: "element is still present on the page",
			Cause:   werr,
		})
	})
}

// Lister is a list descriptor that can report its current matches.
type Lister interface {
	Name() string
	Nodes(ctx context.Context, scope Scope) ([]driver.Node, error)
}

// WaitForNotEmpty waits until list has at least one match under scope. A
// non-positive timeout uses the element timeout.
func (p *Page) WaitForNotEmpty(ctx context.Context, scope Scope, list Lister, timeout time.Duration) (err error) {
	end := p.Step(ctx, fmt.Sprintf("Wait for list %q to be non-empty", list.Name()))
	defer func() { end(err) }()

	return p.waits.NoWait(func() error {
		_, werr := wait.For(ctx, p.waits, timeout, wait.ItemsNotEmpty(func(ctx context.Context) ([]driver.Node, error) {
			return list.Nodes(ctx, scope)
		}))
		if werr == nil {
			return nil
		}
		return p.Fail(ctx, &report.AssertionError{
			Subject: list.Name(),
			Message: "list is still empty",
			Cause:   werr,
		})
	})
}

// DragAndDropToElement drags source onto target.
func (p *Page) DragAndDropToElement(ctx context.Context, source, target Capable) (err error) {
	src, dst := source.Base(), target.Base()
	end := p.Step(ctx, fmt.Sprintf("Drag %q to %q", src.Name(), dst.Name()))
	defer func() { end(err) }()

	srcNode, err := src.live()
	if err != nil {
		return err
	}
	dstNode, err := dst.live()
	if err != nil {
		return err
	}
	return p.session.DragAndDrop(ctx, srcNode, dstNode)
}

// MoveByOffset moves the pointer relative to its current position.
func (p *Page) MoveByOffset(ctx context.Context, dx, dy float64) (err error) {
	end := p.Step(ctx, fmt.Sprintf("Move pointer by x=%v y=%v", dx, dy))
	defer func() { end(err) }()
	return p.session.MoveByOffset(ctx, dx, dy)
}

// Pause blocks for d. It exists so fixed waits show up as report steps.
func (p *Page) Pause(ctx context.Context, d time.Duration) (err error) {
	end := p.Step(ctx, fmt.Sprintf("Wait %v", d))
	defer func() { end(err) }()
	return wait.Sleep(ctx, d)
}

// Step opens a report step; call the returned func with the outcome.
func (p *Page) Step(ctx context.Context, title string) func(error) {
	return p.sink.Step(ctx, title)
}

// Fail stamps the failure with the current URL, forwards it to the sink and
// returns it.
func (p *Page) Fail(ctx context.Context, failure *report.AssertionError) error {
	if failure.URL == "" {
		failure.URL = p.CurrentURL(ctx)
	}
	p.sink.Failure(ctx, failure)
	return failure
}

func displayed(el *Element, want bool) wait.Predicate[bool] {
	return func(ctx context.Context) (bool, bool, error) {
		visible, err := el.IsDisplayed(ctx)
		if err != nil {
			return false, false, err
		}
		return visible, visible == want, nil
	}
}
