// internal/browser/htmldoc/session.go
//
// Package htmldoc is a driver.Session over a parsed HTML document. It runs
// no scripts and does no layout; lookups, text, attributes, form state and
// declarative shadow roots behave like a browser's, and pointer gestures are
// recorded instead of dispatched. The inspect command and the page-object
// tests run on it.
package htmldoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/testlab/internal/config"
	"github.com/xkilldash9x/testlab/internal/driver"
	"github.com/xkilldash9x/testlab/internal/wait"
)

// ErrNoRendering is returned for operations that need a rendering engine.
var ErrNoRendering = errors.New("htmldoc: operation needs a rendering engine")

// Session is single-owner like every driver.Session.
type Session struct {
	id     string
	logger *zap.Logger
	client *http.Client

	implicitWait time.Duration
	pollInterval time.Duration

	doc      *html.Node
	source   []byte
	location string
	// fetched marks a document that came from Navigate.
	fetched bool

	width, height int
	actions       []string
	closed        bool
}

var _ driver.Session = (*Session)(nil)

// NewSession returns a session holding an empty document.
func NewSession(cfg config.Interface, logger *zap.Logger) *Session {
	id := uuid.New().String()
	s := &Session{
		id:           id,
		logger:       logger.Named("htmldoc").With(zap.String("session_id", id)),
		client:       &http.Client{Timeout: cfg.Browser().NavigationTimeout},
		implicitWait: cfg.Waits().Implicit,
		pollInterval: cfg.Waits().PollInterval,
		width:        cfg.Browser().Viewport.Width,
		height:       cfg.Browser().Viewport.Height,
	}
	_ = s.Load("<html><head></head><body></body></html>", "about:blank")
	return s
}

func (s *Session) ID() string                      { return s.id }
func (s *Session) ImplicitWait() time.Duration     { return s.implicitWait }
func (s *Session) SetImplicitWait(d time.Duration) { s.implicitWait = d }

// Viewport returns the last size set with SetViewport.
func (s *Session) Viewport() (int, int) { return s.width, s.height }

// Actions returns the gestures and scripts recorded so far, oldest first.
func (s *Session) Actions() []string {
	out := make([]string, len(s.actions))
	copy(out, s.actions)
	return out
}

// Document returns the live document root.
func (s *Session) Document() *html.Node { return s.doc }

// Load replaces the document with markup. Nodes from the old document go
// stale.
func (s *Session) Load(markup, location string) error {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	s.doc, s.source, s.location, s.fetched = doc, []byte(markup), location, false
	return nil
}

// Mutate edits the live document in place. Nodes removed by fn go stale.
func (s *Session) Mutate(fn func(doc *html.Node)) { fn(s.doc) }

// HTML renders the current document.
func (s *Session) HTML() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, s.doc); err != nil {
		return ""
	}
	return buf.String()
}

func (s *Session) record(format string, args ...interface{}) {
	action := fmt.Sprintf(format, args...)
	s.actions = append(s.actions, action)
	s.logger.Debug("Recorded action.", zap.String("action", action))
}

func (s *Session) check() error {
	if s.closed {
		return driver.ErrSessionClosed
	}
	return nil
}

// attached reports whether n still belongs to the current document.
func (s *Session) attached(n *html.Node) bool {
	return topOf(n) == s.doc
}

// find polls the lookup for up to the implicit wait. Nothing matching is an
// empty result; a detached root is stale.
func (s *Session) find(ctx context.Context, root *html.Node, loc driver.Locator) ([]driver.Node, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if loc.IsZero() {
		return nil, fmt.Errorf("%w: empty locator", driver.ErrUnsupportedLocator)
	}
	nodes, err := wait.Until(ctx, s.implicitWait, s.pollInterval, func(ctx context.Context) ([]driver.Node, bool, error) {
		base := root
		if base == nil {
			base = s.doc
		} else if !s.attached(base) {
			return nil, false, driver.ErrStaleElement
		}
		matches, err := query(base, loc)
		if err != nil {
			return nil, false, err
		}
		nodes := make([]driver.Node, 0, len(matches))
		for _, m := range matches {
			nodes = append(nodes, &Node{searchRoot{s: s, root: m}})
		}
		return nodes, len(nodes) > 0, nil
	})
	if errors.Is(err, wait.ErrTimedOut) {
		return nil, nil
	}
	return nodes, err
}

func (s *Session) FindElement(ctx context.Context, loc driver.Locator) (driver.Node, error) {
	return searchRoot{s: s}.FindElement(ctx, loc)
}

func (s *Session) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Node, error) {
	return searchRoot{s: s}.FindElements(ctx, loc)
}

// ExecuteScript records the script. There is no engine to run it, so a
// script whose result is wanted fails.
func (s *Session) ExecuteScript(_ context.Context, script string, res interface{}, args ...interface{}) error {
	if err := s.check(); err != nil {
		return err
	}
	if res != nil {
		return fmt.Errorf("%w: script results", ErrNoRendering)
	}
	targets := make([]string, 0, len(args))
	for _, arg := range args {
		if n, ok := arg.(*Node); ok {
			targets = append(targets, describe(n.root))
			continue
		}
		targets = append(targets, fmt.Sprint(arg))
	}
	s.record("script %q %v", strings.TrimSpace(script), targets)
	return nil
}

func (s *Session) CurrentURL(context.Context) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	return s.location, nil
}

// Navigate loads an http(s) URL, a file:// URL or a file path.
func (s *Session) Navigate(ctx context.Context, location string) error {
	if err := s.check(); err != nil {
		return err
	}
	s.logger.Debug("Navigating.", zap.String("url", location))
	body, err := s.fetch(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", location, err)
	}
	if err := s.Load(string(body), location); err != nil {
		return err
	}
	s.fetched = true
	return nil
}

func (s *Session) fetch(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// A bare path, or a Windows drive letter.
		return os.ReadFile(location)
	}
	switch u.Scheme {
	case "file":
		return os.ReadFile(u.Path)
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	case "about":
		return []byte("<html><head></head><body></body></html>"), nil
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

// Refresh reloads the current location, or re-parses loaded markup.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.fetched {
		return s.Navigate(ctx, s.location)
	}
	return s.Load(string(s.source), s.location)
}

func (s *Session) SetViewport(_ context.Context, width, height int) error {
	if err := s.check(); err != nil {
		return err
	}
	s.width, s.height = width, height
	return nil
}

// Close is idempotent.
func (s *Session) Close(context.Context) error {
	s.closed = true
	return nil
}

// searchRoot is a lookup root: the document (nil), an element or a shadow
// root template.
type searchRoot struct {
	s    *Session
	root *html.Node
}

func (r searchRoot) FindElement(ctx context.Context, loc driver.Locator) (driver.Node, error) {
	nodes, err := r.s.find(ctx, r.root, loc)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", driver.ErrNoSuchElement, loc)
	}
	return nodes[0], nil
}

func (r searchRoot) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Node, error) {
	return r.s.find(ctx, r.root, loc)
}
