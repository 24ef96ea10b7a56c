// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/testlab/internal/config"
	"github.com/xkilldash9x/testlab/internal/driver"
	"github.com/xkilldash9x/testlab/internal/wait"
)

type runActionsFunc func(ctx context.Context, actions ...chromedp.Action) error

// Session is a driver.Session backed by one Chrome tab. Like every
// driver.Session it is single-owner and does no locking.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	implicitWait      time.Duration
	pollInterval      time.Duration
	navigationTimeout time.Duration

	// Last pointer position, for relative moves.
	pointerX, pointerY float64

	closed  bool
	onClose func()

	runActionsFunc runActionsFunc
}

var _ driver.Session = (*Session)(nil)

// NewSession wraps a chromedp tab context. cancel closes the tab.
func NewSession(ctx context.Context, cancel context.CancelFunc, cfg config.Interface, logger *zap.Logger) *Session {
	id := uuid.New().String()
	s := &Session{
		id:                id,
		ctx:               ctx,
		cancel:            cancel,
		logger:            logger.With(zap.String("session_id", id)),
		implicitWait:      cfg.Waits().Implicit,
		pollInterval:      cfg.Waits().PollInterval,
		navigationTimeout: cfg.Browser().NavigationTimeout,
	}
	s.runActionsFunc = s.runActions
	return s
}

func (s *Session) ID() string                      { return s.id }
func (s *Session) ImplicitWait() time.Duration     { return s.implicitWait }
func (s *Session) SetImplicitWait(d time.Duration) { s.implicitWait = d }

// runActions runs actions on the tab, bounded by both the session's
// lifetime and ctx.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if s.closed {
		return driver.ErrSessionClosed
	}
	return mapError(s.runActionsFunc(ctx, actions...))
}

// callFunction calls decl with this bound to objectID. When res is non-nil
// the result is returned by value and decoded into res; otherwise the
// remote object is returned.
func (s *Session) callFunction(ctx context.Context, objectID runtime.RemoteObjectID, decl string, res interface{}, nodeArgs ...*Node) (*runtime.RemoteObject, error) {
	args := make([]*runtime.CallArgument, 0, len(nodeArgs))
	for _, n := range nodeArgs {
		args = append(args, &runtime.CallArgument{ObjectID: n.id})
	}

	var obj *runtime.RemoteObject
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		p := runtime.CallFunctionOn(decl).
			WithObjectID(objectID).
			WithArguments(args).
			WithAwaitPromise(true).
			WithReturnByValue(res != nil)
		ro, exception, err := p.Do(ctx)
		if err != nil {
			return err
		}
		if exception != nil {
			return exception
		}
		obj = ro
		return nil
	}))
	if err != nil {
		return nil, err
	}
	if res != nil && obj != nil && len(obj.Value) > 0 {
		if err := json.Unmarshal([]byte(obj.Value), res); err != nil {
			return nil, fmt.Errorf("failed to decode script result: %w", err)
		}
	}
	return obj, nil
}

// document returns a handle to the current document.
func (s *Session) document(ctx context.Context) (runtime.RemoteObjectID, error) {
	var id runtime.RemoteObjectID
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		ro, exception, err := runtime.Evaluate("document").Do(ctx)
		if err != nil {
			return err
		}
		if exception != nil {
			return exception
		}
		id = ro.ObjectID
		return nil
	}))
	return id, err
}

// queryAll runs one lookup under objectID, the document when empty.
func (s *Session) queryAll(ctx context.Context, objectID runtime.RemoteObjectID, loc driver.Locator) ([]driver.Node, error) {
	if objectID == "" {
		doc, err := s.document(ctx)
		if err != nil {
			return nil, err
		}
		objectID = doc
	}
	arr, err := s.callFunction(ctx, objectID, queryScript(loc), nil)
	if err != nil {
		return nil, err
	}
	if arr == nil || arr.ObjectID == "" {
		return nil, nil
	}
	var n int
	if _, err := s.callFunction(ctx, arr.ObjectID, lengthScript, &n); err != nil {
		return nil, err
	}
	nodes := make([]driver.Node, 0, n)
	for i := 0; i < n; i++ {
		item, err := s.callFunction(ctx, arr.ObjectID, itemScript(i), nil)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, &Node{searchRoot{s: s, id: item.ObjectID}})
	}
	return nodes, nil
}

// find polls queryAll for up to the implicit wait until something matches.
// Nothing matching is an empty result.
func (s *Session) find(ctx context.Context, objectID runtime.RemoteObjectID, loc driver.Locator) ([]driver.Node, error) {
	if loc.IsZero() {
		return nil, fmt.Errorf("%w: empty locator", driver.ErrUnsupportedLocator)
	}
	nodes, err := wait.Until(ctx, s.implicitWait, s.pollInterval, func(ctx context.Context) ([]driver.Node, bool, error) {
		nodes, err := s.queryAll(ctx, objectID, loc)
		return nodes, len(nodes) > 0, err
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

// ExecuteScript runs script with args bound to arguments[i]. *Node
// arguments are passed as element references.
func (s *Session) ExecuteScript(ctx context.Context, script string, res interface{}, args ...interface{}) error {
	decl, nodes := userScript(script, args)
	doc, err := s.document(ctx)
	if err != nil {
		return err
	}
	_, err = s.callFunction(ctx, doc, decl, res, nodes...)
	return err
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var u string
	err := s.run(ctx, chromedp.Location(&u))
	return u, err
}

// Navigate loads url and waits for the document, bounded by the configured
// navigation timeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if s.navigationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.navigationTimeout)
		defer cancel()
	}
	s.logger.Debug("Navigating.", zap.String("url", url))
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) Refresh(ctx context.Context) error {
	return s.run(ctx, chromedp.Reload())
}

func (s *Session) SetViewport(ctx context.Context, width, height int) error {
	return s.run(ctx, chromedp.EmulateViewport(int64(width), int64(height)))
}

// Close closes the tab. Closing twice is a no-op.
func (s *Session) Close(_ context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Debug("Closing browser session.")
	if s.cancel != nil {
		s.cancel()
	}
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}

// searchRoot is a lookup root: the document (empty id), an element or a
// shadow root.
type searchRoot struct {
	s  *Session
	id runtime.RemoteObjectID
}

func (r searchRoot) FindElement(ctx context.Context, loc driver.Locator) (driver.Node, error) {
	nodes, err := r.s.find(ctx, r.id, loc)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", driver.ErrNoSuchElement, loc)
	}
	return nodes[0], nil
}

func (r searchRoot) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Node, error) {
	return r.s.find(ctx, r.id, loc)
}
