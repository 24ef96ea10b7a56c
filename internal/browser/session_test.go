// internal/browser/session_test.go
package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/testlab/internal/config"
	"github.com/xkilldash9x/testlab/internal/driver"
)

// newTestSession returns a session whose CDP traffic goes to run.
func newTestSession(t *testing.T, run runActionsFunc) (*Session, *bool) {
	t.Helper()
	canceled := false
	s := NewSession(context.Background(), func() { canceled = true }, config.NewDefaultConfig(), zaptest.NewLogger(t))
	s.runActionsFunc = run
	return s, &canceled
}

func TestSessionImplicitWait(t *testing.T) {
	s, _ := newTestSession(t, nil)

	assert.Equal(t, 100*time.Millisecond, s.ImplicitWait(), "configured default")
	s.SetImplicitWait(0)
	assert.Zero(t, s.ImplicitWait())
	assert.NotEmpty(t, s.ID())
}

func TestSessionClose(t *testing.T) {
	calls := 0
	s, canceled := newTestSession(t, func(ctx context.Context, actions ...chromedp.Action) error {
		calls++
		return nil
	})
	closed := 0
	s.onClose = func() { closed++ }

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))

	assert.True(t, *canceled)
	assert.Equal(t, 1, closed, "second close is a no-op")

	_, err := s.CurrentURL(context.Background())
	assert.ErrorIs(t, err, driver.ErrSessionClosed)
	assert.Zero(t, calls, "no CDP traffic after close")
}

func TestNodeMapsStaleErrors(t *testing.T) {
	s, _ := newTestSession(t, func(ctx context.Context, actions ...chromedp.Action) error {
		return errors.New("Could not find object with given id")
	})
	node := &Node{searchRoot{s: s, id: "obj-1"}}

	_, err := node.Text(context.Background())
	assert.ErrorIs(t, err, driver.ErrStaleElement)

	err = node.SendKeys(context.Background(), "abc")
	assert.ErrorIs(t, err, driver.ErrStaleElement)
}

func TestFindElementWithoutMatches(t *testing.T) {
	// The stub never fills in a result, so every lookup sees no matches.
	s, _ := newTestSession(t, func(ctx context.Context, actions ...chromedp.Action) error {
		return nil
	})
	s.SetImplicitWait(30 * time.Millisecond)

	nodes, err := s.FindElements(context.Background(), driver.CSS(".missing"))
	require.NoError(t, err)
	assert.Empty(t, nodes)

	_, err = s.FindElement(context.Background(), driver.CSS(".missing"))
	assert.ErrorIs(t, err, driver.ErrNoSuchElement)
}

func TestFindElementRejectsEmptyLocator(t *testing.T) {
	s, _ := newTestSession(t, nil)
	_, err := s.FindElements(context.Background(), driver.Locator{})
	assert.ErrorIs(t, err, driver.ErrUnsupportedLocator)
}

func TestMoveByOffsetTracksPointer(t *testing.T) {
	var dispatched []*input.DispatchMouseEventParams
	s, _ := newTestSession(t, func(ctx context.Context, actions ...chromedp.Action) error {
		for _, a := range actions {
			if p, ok := a.(*input.DispatchMouseEventParams); ok {
				dispatched = append(dispatched, p)
			}
		}
		return nil
	})

	require.NoError(t, s.MoveByOffset(context.Background(), 10, 5))
	require.NoError(t, s.MoveByOffset(context.Background(), -3, 2))

	require.Len(t, dispatched, 2)
	assert.Equal(t, input.MouseMoved, dispatched[1].Type)
	assert.Equal(t, 7.0, dispatched[1].X)
	assert.Equal(t, 7.0, dispatched[1].Y)
}

func TestGesturesRejectForeignNodes(t *testing.T) {
	s, _ := newTestSession(t, nil)
	other, _ := newTestSession(t, nil)

	err := s.MoveTo(context.Background(), &Node{searchRoot{s: other, id: "obj"}})
	assert.Error(t, err)
}
