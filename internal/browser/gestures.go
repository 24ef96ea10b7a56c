// internal/browser/gestures.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/input"

	"github.com/xkilldash9x/testlab/internal/driver"
)

func (s *Session) own(n driver.Node) (*Node, error) {
	node, ok := n.(*Node)
	if !ok || node.s != s {
		return nil, fmt.Errorf("node %T does not belong to session %s", n, s.id)
	}
	return node, nil
}

func (s *Session) center(ctx context.Context, n driver.Node) (float64, float64, error) {
	node, err := s.own(n)
	if err != nil {
		return 0, 0, err
	}
	g, err := node.geometry(ctx)
	return g.X, g.Y, err
}

// mouse dispatches one pointer event and records the pointer position.
func (s *Session) mouse(ctx context.Context, typ input.MouseType, x, y float64, clicks int64) error {
	p := input.DispatchMouseEvent(typ, x, y)
	switch typ {
	case input.MousePressed:
		p = p.WithButton(input.Left).WithButtons(1).WithClickCount(clicks)
	case input.MouseReleased:
		p = p.WithButton(input.Left).WithClickCount(clicks)
	}
	if err := s.run(ctx, p); err != nil {
		return err
	}
	s.pointerX, s.pointerY = x, y
	return nil
}

func (s *Session) sequence(ctx context.Context, steps ...func(ctx context.Context) error) error {
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) move(x, y float64) func(context.Context) error {
	return func(ctx context.Context) error { return s.mouse(ctx, input.MouseMoved, x, y, 0) }
}

func (s *Session) press(clicks int64) func(context.Context) error {
	return func(ctx context.Context) error {
		return s.mouse(ctx, input.MousePressed, s.pointerX, s.pointerY, clicks)
	}
}

func (s *Session) release(clicks int64) func(context.Context) error {
	return func(ctx context.Context) error {
		return s.mouse(ctx, input.MouseReleased, s.pointerX, s.pointerY, clicks)
	}
}

func (s *Session) click(ctx context.Context, x, y float64, clicks int64) error {
	return s.sequence(ctx, s.move(x, y), s.press(clicks), s.release(clicks))
}

func (s *Session) DoubleClick(ctx context.Context, n driver.Node) error {
	x, y, err := s.center(ctx, n)
	if err != nil {
		return err
	}
	return s.sequence(ctx, s.move(x, y), s.press(1), s.release(1), s.press(2), s.release(2))
}

func (s *Session) DragAndDrop(ctx context.Context, source, target driver.Node) error {
	sx, sy, err := s.center(ctx, source)
	if err != nil {
		return err
	}
	if err := s.sequence(ctx, s.move(sx, sy), s.press(1)); err != nil {
		return err
	}
	tx, ty, err := s.center(ctx, target)
	if err != nil {
		return err
	}
	return s.sequence(ctx, s.move(tx, ty), s.release(1))
}

func (s *Session) DragAndDropByOffset(ctx context.Context, n driver.Node, dx, dy float64) error {
	x, y, err := s.center(ctx, n)
	if err != nil {
		return err
	}
	return s.sequence(ctx, s.move(x, y), s.press(1), s.move(x+dx, y+dy), s.release(1))
}

func (s *Session) MoveTo(ctx context.Context, n driver.Node) error {
	x, y, err := s.center(ctx, n)
	if err != nil {
		return err
	}
	return s.mouse(ctx, input.MouseMoved, x, y, 0)
}

func (s *Session) MoveByOffset(ctx context.Context, dx, dy float64) error {
	return s.mouse(ctx, input.MouseMoved, s.pointerX+dx, s.pointerY+dy, 0)
}

// ClickAndHoldRelease presses where the pointer is and releases over n.
func (s *Session) ClickAndHoldRelease(ctx context.Context, n driver.Node) error {
	if err := s.press(1)(ctx); err != nil {
		return err
	}
	x, y, err := s.center(ctx, n)
	if err != nil {
		return err
	}
	return s.sequence(ctx, s.move(x, y), s.release(1))
}
