// internal/browser/htmldoc/gestures.go
package htmldoc

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/testlab/internal/driver"
)

// Without layout there is nowhere to dispatch pointer events. Gestures check
// their targets and are recorded in the actions log.

func (s *Session) own(n driver.Node) (*Node, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	node, ok := n.(*Node)
	if !ok || node.s != s {
		return nil, fmt.Errorf("node %T does not belong to session %s", n, s.id)
	}
	if _, err := node.live(); err != nil {
		return nil, err
	}
	return node, nil
}

func (s *Session) DoubleClick(_ context.Context, n driver.Node) error {
	node, err := s.own(n)
	if err != nil {
		return err
	}
	s.record("double-click %s", describe(node.root))
	return nil
}

func (s *Session) DragAndDrop(_ context.Context, source, target driver.Node) error {
	src, err := s.own(source)
	if err != nil {
		return err
	}
	dst, err := s.own(target)
	if err != nil {
		return err
	}
	s.record("drag %s to %s", describe(src.root), describe(dst.root))
	return nil
}

func (s *Session) DragAndDropByOffset(_ context.Context, n driver.Node, dx, dy float64) error {
	node, err := s.own(n)
	if err != nil {
		return err
	}
	s.record("drag %s by %v,%v", describe(node.root), dx, dy)
	return nil
}

func (s *Session) MoveTo(_ context.Context, n driver.Node) error {
	node, err := s.own(n)
	if err != nil {
		return err
	}
	s.record("move to %s", describe(node.root))
	return nil
}

func (s *Session) MoveByOffset(_ context.Context, dx, dy float64) error {
	if err := s.check(); err != nil {
		return err
	}
	s.record("move by %v,%v", dx, dy)
	return nil
}

func (s *Session) ClickAndHoldRelease(_ context.Context, n driver.Node) error {
	node, err := s.own(n)
	if err != nil {
		return err
	}
	s.record("press and release over %s", describe(node.root))
	return nil
}
