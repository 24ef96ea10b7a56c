// internal/browser/node.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/testlab/internal/driver"
)

// Node is a driver.Node held as a JS object reference in the tab. The
// reference survives DOM changes; a detached node reports ErrStaleElement.
type Node struct {
	searchRoot
}

var _ driver.Node = (*Node)(nil)

// geometry is what centerScript reports.
type geometry struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Left    float64 `json:"left"`
	Top     float64 `json:"top"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
}

func (n *Node) call(ctx context.Context, decl string, res interface{}) error {
	_, err := n.s.callFunction(ctx, n.id, decl, res)
	return err
}

func (n *Node) Text(ctx context.Context) (string, error) {
	var text string
	err := n.call(ctx, textScript, &text)
	return text, err
}

func (n *Node) Attribute(ctx context.Context, name string) (string, bool, error) {
	var v *string
	if err := n.call(ctx, attributeScript(name), &v); err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (n *Node) IsEnabled(ctx context.Context) (bool, error) {
	var enabled bool
	err := n.call(ctx, enabledScript, &enabled)
	return enabled, err
}

func (n *Node) IsDisplayed(ctx context.Context) (bool, error) {
	var displayed bool
	err := n.call(ctx, displayedScript, &displayed)
	return displayed, err
}

// Click scrolls the node to the viewport center and clicks there.
func (n *Node) Click(ctx context.Context) error {
	g, err := n.geometry(ctx)
	if err != nil {
		return err
	}
	return n.s.click(ctx, g.X, g.Y, 1)
}

func (n *Node) Clear(ctx context.Context) error {
	var ok bool
	return n.call(ctx, clearScript, &ok)
}

// SendKeys focuses the node and types keys as keyboard events.
func (n *Node) SendKeys(ctx context.Context, keys string) error {
	var ok bool
	if err := n.call(ctx, editableScript, &ok); err != nil {
		return err
	}
	return n.s.run(ctx, chromedp.KeyEvent(keys))
}

func (n *Node) ShadowRoot(ctx context.Context) (driver.SearchContext, error) {
	obj, err := n.s.callFunction(ctx, n.id, shadowRootScript, nil)
	if err != nil {
		return nil, err
	}
	if obj == nil || obj.ObjectID == "" {
		return nil, driver.ErrNoShadowRoot
	}
	return searchRoot{s: n.s, id: obj.ObjectID}, nil
}

// Screenshot captures the node's box as PNG after scrolling it into view.
func (n *Node) Screenshot(ctx context.Context) ([]byte, error) {
	g, err := n.geometry(ctx)
	if err != nil {
		return nil, err
	}
	if g.Width <= 0 || g.Height <= 0 {
		return nil, fmt.Errorf("cannot capture node with empty box (%vx%v)", g.Width, g.Height)
	}

	var buf []byte
	err = n.s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithCaptureBeyondViewport(true).
			WithClip(&page.Viewport{
				X:      g.Left + g.ScrollX,
				Y:      g.Top + g.ScrollY,
				Width:  g.Width,
				Height: g.Height,
				Scale:  1,
			}).Do(ctx)
		return err
	}))
	return buf, err
}

func (n *Node) geometry(ctx context.Context) (geometry, error) {
	var g geometry
	err := n.call(ctx, centerScript, &g)
	return g, err
}
