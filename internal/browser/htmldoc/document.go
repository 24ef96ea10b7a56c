// internal/browser/htmldoc/document.go
package htmldoc

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/testlab/internal/driver"
)

// getAttr reads an attribute case-insensitively. The parser already
// lowercases names, callers may not.
func getAttr(n *html.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, name string) bool {
	_, ok := getAttr(n, name)
	return ok
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: strings.ToLower(name), Val: value})
}

func removeAttr(n *html.Node, name string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if !strings.EqualFold(a.Key, name) {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

func isElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, tag := range tags {
		if n.Data == tag {
			return true
		}
	}
	return false
}

// isShadowTemplate reports whether n is a declarative shadow root.
func isShadowTemplate(n *html.Node) bool {
	return isElement(n, "template") && hasAttr(n, "shadowrootmode")
}

// shadowTemplate returns the host's declarative shadow root. It must be a
// direct child of the host.
func shadowTemplate(host *html.Node) *html.Node {
	for c := host.FirstChild; c != nil; c = c.NextSibling {
		if isShadowTemplate(c) {
			return c
		}
	}
	return nil
}

// topOf returns the outermost ancestor of n.
func topOf(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// encapsulated reports whether n sits inside a template below root, which
// puts it out of reach of lookups from root.
func encapsulated(n, root *html.Node) bool {
	for p := n.Parent; p != nil && p != root; p = p.Parent {
		if isElement(p, "template") {
			return true
		}
	}
	return false
}

// query evaluates loc under root and returns matches in document order.
func query(root *html.Node, loc driver.Locator) ([]*html.Node, error) {
	var matches []*html.Node
	if loc.By == driver.ByXPath {
		found, err := htmlquery.QueryAll(root, loc.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", driver.ErrUnsupportedLocator, loc, err)
		}
		matches = found
	} else {
		sel, err := loc.CSSSelector()
		if err != nil {
			return nil, err
		}
		matcher, err := cascadia.Compile(sel)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", driver.ErrUnsupportedLocator, loc, err)
		}
		matches = goquery.NewDocumentFromNode(root).FindMatcher(matcher).Nodes
	}

	out := matches[:0]
	for _, m := range matches {
		if m != root && m.Type == html.ElementNode && !encapsulated(m, root) {
			out = append(out, m)
		}
	}
	return out, nil
}

var invisibleTags = map[string]bool{
	"head": true, "script": true, "style": true, "template": true,
	"title": true, "meta": true, "link": true, "noscript": true,
}

// hiddenSelf reports whether n alone hides its subtree.
func hiddenSelf(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if invisibleTags[n.Data] && !isShadowTemplate(n) {
		return true
	}
	if hasAttr(n, "hidden") {
		return true
	}
	if n.Data == "input" {
		if t, _ := getAttr(n, "type"); strings.EqualFold(t, "hidden") {
			return true
		}
	}
	style, _ := getAttr(n, "style")
	style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

// visible walks n and its ancestors, crossing shadow boundaries.
func visible(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if hiddenSelf(p) {
			return false
		}
	}
	return true
}

// renderedText is the whitespace-normalised text of the visible subtree.
func renderedText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if hiddenSelf(n) {
				return
			}
			if n.Data == "br" {
				b.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			// Block boundaries separate words.
			b.WriteString(" ")
		}
	}
	if isElement(n, "textarea") {
		return strings.TrimSpace(textContent(n))
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// textContent concatenates every text node, hidden or not.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func setTextContent(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// describe renders a short tag#id.class label for the actions log.
func describe(n *html.Node) string {
	var b strings.Builder
	b.WriteString(n.Data)
	if id, ok := getAttr(n, "id"); ok && id != "" {
		b.WriteString("#" + id)
	}
	if class, ok := getAttr(n, "class"); ok {
		for _, c := range strings.Fields(class) {
			b.WriteString("." + c)
		}
	}
	return b.String()
}

// outerHTML renders n; it is what the inspect command prints.
func outerHTML(n *html.Node) string {
	return htmlquery.OutputHTML(n, true)
}
