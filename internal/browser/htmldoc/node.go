// internal/browser/htmldoc/node.go
package htmldoc

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/testlab/internal/driver"
)

// Node is a driver.Node over an element of the session's document. It goes
// stale once the element leaves the document.
type Node struct {
	searchRoot
}

var _ driver.Node = (*Node)(nil)

// HTMLNode exposes the underlying element.
func (n *Node) HTMLNode() *html.Node { return n.root }

// OuterHTML renders the element and its subtree.
func (n *Node) OuterHTML() string { return outerHTML(n.root) }

func (n *Node) live() (*html.Node, error) {
	if err := n.s.check(); err != nil {
		return nil, err
	}
	if !n.s.attached(n.root) {
		return nil, fmt.Errorf("%w: %s", driver.ErrStaleElement, describe(n.root))
	}
	return n.root, nil
}

func (n *Node) Text(context.Context) (string, error) {
	el, err := n.live()
	if err != nil {
		return "", err
	}
	if !visible(el) {
		return "", nil
	}
	return renderedText(el), nil
}

var formControls = []string{"input", "select", "textarea", "option", "button", "fieldset", "optgroup"}

var booleanProps = map[string]string{
	"checked":  "checked",
	"selected": "selected",
	"disabled": "disabled",
	"readonly": "readonly",
	"required": "required",
	"multiple": "multiple",
}

// Attribute resolves the DOM property for the names a browser reflects,
// the HTML attribute otherwise.
func (n *Node) Attribute(_ context.Context, name string) (string, bool, error) {
	el, err := n.live()
	if err != nil {
		return "", false, err
	}

	key := strings.ToLower(name)
	switch key {
	case "value":
		if v, ok := formValue(el); ok {
			return v, true, nil
		}
	case "classname":
		v, _ := getAttr(el, "class")
		return v, true, nil
	case "id":
		v, _ := getAttr(el, "id")
		return v, true, nil
	case "tagname":
		return strings.ToUpper(el.Data), true, nil
	case "innertext":
		return renderedText(el), true, nil
	case "textcontent":
		return textContent(el), true, nil
	case "hidden":
		return boolString(hasAttr(el, "hidden")), true, nil
	}
	if attr, ok := booleanProps[key]; ok && isElement(el, formControls...) {
		return boolString(hasAttr(el, attr)), true, nil
	}

	v, ok := getAttr(el, name)
	return v, ok, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formValue is the value property of form controls.
func formValue(el *html.Node) (string, bool) {
	switch el.Data {
	case "input":
		if v, ok := getAttr(el, "value"); ok {
			return v, true
		}
		if t, _ := getAttr(el, "type"); strings.EqualFold(t, "checkbox") || strings.EqualFold(t, "radio") {
			return "on", true
		}
		return "", true
	case "textarea":
		return textContent(el), true
	case "option":
		if v, ok := getAttr(el, "value"); ok {
			return v, true
		}
		return renderedText(el), true
	case "select":
		options := selectOptions(el)
		for _, o := range options {
			if hasAttr(o, "selected") {
				return formValue(o)
			}
		}
		if len(options) > 0 {
			return formValue(options[0])
		}
		return "", true
	}
	return "", false
}

func selectOptions(sel *html.Node) []*html.Node {
	var options []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isElement(c, "option") {
				options = append(options, c)
				continue
			}
			walk(c)
		}
	}
	walk(sel)
	return options
}

func (n *Node) IsEnabled(context.Context) (bool, error) {
	el, err := n.live()
	if err != nil {
		return false, err
	}
	return !hasAttr(el, "disabled"), nil
}

func (n *Node) IsDisplayed(context.Context) (bool, error) {
	el, err := n.live()
	if err != nil {
		return false, err
	}
	return visible(el), nil
}

// Click applies a click's default action: checkboxes toggle, radios and
// options become selected. Disabled elements ignore it.
func (n *Node) Click(context.Context) error {
	el, err := n.live()
	if err != nil {
		return err
	}
	n.s.record("click %s", describe(el))
	if hasAttr(el, "disabled") {
		return nil
	}

	switch {
	case isElement(el, "input") && inputType(el) == "checkbox":
		if hasAttr(el, "checked") {
			removeAttr(el, "checked")
		} else {
			setAttr(el, "checked", "")
		}
	case isElement(el, "input") && inputType(el) == "radio":
		name, _ := getAttr(el, "name")
		if group, err := query(n.s.doc, driver.CSS(fmt.Sprintf(`input[type="radio"][name=%q]`, name))); err == nil && name != "" {
			for _, other := range group {
				removeAttr(other, "checked")
			}
		}
		setAttr(el, "checked", "")
	case isElement(el, "option"):
		if sel := enclosingSelect(el); sel != nil && !hasAttr(sel, "multiple") {
			for _, o := range selectOptions(sel) {
				removeAttr(o, "selected")
			}
		}
		setAttr(el, "selected", "")
	}
	return nil
}

func inputType(el *html.Node) string {
	t, _ := getAttr(el, "type")
	if t == "" {
		return "text"
	}
	return strings.ToLower(t)
}

func enclosingSelect(option *html.Node) *html.Node {
	for p := option.Parent; p != nil; p = p.Parent {
		if isElement(p, "select") {
			return p
		}
	}
	return nil
}

var nonTextInputs = map[string]bool{
	"checkbox": true, "radio": true, "button": true, "submit": true,
	"reset": true, "hidden": true, "image": true, "file": true,
}

// editable returns the element if keys can be typed into it now.
func (n *Node) editable() (*html.Node, error) {
	el, err := n.live()
	if err != nil {
		return nil, err
	}
	textual := isElement(el, "textarea") ||
		(isElement(el, "input") && !nonTextInputs[inputType(el)]) ||
		contentEditable(el)
	switch {
	case !textual:
		return nil, fmt.Errorf("%w: %s does not accept text", driver.ErrInvalidElementState, describe(el))
	case hasAttr(el, "disabled"):
		return nil, fmt.Errorf("%w: %s is disabled", driver.ErrInvalidElementState, describe(el))
	case hasAttr(el, "readonly"):
		return nil, fmt.Errorf("%w: %s is read-only", driver.ErrInvalidElementState, describe(el))
	}
	return el, nil
}

func contentEditable(el *html.Node) bool {
	v, ok := getAttr(el, "contenteditable")
	return ok && (v == "" || strings.EqualFold(v, "true"))
}

func (n *Node) Clear(context.Context) error {
	el, err := n.editable()
	if err != nil {
		return err
	}
	writeValue(el, "")
	return nil
}

// SendKeys appends keys to the current value.
func (n *Node) SendKeys(_ context.Context, keys string) error {
	el, err := n.editable()
	if err != nil {
		return err
	}
	current, _ := formValue(el)
	if !isElement(el, "input", "textarea") {
		current = textContent(el)
	}
	writeValue(el, current+keys)
	n.s.record("type %q into %s", keys, describe(el))
	return nil
}

func writeValue(el *html.Node, v string) {
	if isElement(el, "input") {
		setAttr(el, "value", v)
		return
	}
	setTextContent(el, v)
}

func (n *Node) ShadowRoot(context.Context) (driver.SearchContext, error) {
	el, err := n.live()
	if err != nil {
		return nil, err
	}
	tmpl := shadowTemplate(el)
	if tmpl == nil {
		return nil, fmt.Errorf("%w: %s", driver.ErrNoShadowRoot, describe(el))
	}
	return searchRoot{s: n.s, root: tmpl}, nil
}

func (n *Node) Screenshot(context.Context) ([]byte, error) {
	if _, err := n.live(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: screenshot", ErrNoRendering)
}
