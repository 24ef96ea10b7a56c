// internal/driver/locator.go
package driver

import "fmt"

// By names a lookup strategy. The values mirror the W3C WebDriver location
// strategies so locators read the same in logs regardless of backend.
type By string

const (
	ByCSS       By = "css selector"
	ByXPath     By = "xpath"
	ByID        By = "id"
	ByName      By = "name"
	ByClassName By = "class name"
	ByTagName   By = "tag name"
)

// Locator identifies how to find nodes within a search context.
// A zero Locator marks a logical container that is never looked up.
type Locator struct {
	By    By
	Value string
}

func CSS(selector string) Locator    { return Locator{By: ByCSS, Value: selector} }
func XPath(expr string) Locator      { return Locator{By: ByXPath, Value: expr} }
func ID(id string) Locator           { return Locator{By: ByID, Value: id} }
func Name(name string) Locator       { return Locator{By: ByName, Value: name} }
func ClassName(class string) Locator { return Locator{By: ByClassName, Value: class} }
func TagName(tag string) Locator     { return Locator{By: ByTagName, Value: tag} }

// IsZero reports whether the locator is unset.
func (l Locator) IsZero() bool {
	return l.By == "" && l.Value == ""
}

func (l Locator) String() string {
	if l.IsZero() {
		return "<none>"
	}
	return fmt.Sprintf("%s=%q", l.By, l.Value)
}

// CSSSelector converts every strategy except XPath into an equivalent CSS
// selector. Backends that only speak CSS and XPath use it to normalise.
func (l Locator) CSSSelector() (string, error) {
	switch l.By {
	case ByCSS, ByTagName:
		return l.Value, nil
	case ByID:
		return fmt.Sprintf(`[id=%q]`, l.Value), nil
	case ByName:
		return fmt.Sprintf(`[name=%q]`, l.Value), nil
	case ByClassName:
		return "." + l.Value, nil
	default:
		return "", fmt.Errorf("%w: %s has no css form", ErrUnsupportedLocator, l)
	}
}
