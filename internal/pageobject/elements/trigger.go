// internal/pageobject/elements/trigger.go
package elements

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/testlab/internal/pageobject"
	"github.com/xkilldash9x/testlab/internal/report"
)

// Trigger is a checkbox or toggle switch.
type Trigger struct {
	*pageobject.Element
}

func NewTrigger(el *pageobject.Element, _ ...interface{}) *Trigger {
	return &Trigger{Element: el}
}

// IsChecked reads the checked state from either the value or the checked
// property, since custom toggles report it through value.
func (t *Trigger) IsChecked(ctx context.Context) (bool, error) {
	for _, name := range []string{"value", "checked"} {
		v, _, err := t.Attribute(ctx, name)
		if err != nil {
			return false, err
		}
		if v == "true" {
			return true, nil
		}
	}
	return false, nil
}

// SetState clicks only when the current state differs from checked.
func (t *Trigger) SetState(ctx context.Context, checked bool) (err error) {
	end := t.Page().Step(ctx, fmt.Sprintf("Set %q to %v", t.Name(), checked))
	defer func() { end(err) }()

	current, err := t.IsChecked(ctx)
	if err != nil || current == checked {
		return err
	}
	return t.Click(ctx)
}

// HasState checks the checked state. It replaces the enabled-state check
// of the embedded Element.
func (t *Trigger) HasState(ctx context.Context, checked bool) (err error) {
	end := t.Page().Step(ctx, fmt.Sprintf("%q is set to %v", t.Name(), checked))
	defer func() { end(err) }()

	current, err := t.IsChecked(ctx)
	if err != nil {
		return err
	}
	if current == checked {
		return nil
	}
	return t.Page().Fail(ctx, &report.AssertionError{
		Subject:  t.Name(),
		Message:  "toggle state does not match",
		Expected: checked,
		Actual:   current,
	})
}
