// internal/pageobject/elements/select.go
package elements

import (
	"context"
	"fmt"
	"time"

	"github.com/xkilldash9x/testlab/internal/driver"
	"github.com/xkilldash9x/testlab/internal/pageobject"
	"github.com/xkilldash9x/testlab/internal/report"
)

// openPause lets the dropdown's opening animation finish.
const openPause = 500 * time.Millisecond

var selectOptions = pageobject.NewElements("Dropdown options", driver.CSS("div"), pageobject.AsElement)

// Select is a custom dropdown whose options are div children.
type Select struct {
	*pageobject.Element
}

func NewSelect(el *pageobject.Element, _ ...interface{}) *Select {
	return &Select{Element: el}
}

func (s *Select) Options(ctx context.Context) pageobject.Collection[*pageobject.Element] {
	return selectOptions.Resolve(ctx, s)
}

// Get returns the first option whose text equals value.
func (s *Select) Get(ctx context.Context, value string) (*pageobject.Element, error) {
	options := s.Options(ctx)
	texts, err := options.Texts(ctx)
	if err != nil {
		return nil, err
	}
	for i, text := range texts {
		if text == value {
			return options.At(i), nil
		}
	}
	return nil, s.Page().Fail(ctx, &report.AssertionError{
		Subject:  s.Name(),
		Message:  fmt.Sprintf("option %q not found", value),
		Expected: value,
		Actual:   texts,
	})
}

// SelectByValue opens the dropdown, hovers the option and clicks it.
func (s *Select) SelectByValue(ctx context.Context, value string) (err error) {
	end := s.Page().Step(ctx, fmt.Sprintf("Select %q in %q", value, s.Name()))
	defer func() { end(err) }()

	if err := s.Click(ctx, openPause); err != nil {
		return err
	}
	option, err := s.Get(ctx, value)
	if err != nil {
		return err
	}
	if err := option.MoveTo(ctx); err != nil {
		return err
	}
	return option.Click(ctx)
}
