// internal/pageobject/errors.go
package pageobject

import (
	"errors"
	"fmt"

	"github.com/xkilldash9x/testlab/internal/driver"
)

var (
	// ErrAbsent matches every AbsentError.
	ErrAbsent = errors.New("element absent")
	// ErrInvalidUsage is raised (as a panic) when a descriptor is declared
	// with a capability/locator mismatch.
	ErrInvalidUsage = errors.New("invalid descriptor usage")
	// ErrNotNumeric is returned by the numeric views when the text is not a number.
	ErrNotNumeric = errors.New("element text is not numeric")
)

// AbsentError is carried by an element whose resolution found nothing.
// Every interaction on such an element returns it.
type AbsentError struct {
	Name    string
	Locator driver.Locator
	// Cause defaults to driver.ErrNoSuchElement; it can also be
	// driver.ErrNoShadowRoot or the enclosing element's own AbsentError.
	Cause error
}

func (e *AbsentError) Error() string {
	if e.Cause == nil || e.Cause == driver.ErrNoSuchElement {
		return fmt.Sprintf("element %q (%s) is absent", e.Name, e.Locator)
	}
	return fmt.Sprintf("element %q (%s) is absent: %v", e.Name, e.Locator, e.Cause)
}

func (e *AbsentError) Is(target error) bool { return target == ErrAbsent }

// Unwrap always includes driver.ErrNoSuchElement so waits classify absence
// as stale-or-missing whatever the cause.
func (e *AbsentError) Unwrap() []error {
	if e.Cause == nil || e.Cause == driver.ErrNoSuchElement {
		return []error{driver.ErrNoSuchElement}
	}
	return []error{driver.ErrNoSuchElement, e.Cause}
}

func invalidUsage(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidUsage, fmt.Sprintf(format, args...))
}
