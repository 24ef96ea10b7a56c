// internal/browser/errors.go
package browser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xkilldash9x/testlab/internal/driver"
)

// Message fragments CDP and the injected scripts use for each failure class.
var (
	staleMarkers = []string{
		"Could not find node",
		"Could not find object",
		"No node with given id",
		"Cannot find context with specified id",
		"stale element",
	}
	invalidStateMarkers = []string{"invalid element state"}
)

// mapError translates CDP and script failures into the driver taxonomy.
// Errors that already carry a driver sentinel pass through.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		driver.ErrStaleElement,
		driver.ErrInvalidElementState,
		driver.ErrNoSuchElement,
		driver.ErrNoShadowRoot,
		driver.ErrSessionClosed,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	msg := err.Error()
	if containsAny(msg, staleMarkers) {
		return fmt.Errorf("%w: %v", driver.ErrStaleElement, err)
	}
	if containsAny(msg, invalidStateMarkers) {
		return fmt.Errorf("%w: %v", driver.ErrInvalidElementState, err)
	}
	return err
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
