// internal/driver/locator_test.go
package driver

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocator_CSSSelector(t *testing.T) {
	tests := []struct {
		name string
		loc  Locator
		want string
	}{
		{"css passes through", CSS("ul > li.item"), "ul > li.item"},
		{"tag passes through", TagName("table"), "table"},
		{"id is quoted", ID("main menu"), `[id="main menu"]`},
		{"name is quoted", Name("email"), `[name="email"]`},
		{"class name", ClassName("card"), ".card"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.loc.CSSSelector()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := XPath("//li").CSSSelector()
	assert.ErrorIs(t, err, ErrUnsupportedLocator)
}

func TestLocator_String(t *testing.T) {
	assert.Equal(t, `css selector="li"`, CSS("li").String())
	assert.Equal(t, `xpath="//a[@href]"`, XPath("//a[@href]").String())
	assert.Equal(t, "<none>", Locator{}.String())
	assert.True(t, Locator{}.IsZero())
	assert.False(t, ID("x").IsZero())
}

func TestIsStaleOrMissing(t *testing.T) {
	assert.True(t, IsStaleOrMissing(ErrStaleElement))
	assert.True(t, IsStaleOrMissing(fmt.Errorf("lookup: %w", ErrNoSuchElement)))
	assert.False(t, IsStaleOrMissing(ErrInvalidElementState))
	assert.False(t, IsStaleOrMissing(errors.New("no such element")), "matches by identity, not text")
	assert.False(t, IsStaleOrMissing(nil))
}
