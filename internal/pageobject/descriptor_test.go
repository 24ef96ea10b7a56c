// internal/pageobject/descriptor_test.go
package pageobject_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/testlab/internal/driver"
	"github.com/xkilldash9x/testlab/internal/pageobject"
)

const listMarkup = `<html><body>
<div id="menu">
  <a class="entry" href="/a">Alpha</a>
  <a class="entry" href="/b">Beta</a>
  <a class="entry">Gamma</a>
</div>
<p id="outside">Outside</p>
<div id="widget"><template shadowrootmode="open"><b class="label">In shadow</b></template></div>
<div class="card"><template shadowrootmode="open"><i class="tag">one</i></template></div>
<div class="card"><template shadowrootmode="open"><i class="tag">two</i><i class="tag">three</i></template></div>
<div class="card"><i class="tag">light only</i></div>
</body></html>`

// menu is a declared component type with child descriptors of its own.
type menu struct {
	*pageobject.Element
	prefix string
}

func newMenu(el *pageobject.Element, args ...interface{}) *menu {
	m := &menu{Element: el}
	if len(args) > 0 {
		m.prefix = args[0].(string)
	}
	return m
}

var (
	menuEl      = pageobject.NewElement("Menu", driver.ID("menu"), newMenu, pageobject.WithArgs("nav"))
	menuEntries = pageobject.NewElements("Entries", driver.CSS("a.entry"), pageobject.AsElement)
	outsideEl   = pageobject.NewElement("Outside", driver.ID("outside"), pageobject.AsElement)
	globalEl    = pageobject.NewElement("Outside (global)", driver.ID("outside"), pageobject.AsElement, pageobject.Global())
	missingEl   = pageobject.NewElement("Missing", driver.ID("missing"), newMenu)
	shadowLabel = pageobject.NewElement("Label", driver.ID("widget"), pageobject.AsElement,
		pageobject.InShadow(driver.CSS(".label")))
	noShadow = pageobject.NewElement("No shadow", driver.ID("outside"), pageobject.AsElement,
		pageobject.InShadow(driver.CSS(".label")))
	cardTags = pageobject.NewElements("Card tags", driver.CSS(".card"), pageobject.AsElement,
		pageobject.InShadow(driver.CSS(".tag")))
)

func TestDeclarationMisuse(t *testing.T) {
	type plain struct{ name string }
	tests := []struct {
		name    string
		declare func()
	}{
		{"element type without capabilities", func() {
			pageobject.NewElement("Bad", driver.ID("x"), func(*pageobject.Element, ...interface{}) plain { return plain{} })
		}},
		{"list type without capabilities", func() {
			pageobject.NewElements("Bad", driver.ID("x"), func(*pageobject.Element, ...interface{}) *plain { return nil })
		}},
		{"element without locator", func() {
			pageobject.NewElement("Bad", driver.Locator{}, pageobject.AsElement)
		}},
		{"nil factory", func() {
			pageobject.NewElement[*pageobject.Element]("Bad", driver.ID("x"), nil)
		}},
		{"container of a capable type", func() {
			pageobject.NewContainer("Bad", func(pageobject.Scope, string, ...interface{}) *pageobject.Element { return nil })
		}},
		{"container with locator options", func() {
			pageobject.NewContainer("Bad", func(pageobject.Scope, string, ...interface{}) plain { return plain{} }, pageobject.Global())
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r, "declaration must panic")
				err, ok := r.(error)
				require.True(t, ok)
				assert.ErrorIs(t, err, pageobject.ErrInvalidUsage)
			}()
			tt.declare()
		})
	}
}

func TestOneResolve(t *testing.T) {
	f := newFixture(t, listMarkup)
	ctx := context.Background()

	t.Run("Present with args", func(t *testing.T) {
		m := menuEl.Resolve(ctx, f.page)
		require.True(t, m.Present())
		assert.Equal(t, "Menu", m.Name())
		assert.Equal(t, "nav", m.prefix)
		assert.Same(t, f.page, m.Page())
	})

	t.Run("Absent is a value, not a failure", func(t *testing.T) {
		m := missingEl.Resolve(ctx, f.page)
		require.NotNil(t, m)
		assert.False(t, m.Present())

		_, err := m.Text(ctx)
		var absent *pageobject.AbsentError
		require.ErrorAs(t, err, &absent)
		assert.Equal(t, "Missing", absent.Name)
		assert.ErrorIs(t, err, pageobject.ErrAbsent)
		assert.ErrorIs(t, err, driver.ErrNoSuchElement)
		assert.ErrorIs(t, m.Click(ctx), pageobject.ErrAbsent)
	})

	t.Run("Find reports absence", func(t *testing.T) {
		_, err := missingEl.Find(ctx, f.page)
		assert.ErrorIs(t, err, pageobject.ErrAbsent)
		m, err := menuEl.Find(ctx, f.page)
		require.NoError(t, err)
		assert.True(t, m.Present())
	})

	t.Run("Scoped to the enclosing element", func(t *testing.T) {
		m := menuEl.Resolve(ctx, f.page)
		assert.False(t, outsideEl.Resolve(ctx, m).Present())
		outside := globalEl.Resolve(ctx, m)
		require.True(t, outside.Present())
		text, err := outside.Text(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Outside", text)
	})

	t.Run("Absent parent makes children absent", func(t *testing.T) {
		parent := missingEl.Resolve(ctx, f.page)
		child := outsideEl.Resolve(ctx, parent)
		assert.False(t, child.Present())
		_, err := child.Text(ctx)
		var absent *pageobject.AbsentError
		require.ErrorAs(t, err, &absent)
		assert.Equal(t, "Outside", absent.Name)
		assert.ErrorIs(t, absent.Cause, pageobject.ErrAbsent)
		assert.Empty(t, menuEntries.Resolve(ctx, parent).Items())
	})

	t.Run("Fresh lookup on every access", func(t *testing.T) {
		first := outsideEl.Resolve(ctx, f.page)
		require.NoError(t, f.session.Load(`<p id="outside">Replaced</p>`, "http://app.test/other"))
		_, err := first.Text(ctx)
		assert.ErrorIs(t, err, driver.ErrStaleElement)

		second := outsideEl.Resolve(ctx, f.page)
		text, err := second.Text(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Replaced", text)
		require.NoError(t, f.session.Load(listMarkup, "http://app.test/page"))
	})
}

func TestShadowDescriptors(t *testing.T) {
	f := newFixture(t, listMarkup)
	ctx := context.Background()

	label := shadowLabel.Resolve(ctx, f.page)
	require.True(t, label.Present())
	require.NoError(t, label.HasText(ctx, "In shadow"))

	missing := noShadow.Resolve(ctx, f.page)
	assert.False(t, missing.Present())
	assert.ErrorIs(t, missing.Err(), driver.ErrNoShadowRoot)
	assert.ErrorIs(t, missing.Err(), pageobject.ErrAbsent)

	tags := cardTags.Resolve(ctx, f.page)
	require.NoError(t, tags.Err())
	texts, err := tags.Texts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, texts, "hosts without a shadow root contribute nothing")
}

func TestManyResolve(t *testing.T) {
	f := newFixture(t, listMarkup)
	ctx := context.Background()

	entries := menuEntries.Resolve(ctx, menuEl.Resolve(ctx, f.page))
	require.Equal(t, 3, entries.Len())
	assert.Equal(t, "Entries", entries.Name())
	for i, entry := range entries.Items() {
		assert.Equal(t, fmt.Sprintf("Entries - item #%d", i), entry.Name())
	}
	texts, err := entries.Texts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, texts)

	count, err := menuEntries.Count(ctx, f.page)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	none, err := pageobject.NewElements("None", driver.CSS(".none"), pageobject.AsElement).Find(ctx, f.page)
	require.NoError(t, err)
	assert.Zero(t, none.Len())
}

func TestIsPresentRestoresImplicitWait(t *testing.T) {
	f := newFixture(t, listMarkup)
	ctx := context.Background()
	f.session.SetImplicitWait(0)

	assert.True(t, outsideEl.IsPresent(ctx, f.page))
	assert.Zero(t, f.session.ImplicitWait(), "restored after success")

	assert.False(t, missingEl.IsPresent(ctx, f.page))
	assert.Zero(t, f.session.ImplicitWait(), "restored after failure")

	f.session.SetImplicitWait(42)
	assert.True(t, menuEntries.IsPresent(ctx, f.page))
	assert.False(t, pageobject.NewElements("None", driver.CSS(".none"), pageobject.AsElement).IsPresent(ctx, f.page))
	assert.EqualValues(t, 42, f.session.ImplicitWait())
}

func TestIsPresentDoesNotWaitOnMissing(t *testing.T) {
	f := newFixture(t, listMarkup)
	ctx := context.Background()
	f.session.SetImplicitWait(time.Second)
	none := pageobject.NewElements("None", driver.CSS(".none"), pageobject.AsElement)

	start := time.Now()
	assert.False(t, missingEl.IsPresent(ctx, f.page))
	assert.False(t, none.IsPresent(ctx, f.page))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, time.Second, f.session.ImplicitWait())

	start = time.Now()
	assert.False(t, missingEl.IsPresentWithin(ctx, f.page, 60*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.True(t, outsideEl.IsPresentWithin(ctx, f.page, time.Second))
	assert.Equal(t, time.Second, f.session.ImplicitWait())
}

func TestManyIsPresentNeedsEveryMatchDisplayed(t *testing.T) {
	f := newFixture(t, `<ul><li class="x">a</li><li class="x" style="display:none">b</li></ul>`)
	ctx := context.Background()
	items := pageobject.NewElements("Items", driver.CSS("li.x"), pageobject.AsElement)
	assert.False(t, items.IsPresent(ctx, f.page))

	visibleOnly := pageobject.NewElements("Visible", driver.XPath(`//li[1]`), pageobject.AsElement)
	assert.True(t, visibleOnly.IsPresent(ctx, f.page))
}

func TestWaitNotEmpty(t *testing.T) {
	f := newFixture(t, listMarkup)
	ctx := context.Background()

	entries, err := menuEntries.WaitNotEmpty(ctx, f.page, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, entries.Len())

	none := pageobject.NewElements("Nothing", driver.CSS(".none"), pageobject.AsElement)
	_, err = none.WaitNotEmpty(ctx, f.page, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list is still empty")
	require.Len(t, f.sink.failures, 1)
	assert.Equal(t, "http://app.test/page", f.sink.failures[0].URL)
}

// searchPanel is a locator-less grouping over its scope.
type searchPanel struct {
	scope pageobject.Scope
	name  string
	label string
}

var (
	panel = pageobject.NewContainer("Search panel", func(scope pageobject.Scope, name string, args ...interface{}) *searchPanel {
		return &searchPanel{scope: scope, name: name, label: args[0].(string)}
	}, pageobject.WithArgs("search"))
)

func TestContainer(t *testing.T) {
	f := newFixture(t, listMarkup)
	ctx := context.Background()

	p := panel.Resolve(f.page)
	assert.Equal(t, "Search panel", panel.Name())
	assert.Equal(t, "Search panel", p.name)
	assert.Equal(t, "search", p.label)

	m := menuEl.Resolve(ctx, f.page)
	inner := panel.Resolve(m)
	entries := menuEntries.Resolve(ctx, inner.scope)
	assert.Equal(t, 3, entries.Len(), "children resolve against the container's scope")
}

func TestResolutionErrorsAreCarried(t *testing.T) {
	f := newFixture(t, listMarkup)
	ctx := context.Background()

	bad := pageobject.NewElement("Bad xpath", driver.XPath("//a["), pageobject.AsElement)
	el, err := bad.Find(ctx, f.page)
	require.Error(t, err)
	assert.False(t, errors.Is(err, pageobject.ErrAbsent))
	assert.ErrorIs(t, err, driver.ErrUnsupportedLocator)
	assert.False(t, el.Present())
	_, err = el.Text(ctx)
	assert.ErrorIs(t, err, driver.ErrUnsupportedLocator)
}
