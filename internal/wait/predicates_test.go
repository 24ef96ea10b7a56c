// internal/wait/predicates_test.go
package wait

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/testlab/internal/driver"
)

// scriptedText returns successive texts, repeating the last one.
type scriptedText struct {
	texts []string
	calls int
}

func (s *scriptedText) Text(context.Context) (string, error) {
	i := s.calls
	if i >= len(s.texts) {
		i = len(s.texts) - 1
	}
	s.calls++
	return s.texts[i], nil
}

// growingList reports n matches on the n-th lookup.
type growingList struct {
	lookups int
}

func (g *growingList) FindElement(context.Context, driver.Locator) (driver.Node, error) {
	return nil, driver.ErrNoSuchElement
}

func (g *growingList) FindElements(context.Context, driver.Locator) ([]driver.Node, error) {
	g.lookups++
	if g.lookups < 3 {
		return nil, nil
	}
	return make([]driver.Node, g.lookups), nil
}

func TestTextPredicates(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		pred   Predicate[string]
		wantOK bool
	}{
		{"HasText exact match", HasText(&scriptedText{texts: []string{"Saved"}}, "Error", "Saved"), true},
		{"HasText rejects substring", HasText(&scriptedText{texts: []string{"Saved!"}}, "Saved"), false},
		{"ContainsText substring", ContainsText(&scriptedText{texts: []string{"Order saved"}}, "saved"), true},
		{"ContainsText no candidate", ContainsText(&scriptedText{texts: []string{"Order saved"}}, "failed", "lost"), false},
		{"TextNotEmpty", TextNotEmpty(&scriptedText{texts: []string{"x"}}), true},
		{"TextNotEmpty on empty", TextNotEmpty(&scriptedText{texts: []string{""}}), false},
		{"TextEmpty", TextEmpty(&scriptedText{texts: []string{""}}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := tt.pred(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestHasText_PolledUntilChange(t *testing.T) {
	src := &scriptedText{texts: []string{"Loading", "Loading", "Done"}}
	got, err := Until(context.Background(), time.Second, time.Millisecond, HasText(src, "Done"))
	require.NoError(t, err)
	assert.Equal(t, "Done", got)
	assert.Equal(t, 3, src.calls)
}

func TestListNotEmpty(t *testing.T) {
	sc := &growingList{}
	nodes, err := Until(context.Background(), time.Second, time.Millisecond, ListNotEmpty(sc, driver.CSS("li")))
	require.NoError(t, err)
	assert.Len(t, nodes, 3)
}

func TestItemsNotEmpty(t *testing.T) {
	calls := 0
	pred := ItemsNotEmpty(func(context.Context) ([]string, error) {
		calls++
		if calls == 1 {
			return nil, nil
		}
		return []string{"a"}, nil
	})
	items, err := Until(context.Background(), time.Second, time.Millisecond, pred)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, items)
}
