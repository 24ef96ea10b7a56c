// internal/wait/predicates.go
package wait

import (
	"context"
	"strings"

	"github.com/xkilldash9x/testlab/internal/driver"
)

// TextSource is anything with readable text: a driver.Node or a page-object
// element.
type TextSource interface {
	Text(ctx context.Context) (string, error)
}

// ListNotEmpty holds once loc matches at least one node under sc and yields
// the matches.
func ListNotEmpty(sc driver.SearchContext, loc driver.Locator) Predicate[[]driver.Node] {
	return func(ctx context.Context) ([]driver.Node, bool, error) {
		nodes, err := sc.FindElements(ctx, loc)
		if err != nil {
			return nil, false, err
		}
		return nodes, len(nodes) > 0, nil
	}
}

// ItemsNotEmpty holds once items returns a non-empty slice. items is
// re-evaluated on every poll so it sees the current document.
func ItemsNotEmpty[T any](items func(ctx context.Context) ([]T, error)) Predicate[[]T] {
	return func(ctx context.Context) ([]T, bool, error) {
		got, err := items(ctx)
		if err != nil {
			return nil, false, err
		}
		return got, len(got) > 0, nil
	}
}

// TextNotEmpty holds once el has any text.
func TextNotEmpty(el TextSource) Predicate[string] {
	return func(ctx context.Context) (string, bool, error) {
		text, err := el.Text(ctx)
		if err != nil {
			return "", false, err
		}
		return text, len(text) > 0, nil
	}
}

// TextEmpty holds once el has no text.
func TextEmpty(el TextSource) Predicate[string] {
	return func(ctx context.Context) (string, bool, error) {
		text, err := el.Text(ctx)
		if err != nil {
			return "", false, err
		}
		return text, len(text) == 0, nil
	}
}

// HasText holds once el's text equals one of candidates.
func HasText(el TextSource, candidates ...string) Predicate[string] {
	return matchText(el, candidates, func(text, candidate string) bool { return text == candidate })
}

// ContainsText holds once el's text contains one of candidates.
func ContainsText(el TextSource, candidates ...string) Predicate[string] {
	return matchText(el, candidates, strings.Contains)
}

func matchText(el TextSource, candidates []string, match func(text, candidate string) bool) Predicate[string] {
	return func(ctx context.Context) (string, bool, error) {
		text, err := el.Text(ctx)
		if err != nil {
			return "", false, err
		}
		for _, candidate := range candidates {
			if match(text, candidate) {
				return text, true, nil
			}
		}
		return text, false, nil
	}
}
