package query

import (
	"cmp"
	"errors"
	"fmt"
	"html"
	"os"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/feedpick/pkg/domain"
)

// textPolicy strips all markup, leaving text content only
var textPolicy = bluemonday.StrictPolicy()

// Context carries what evaluation needs from outside the feed itself
type Context struct {
	Dir      string              // destination directory
	Existing map[string]struct{} // names of entries in Dir
}

// NewContext lists dir for notexists evaluation. A missing directory is an empty listing.
func NewContext(dir string) (Context, error) {
	res := Context{Dir: dir, Existing: map[string]struct{}{}}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, nil
		}
		return Context{}, fmt.Errorf("list directory %s: %w", dir, err)
	}
	for _, e := range entries {
		res.Existing[e.Name()] = struct{}{}
	}
	return res, nil
}

// NeedsContext reports whether evaluating p depends on the destination directory
func NeedsContext(p Predicate) bool {
	_, ok := p.(NotExists)
	return ok
}

// Evaluate returns the items selected by p, keeping their original relative order
func Evaluate(items []domain.Item, p Predicate, ctx Context) ([]domain.Item, error) {
	switch pr := p.(type) {
	case MatchAll:
		return filter(items, func(domain.Item) bool { return true }), nil
	case NumberSet:
		return filter(items, func(it domain.Item) bool { return pr.Contains(it.Index) }), nil
	case TitleMatch:
		return filter(items, func(it domain.Item) bool { return containsAny(it.Title, pr.Keywords) }), nil
	case DescriptionMatch:
		return filter(items, func(it domain.Item) bool { return containsAny(PlainText(it.Description), pr.Keywords) }), nil
	case DateSet:
		return filter(items, func(it domain.Item) bool { return it.HasPublished() && pr.Contains(it.Published) }), nil
	case NotExists:
		return filter(items, func(it domain.Item) bool {
			_, found := ctx.Existing[it.FileName()]
			return !found
		}), nil
	case Latest:
		return latest(items, pr.N), nil
	case nil:
		return nil, errors.New("evaluate: nil predicate")
	}
	return nil, fmt.Errorf("evaluate: unsupported predicate %T", p)
}

// PlainText returns the text content of a possibly html-formatted string
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// latest picks the n most recent items. Items without a date are older than any dated item,
// ties go to the higher index. The selection is returned in feed order.
func latest(items []domain.Item, n int) []domain.Item {
	if n <= 0 || len(items) == 0 {
		return []domain.Item{}
	}

	byRecency := slices.Clone(items)
	slices.SortStableFunc(byRecency, func(a, b domain.Item) int {
		if a.HasPublished() != b.HasPublished() {
			if a.HasPublished() {
				return -1
			}
			return 1
		}
		if c := b.Published.Compare(a.Published); c != 0 {
			return c
		}
		return cmp.Compare(b.Index, a.Index)
	})

	selected := make(map[int]bool, n)
	for _, it := range byRecency[:min(n, len(byRecency))] {
		selected[it.Index] = true
	}
	return filter(items, func(it domain.Item) bool { return selected[it.Index] })
}

func filter(items []domain.Item, keep func(domain.Item) bool) []domain.Item {
	res := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if keep(it) {
			res = append(res, it)
		}
	}
	return res
}

// containsAny checks for a case-insensitive substring match of any keyword
func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
