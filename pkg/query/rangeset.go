package query

import (
	"cmp"
	"slices"
)

// span is an inclusive interval used while normalizing sets
type span[T cmp.Ordered] struct {
	lo, hi T
}

// normalizeSet merges overlapping and adjacent spans, then drops duplicate points
// and points already covered by a span. next returns the successor of a value and
// defines adjacency. Results are sorted.
func normalizeSet[T cmp.Ordered](spans []span[T], points []T, next func(T) T) ([]span[T], []T) {
	slices.SortFunc(spans, func(a, b span[T]) int {
		if c := cmp.Compare(a.lo, b.lo); c != 0 {
			return c
		}
		return cmp.Compare(a.hi, b.hi)
	})

	var merged []span[T]
	for _, s := range spans {
		if n := len(merged); n > 0 && s.lo <= next(merged[n-1].hi) {
			merged[n-1].hi = max(merged[n-1].hi, s.hi)
			continue
		}
		merged = append(merged, s)
	}

	slices.Sort(points)
	points = slices.Compact(points)

	var kept []T
	for _, p := range points {
		covered := false
		for _, s := range merged {
			if p >= s.lo && p <= s.hi {
				covered = true
				break
			}
		}
		if !covered {
			kept = append(kept, p)
		}
	}
	return merged, kept
}
