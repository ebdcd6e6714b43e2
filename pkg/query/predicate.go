// Package query implements the item selection language: parsing of query strings
// into typed predicates and their evaluation against loaded feed items.
//
// Supported clauses:
//
//	number:5  number:[1-20]  number:{1, 5, [10-12]}
//	title:cheese delight  title:{cheese, pepperoni}
//	description:cheese  description:{cheese, ham}
//	date:2024-01-31  date:[2024-01-01:2024-01-31]  date:{2024-01-01, 2024-02-01}
//	notexists
//	latest  latest:5
//
// An empty query matches every item.
package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Predicate is a parsed query. The set of implementations is closed,
// Evaluate handles every one of them.
type Predicate interface {
	fmt.Stringer
	predicate()
}

// MatchAll selects every item, produced by an empty query
type MatchAll struct{}

// NumberSet selects items whose 1-based index is in any of the ranges or scalars
type NumberSet struct {
	Ranges  []Range // sorted, non-overlapping, non-adjacent
	Scalars []int   // sorted, unique, not covered by Ranges
}

// Range is an inclusive range of item indices
type Range struct {
	Lo, Hi int
}

// TitleMatch selects items whose title contains any of the keywords, ignoring case
type TitleMatch struct {
	Keywords []string
}

// DescriptionMatch selects items whose description text contains any of the keywords, ignoring case
type DescriptionMatch struct {
	Keywords []string
}

// NotExists selects items not yet present in the destination directory
type NotExists struct{}

// Latest selects the N most recently published items
type Latest struct {
	N int
}

// DateSet selects items published on any of the days or within any of the day ranges.
// All days are midnight UTC values; an item's publication day is taken in its own time zone.
type DateSet struct {
	Ranges []DateRange
	Days   []time.Time
}

// DateRange is an inclusive range of days
type DateRange struct {
	From, To time.Time
}

func (MatchAll) predicate()         {}
func (NumberSet) predicate()        {}
func (TitleMatch) predicate()       {}
func (DescriptionMatch) predicate() {}
func (NotExists) predicate()        {}
func (Latest) predicate()           {}
func (DateSet) predicate()          {}

// Contains reports whether n is in the set
func (s NumberSet) Contains(n int) bool {
	for _, r := range s.Ranges {
		if n >= r.Lo && n <= r.Hi {
			return true
		}
	}
	for _, v := range s.Scalars {
		if v == n {
			return true
		}
	}
	return false
}

// Contains reports whether the calendar day of t, in t's own location, is in the set
func (s DateSet) Contains(t time.Time) bool {
	day := dayOf(t)
	for _, r := range s.Ranges {
		if !day.Before(r.From) && !day.After(r.To) {
			return true
		}
	}
	for _, d := range s.Days {
		if day.Equal(d) {
			return true
		}
	}
	return false
}

func (MatchAll) String() string { return "" }

func (s NumberSet) String() string {
	elems := make([]string, 0, len(s.Ranges)+len(s.Scalars))
	ri, si := 0, 0
	for ri < len(s.Ranges) || si < len(s.Scalars) {
		if si >= len(s.Scalars) || (ri < len(s.Ranges) && s.Ranges[ri].Lo < s.Scalars[si]) {
			elems = append(elems, fmt.Sprintf("[%d-%d]", s.Ranges[ri].Lo, s.Ranges[ri].Hi))
			ri++
			continue
		}
		elems = append(elems, strconv.Itoa(s.Scalars[si]))
		si++
	}
	return "number:" + joinElems(elems)
}

func (m TitleMatch) String() string { return "title:" + joinElems(m.Keywords) }

func (m DescriptionMatch) String() string { return "description:" + joinElems(m.Keywords) }

func (NotExists) String() string { return "notexists" }

func (l Latest) String() string {
	if l.N == 1 {
		return "latest"
	}
	return "latest:" + strconv.Itoa(l.N)
}

func (s DateSet) String() string {
	elems := make([]string, 0, len(s.Ranges)+len(s.Days))
	ri, di := 0, 0
	for ri < len(s.Ranges) || di < len(s.Days) {
		if di >= len(s.Days) || (ri < len(s.Ranges) && s.Ranges[ri].From.Before(s.Days[di])) {
			elems = append(elems, fmt.Sprintf("[%s:%s]", s.Ranges[ri].From.Format(dateLayout), s.Ranges[ri].To.Format(dateLayout)))
			ri++
			continue
		}
		elems = append(elems, s.Days[di].Format(dateLayout))
		di++
	}
	return "date:" + joinElems(elems)
}

// joinElems renders a single element bare and several elements as a set
func joinElems(elems []string) string {
	if len(elems) == 1 {
		return elems[0]
	}
	return "{" + strings.Join(elems, ", ") + "}"
}

// dayOf truncates t to its calendar day, expressed as midnight UTC
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
