package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// clause kinds
const (
	kindNumber      = "number"
	kindTitle       = "title"
	kindDescription = "description"
	kindDate        = "date"
	kindNotExists   = "notexists"
	kindLatest      = "latest"
)

// Parse turns a query string into a predicate. An empty query returns MatchAll.
// Any malformed part rejects the whole query with *ParseError.
func Parse(q string) (Predicate, error) {
	p := parser{query: q}
	return p.parse()
}

// parser keeps the original query around for error reporting
type parser struct {
	query string
}

func (p parser) parse() (Predicate, error) {
	src := strings.TrimSpace(p.query)
	if src == "" {
		return MatchAll{}, nil
	}

	kind, body, hasBody := strings.Cut(src, ":")
	kind = strings.ToLower(strings.TrimSpace(kind))

	switch kind {
	case kindNumber:
		if !hasBody {
			return nil, p.fail(src, "number:<N>, number:[A-B] or number:{...}")
		}
		return p.parseNumbers(body)
	case kindTitle, kindDescription:
		if !hasBody {
			return nil, p.fail(src, kind+":<keyword> or "+kind+":{kw1, kw2}")
		}
		keywords, err := p.parseKeywords(body)
		if err != nil {
			return nil, err
		}
		if kind == kindTitle {
			return TitleMatch{Keywords: keywords}, nil
		}
		return DescriptionMatch{Keywords: keywords}, nil
	case kindDate:
		if !hasBody {
			return nil, p.fail(src, "date:<YYYY-MM-DD>, date:[A:B] or date:{...}")
		}
		return p.parseDates(body)
	case kindNotExists:
		if hasBody {
			return nil, p.fail(body, "no argument after notexists")
		}
		return NotExists{}, nil
	case kindLatest:
		if !hasBody {
			return Latest{N: 1}, nil
		}
		n, err := atoiDigits(body)
		if err != nil || n < 1 {
			return nil, p.fail(body, "positive integer after latest:")
		}
		return Latest{N: n}, nil
	}

	token := kind
	if token == "" {
		token = src
	}
	return nil, p.fail(token, "one of number, title, description, date, notexists, latest")
}

// parseNumbers handles the body of a number clause
func (p parser) parseNumbers(body string) (Predicate, error) {
	elems, err := p.splitBody(body)
	if err != nil {
		return nil, err
	}

	var spans []span[int]
	var points []int
	for _, elem := range elems {
		if strings.HasPrefix(elem, "[") || strings.HasSuffix(elem, "]") {
			lo, hi, err := parseRange(p, elem, "-:", p.parseIndex)
			if err != nil {
				return nil, err
			}
			spans = append(spans, span[int]{lo: lo, hi: hi})
			continue
		}
		n, err := p.parseIndex(elem)
		if err != nil {
			return nil, err
		}
		points = append(points, n)
	}

	merged, scalars := normalizeSet(spans, points, func(v int) int { return v + 1 })
	res := NumberSet{Scalars: scalars}
	for _, s := range merged {
		res.Ranges = append(res.Ranges, Range{Lo: s.lo, Hi: s.hi})
	}
	return res, nil
}

// parseDates handles the body of a date clause. Days are converted to day numbers
// for normalization and back to midnight UTC times.
func (p parser) parseDates(body string) (Predicate, error) {
	elems, err := p.splitBody(body)
	if err != nil {
		return nil, err
	}

	var spans []span[int64]
	var points []int64
	for _, elem := range elems {
		if strings.HasPrefix(elem, "[") || strings.HasSuffix(elem, "]") {
			lo, hi, err := parseRange(p, elem, ":", p.parseDay)
			if err != nil {
				return nil, err
			}
			spans = append(spans, span[int64]{lo: lo, hi: hi})
			continue
		}
		d, err := p.parseDay(elem)
		if err != nil {
			return nil, err
		}
		points = append(points, d)
	}

	merged, days := normalizeSet(spans, points, func(v int64) int64 { return v + 1 })
	res := DateSet{}
	for _, s := range merged {
		res.Ranges = append(res.Ranges, DateRange{From: fromDayNumber(s.lo), To: fromDayNumber(s.hi)})
	}
	for _, d := range days {
		res.Days = append(res.Days, fromDayNumber(d))
	}
	return res, nil
}

// parseKeywords handles the body of title and description clauses.
// A bare body is a single phrase and may contain spaces and commas.
func (p parser) parseKeywords(body string) ([]string, error) {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		if trimmed == "" {
			return nil, p.fail(body, "non-empty keyword")
		}
		if strings.HasSuffix(trimmed, "}") {
			return nil, p.fail(trimmed, "set starting with '{'")
		}
		return []string{trimmed}, nil
	}

	elems, err := p.splitBody(body)
	if err != nil {
		return nil, err
	}
	res := make([]string, 0, len(elems))
	seen := make(map[string]bool, len(elems)) // keywords match ignoring case, so do duplicates
	for _, e := range elems {
		key := strings.ToLower(e)
		if seen[key] {
			continue
		}
		seen[key] = true
		res = append(res, e)
	}
	return res, nil
}

// splitBody returns the trimmed elements of a {...} set, or the trimmed body as a single element
func (p parser) splitBody(body string) ([]string, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil, p.fail(body, "non-empty value")
	}

	if !strings.HasPrefix(trimmed, "{") {
		if strings.ContainsAny(trimmed, "{}") {
			return nil, p.fail(trimmed, "set enclosed in '{' and '}'")
		}
		return []string{trimmed}, nil
	}

	end := strings.IndexByte(trimmed, '}')
	if end < 0 {
		return nil, p.fail(trimmed, "closing '}'")
	}
	inner := trimmed[1:end]
	if strings.Contains(inner, "{") {
		return nil, p.fail(trimmed, "set without nested sets")
	}
	if rest := strings.TrimSpace(trimmed[end+1:]); rest != "" {
		return nil, p.fail(rest, "end of query after '}'")
	}
	if strings.TrimSpace(inner) == "" {
		return nil, p.fail(trimmed, "at least one element in set")
	}

	parts := strings.Split(inner, ",")
	res := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, p.fail(trimmed, "comma-separated set without empty elements")
		}
		res = append(res, part)
	}
	return res, nil
}

// parseRange parses "[A<delim>B]" where delims lists the accepted delimiters.
// The first delimiter found splits the range.
func parseRange[T int | int64](p parser, elem, delims string, value func(string) (T, error)) (lo, hi T, err error) {
	if !strings.HasPrefix(elem, "[") || !strings.HasSuffix(elem, "]") || len(elem) < 2 {
		return lo, hi, p.fail(elem, "range enclosed in '[' and ']'")
	}
	inner := elem[1 : len(elem)-1]
	if strings.ContainsAny(inner, "[]") {
		return lo, hi, p.fail(elem, "single range enclosed in '[' and ']'")
	}

	idx := strings.IndexAny(inner, delims)
	if idx < 0 {
		return lo, hi, p.fail(elem, "range delimiter in [A"+delims[:1]+"B]")
	}
	start, end := strings.TrimSpace(inner[:idx]), strings.TrimSpace(inner[idx+1:])
	if start == "" {
		return lo, hi, p.fail(elem, "range start in [A"+delims[:1]+"B]")
	}
	if end == "" {
		return lo, hi, p.fail(elem, "range end in [A"+delims[:1]+"B]")
	}

	if lo, err = value(start); err != nil {
		return lo, hi, err
	}
	if hi, err = value(end); err != nil {
		return lo, hi, err
	}
	if lo > hi {
		return lo, hi, p.fail(elem, "range with start not greater than end")
	}
	return lo, hi, nil
}

// parseIndex parses a non-negative item index
func (p parser) parseIndex(s string) (int, error) {
	n, err := atoiDigits(s)
	if err != nil {
		return 0, p.fail(s, "non-negative integer")
	}
	return n, nil
}

// atoiDigits parses a decimal number made of digits only, signs are rejected
func atoiDigits(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return strconv.Atoi(s)
}

// parseDay parses a YYYY-MM-DD date into a day number
func (p parser) parseDay(s string) (int64, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, p.fail(s, "date as YYYY-MM-DD")
	}
	return toDayNumber(t), nil
}

func (p parser) fail(token, expected string) *ParseError {
	return &ParseError{Query: p.query, Token: token, Expected: expected}
}

const secondsPerDay = 24 * 60 * 60

// toDayNumber returns days since the unix epoch for a midnight UTC time
func toDayNumber(t time.Time) int64 {
	return dayOf(t).Unix() / secondsPerDay
}

func fromDayNumber(d int64) time.Time {
	return time.Unix(d*secondsPerDay, 0).UTC()
}
