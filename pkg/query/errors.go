package query

import "fmt"

// ParseError reports a malformed query. Token is the offending fragment and
// Expected describes the shape the parser was looking for.
type ParseError struct {
	Query    string
	Token    string
	Expected string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid query %q: unexpected %q, expected %s", e.Query, e.Token, e.Expected)
}
