package sqlconv

import "fmt"

// SyntaxError indicates that the statement violates the supported grammar.
// Pos is the byte offset of the offending token and Token its text.
type SyntaxError struct {
	Pos     int
	Token   string
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Message)
	}
	return fmt.Sprintf("syntax error at position %d near %q: %s", e.Pos, e.Token, e.Message)
}

// UnsupportedError indicates syntactically valid SQL outside the supported
// subset, such as joins, grouping, or aggregate calls. These fail explicitly
// instead of being silently ignored.
type UnsupportedError struct {
	Pos       int
	Construct string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported SQL construct at position %d: %s", e.Pos, e.Construct)
}
