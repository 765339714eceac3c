// Package sqlconv translates a restricted SQL SELECT grammar into the
// canonical query representation defined by core/query. The supported
// fragment covers column projection, a boolean WHERE expression with the
// usual comparator set plus IN/BETWEEN/LIKE/IS NULL (and their negations),
// ORDER BY, LIMIT, and OFFSET. Anything else that is recognizably SQL (joins,
// grouping, subqueries, aggregates) is rejected explicitly rather than
// silently dropped.
package sqlconv

import (
	"strings"
	"unicode"
)

// tokenType classifies a lexical token.
type tokenType int

const (
	tokenEOF tokenType = iota
	tokenIdent
	tokenKeyword
	tokenNumber
	tokenString
	tokenOperator // = != <> < > <= >=
	tokenComma
	tokenLParen
	tokenRParen
)

func (t tokenType) String() string {
	switch t {
	case tokenEOF:
		return "end of input"
	case tokenIdent:
		return "identifier"
	case tokenKeyword:
		return "keyword"
	case tokenNumber:
		return "number"
	case tokenString:
		return "string"
	case tokenOperator:
		return "operator"
	case tokenComma:
		return "comma"
	case tokenLParen:
		return "opening parenthesis"
	case tokenRParen:
		return "closing parenthesis"
	default:
		return "unknown"
	}
}

// token is a single lexical unit with its byte offset in the input, kept for
// error reporting.
type token struct {
	typ  tokenType
	text string
	pos  int
}

// keywords are matched case-insensitively. The value is the canonical
// uppercase spelling stored in the token.
var keywords = map[string]struct{}{
	"SELECT": {}, "FROM": {}, "WHERE": {}, "AND": {}, "OR": {}, "NOT": {},
	"ORDER": {}, "BY": {}, "ASC": {}, "DESC": {}, "LIMIT": {}, "OFFSET": {},
	"IN": {}, "BETWEEN": {}, "LIKE": {}, "IS": {}, "NULL": {},
	// Recognized only to be rejected as unsupported constructs.
	"JOIN": {}, "INNER": {}, "LEFT": {}, "RIGHT": {}, "FULL": {}, "CROSS": {},
	"GROUP": {}, "HAVING": {}, "UNION": {}, "DISTINCT": {},
}

// tokenize splits the statement into tokens. Identifiers may contain dots to
// reference nested relation fields. String literals use single or double
// quotes with no escape sequences; an unterminated literal is a syntax error.
func tokenize(input string) ([]token, error) {
	var tokens []token
	pos := 0
	for pos < len(input) {
		ch := rune(input[pos])

		if unicode.IsSpace(ch) {
			pos++
			continue
		}

		switch ch {
		case ',':
			tokens = append(tokens, token{tokenComma, ",", pos})
			pos++
			continue
		case '(':
			tokens = append(tokens, token{tokenLParen, "(", pos})
			pos++
			continue
		case ')':
			tokens = append(tokens, token{tokenRParen, ")", pos})
			pos++
			continue
		case '\'', '"':
			text, next, err := scanString(input, pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{tokenString, text, pos})
			pos = next
			continue
		case '*':
			tokens = append(tokens, token{tokenIdent, "*", pos})
			pos++
			continue
		}

		if op, next, ok := scanOperator(input, pos); ok {
			tokens = append(tokens, token{tokenOperator, op, pos})
			pos = next
			continue
		}

		if unicode.IsDigit(ch) || (ch == '-' && pos+1 < len(input) && unicode.IsDigit(rune(input[pos+1]))) {
			text, next := scanNumber(input, pos)
			tokens = append(tokens, token{tokenNumber, text, pos})
			pos = next
			continue
		}

		if isIdentStart(ch) {
			text, next := scanIdent(input, pos)
			upper := strings.ToUpper(text)
			if _, ok := keywords[upper]; ok {
				tokens = append(tokens, token{tokenKeyword, upper, pos})
			} else {
				tokens = append(tokens, token{tokenIdent, text, pos})
			}
			pos = next
			continue
		}

		return nil, &SyntaxError{
			Pos:     pos,
			Token:   string(ch),
			Message: "unexpected character",
		}
	}
	tokens = append(tokens, token{tokenEOF, "", len(input)})
	return tokens, nil
}

func scanString(input string, start int) (string, int, error) {
	quote := input[start]
	pos := start + 1
	for pos < len(input) {
		if input[pos] == quote {
			return input[start+1 : pos], pos + 1, nil
		}
		pos++
	}
	return "", 0, &SyntaxError{
		Pos:     start,
		Token:   input[start:],
		Message: "unterminated string literal",
	}
}

func scanOperator(input string, pos int) (string, int, bool) {
	two := ""
	if pos+1 < len(input) {
		two = input[pos : pos+2]
	}
	switch two {
	case "!=", "<>", "<=", ">=":
		return two, pos + 2, true
	}
	switch input[pos] {
	case '=', '<', '>':
		return string(input[pos]), pos + 1, true
	}
	return "", 0, false
}

func scanNumber(input string, start int) (string, int) {
	pos := start
	if input[pos] == '-' {
		pos++
	}
	seenDot := false
	for pos < len(input) {
		ch := rune(input[pos])
		if unicode.IsDigit(ch) {
			pos++
			continue
		}
		if ch == '.' && !seenDot && pos+1 < len(input) && unicode.IsDigit(rune(input[pos+1])) {
			seenDot = true
			pos++
			continue
		}
		break
	}
	return input[start:pos], pos
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isIdentRune(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '.'
}

func scanIdent(input string, start int) (string, int) {
	pos := start
	for pos < len(input) && isIdentRune(rune(input[pos])) {
		pos++
	}
	return input[start:pos], pos
}
