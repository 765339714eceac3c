package sqlconv

import (
	"strconv"
	"strings"

	"github.com/asaidimu/go-directus/core/query"
)

// Statement is the parsed form of a SELECT statement: the target collection
// plus the canonical query parts extracted from the clauses.
type Statement struct {
	Collection string
	Fields     []string // nil means "*": all fields
	Where      *query.QueryFilter
	Sort       []query.SortField
	Limit      *int
	Offset     *int
}

// parser is a recursive-descent parser over a pre-tokenized statement. The
// token slice is immutable; pos is the cursor.
type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if p.tokens[p.pos].typ != tokenEOF {
		p.pos++
	}
	return t
}

// matchKeyword consumes the next token if it is the given keyword.
func (p *parser) matchKeyword(kw string) bool {
	if t := p.peek(); t.typ == tokenKeyword && t.text == kw {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	if p.matchKeyword(kw) {
		return nil
	}
	t := p.peek()
	return &SyntaxError{Pos: t.pos, Token: t.text, Message: "expected " + kw}
}

func (p *parser) syntaxError(t token, msg string) error {
	return &SyntaxError{Pos: t.pos, Token: t.text, Message: msg}
}

// unsupportedKeywords maps recognized-but-rejected keywords to the construct
// named in the error.
var unsupportedKeywords = map[string]string{
	"JOIN": "JOIN", "INNER": "JOIN", "LEFT": "JOIN", "RIGHT": "JOIN",
	"FULL": "JOIN", "CROSS": "JOIN",
	"GROUP": "GROUP BY", "HAVING": "HAVING", "UNION": "UNION",
	"DISTINCT": "DISTINCT",
}

// parseStatement parses the fixed clause sequence:
// SELECT columns FROM table [WHERE expr] [ORDER BY list] [LIMIT n] [OFFSET n].
// Clauses out of this order, or trailing input, are syntax errors.
func (p *parser) parseStatement() (*Statement, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	stmt := &Statement{}

	fields, err := p.parseColumnList()
	if err != nil {
		return nil, err
	}
	stmt.Fields = fields

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table := p.next()
	if table.typ != tokenIdent {
		return nil, p.syntaxError(table, "expected table name")
	}
	stmt.Collection = table.text

	if p.matchKeyword("WHERE") {
		if p.peek().typ == tokenEOF {
			return nil, p.syntaxError(p.peek(), "WHERE clause requires an expression")
		}
		where, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}

	if p.matchKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		sort, err := p.parseOrderList()
		if err != nil {
			return nil, err
		}
		stmt.Sort = sort
	}

	if p.matchKeyword("LIMIT") {
		n, err := p.parseNonNegativeInt("LIMIT")
		if err != nil {
			return nil, err
		}
		stmt.Limit = &n
	}

	if p.matchKeyword("OFFSET") {
		n, err := p.parseNonNegativeInt("OFFSET")
		if err != nil {
			return nil, err
		}
		stmt.Offset = &n
	}

	if t := p.peek(); t.typ != tokenEOF {
		if t.typ == tokenKeyword {
			if construct, ok := unsupportedKeywords[t.text]; ok {
				return nil, &UnsupportedError{Pos: t.pos, Construct: construct}
			}
		}
		return nil, p.syntaxError(t, "unexpected trailing input")
	}
	return stmt, nil
}

// parseColumnList handles "SELECT a, b.c" and "SELECT *". A column followed
// by an opening parenthesis is a function call, which is outside the subset.
func (p *parser) parseColumnList() ([]string, error) {
	if t := p.peek(); t.typ == tokenKeyword {
		if construct, ok := unsupportedKeywords[t.text]; ok {
			return nil, &UnsupportedError{Pos: t.pos, Construct: construct}
		}
	}

	var fields []string
	for {
		col := p.next()
		if col.typ != tokenIdent {
			return nil, p.syntaxError(col, "expected column name")
		}
		if p.peek().typ == tokenLParen {
			return nil, &UnsupportedError{Pos: col.pos, Construct: "function call " + col.text}
		}
		if col.text == "*" {
			if len(fields) > 0 || p.peek().typ == tokenComma {
				return nil, p.syntaxError(col, "'*' cannot be combined with named columns")
			}
			return nil, nil
		}
		fields = append(fields, col.text)
		if p.peek().typ != tokenComma {
			return fields, nil
		}
		p.next()
	}
}

// parseOrExpr parses OR-joined terms; AND binds tighter, so each term is an
// AND expression. A single term is returned as-is: the parser only creates a
// group node when two or more children exist.
func (p *parser) parseOrExpr() (*query.QueryFilter, error) {
	first, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	children := []query.QueryFilter{*first}
	for p.matchKeyword("OR") {
		next, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		children = append(children, *next)
	}
	if len(children) == 1 {
		return first, nil
	}
	return &query.QueryFilter{
		Group: &query.FilterGroup{Operator: query.LogicalOperatorOr, Conditions: children},
	}, nil
}

// parseAndExpr parses AND-joined primaries.
func (p *parser) parseAndExpr() (*query.QueryFilter, error) {
	first, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	children := []query.QueryFilter{*first}
	for p.matchKeyword("AND") {
		next, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		children = append(children, *next)
	}
	if len(children) == 1 {
		return first, nil
	}
	return &query.QueryFilter{
		Group: &query.FilterGroup{Operator: query.LogicalOperatorAnd, Conditions: children},
	}, nil
}

// parsePrimary parses either a parenthesized boolean expression or a single
// condition.
func (p *parser) parsePrimary() (*query.QueryFilter, error) {
	if t := p.peek(); t.typ == tokenLParen {
		open := p.next()
		if inner := p.peek(); inner.typ == tokenKeyword && inner.text == "SELECT" {
			return nil, &UnsupportedError{Pos: inner.pos, Construct: "subquery"}
		}
		expr, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		if p.peek().typ != tokenRParen {
			return nil, p.syntaxError(open, "unterminated parenthesis group")
		}
		p.next()
		return expr, nil
	}
	return p.parseCondition()
}

// parseCondition parses a single comparison:
// field comparator literal | field [NOT] IN (...) | field [NOT] BETWEEN x AND y
// | field [NOT] LIKE pattern | field IS [NOT] NULL.
func (p *parser) parseCondition() (*query.QueryFilter, error) {
	field := p.next()
	if field.typ != tokenIdent {
		return nil, p.syntaxError(field, "expected field name")
	}

	negated := p.matchKeyword("NOT")

	t := p.peek()
	switch {
	case t.typ == tokenKeyword && t.text == "IS":
		if negated {
			return nil, p.syntaxError(t, "NOT cannot precede IS")
		}
		p.next()
		isNot := p.matchKeyword("NOT")
		if err := p.expectKeyword("NULL"); err != nil {
			return nil, err
		}
		op := query.ComparisonOperatorNull
		if isNot {
			op = query.ComparisonOperatorNotNull
		}
		return condition(field.text, op, nil), nil

	case t.typ == tokenKeyword && t.text == "IN":
		p.next()
		values, err := p.parseLiteralList()
		if err != nil {
			return nil, err
		}
		op := query.ComparisonOperatorIn
		if negated {
			op = query.ComparisonOperatorNin
		}
		return condition(field.text, op, values), nil

	case t.typ == tokenKeyword && t.text == "BETWEEN":
		p.next()
		lo, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AND"); err != nil {
			return nil, err
		}
		hi, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		op := query.ComparisonOperatorBetween
		if negated {
			op = query.ComparisonOperatorNotBetween
		}
		return condition(field.text, op, []any{lo, hi}), nil

	case t.typ == tokenKeyword && t.text == "LIKE":
		p.next()
		pattern := p.next()
		if pattern.typ != tokenString {
			return nil, p.syntaxError(pattern, "LIKE requires a string pattern")
		}
		op, value := mapLikePattern(pattern.text, negated)
		return condition(field.text, op, value), nil

	case t.typ == tokenOperator:
		if negated {
			return nil, p.syntaxError(t, "NOT cannot precede a comparator")
		}
		p.next()
		op, ok := comparatorOperators[t.text]
		if !ok {
			return nil, p.syntaxError(t, "unrecognized comparator")
		}
		value, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return condition(field.text, op, value), nil

	default:
		return nil, p.syntaxError(t, "expected comparator after field "+strconv.Quote(field.text))
	}
}

// comparatorOperators maps SQL comparators to filter operators. "!=" and
// "<>" are synonyms.
var comparatorOperators = map[string]query.ComparisonOperator{
	"=":  query.ComparisonOperatorEq,
	"!=": query.ComparisonOperatorNeq,
	"<>": query.ComparisonOperatorNeq,
	"<":  query.ComparisonOperatorLt,
	"<=": query.ComparisonOperatorLte,
	">":  query.ComparisonOperatorGt,
	">=": query.ComparisonOperatorGte,
}

// mapLikePattern translates a LIKE pattern into a filter operator. This is a
// deliberate design mapping, not full SQL LIKE semantics:
//
//	%text%  -> contains (case-insensitive)     NOT LIKE -> not-contains
//	text%   -> starts-with                     NOT LIKE -> not-starts-with
//	%text   -> ends-with                       NOT LIKE -> not-ends-with
//	text    -> equals                          NOT LIKE -> not-equals
//
// '%' anywhere other than the pattern edges is passed through literally as
// part of the value.
func mapLikePattern(pattern string, negated bool) (query.ComparisonOperator, string) {
	leading := strings.HasPrefix(pattern, "%")
	trailing := strings.HasSuffix(pattern, "%")
	switch {
	case leading && trailing:
		value := strings.TrimSuffix(strings.TrimPrefix(pattern, "%"), "%")
		if negated {
			return query.ComparisonOperatorNotContains, value
		}
		return query.ComparisonOperatorIContains, value
	case trailing:
		value := strings.TrimSuffix(pattern, "%")
		if negated {
			return query.ComparisonOperatorNotStartsWith, value
		}
		return query.ComparisonOperatorStartsWith, value
	case leading:
		value := strings.TrimPrefix(pattern, "%")
		if negated {
			return query.ComparisonOperatorNotEndsWith, value
		}
		return query.ComparisonOperatorEndsWith, value
	default:
		if negated {
			return query.ComparisonOperatorNeq, pattern
		}
		return query.ComparisonOperatorEq, pattern
	}
}

// parseLiteralList parses "(lit, lit, ...)" for IN conditions.
func (p *parser) parseLiteralList() ([]any, error) {
	open := p.next()
	if open.typ != tokenLParen {
		return nil, p.syntaxError(open, "expected opening parenthesis")
	}
	if inner := p.peek(); inner.typ == tokenKeyword && inner.text == "SELECT" {
		return nil, &UnsupportedError{Pos: inner.pos, Construct: "subquery"}
	}
	var values []any
	for {
		value, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		values = append(values, value)
		t := p.next()
		if t.typ == tokenRParen {
			return values, nil
		}
		if t.typ != tokenComma {
			return nil, p.syntaxError(t, "expected comma or closing parenthesis")
		}
	}
}

// parseLiteral parses a string or numeric literal. Integers come back as
// int64, decimals as float64.
func (p *parser) parseLiteral() (any, error) {
	t := p.next()
	switch t.typ {
	case tokenString:
		return t.text, nil
	case tokenNumber:
		if i, err := strconv.ParseInt(t.text, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.syntaxError(t, "malformed numeric literal")
		}
		return f, nil
	default:
		return nil, p.syntaxError(t, "expected a literal value")
	}
}

// parseOrderList parses "field [ASC|DESC] (, field [ASC|DESC])*".
func (p *parser) parseOrderList() ([]query.SortField, error) {
	var sort []query.SortField
	for {
		field := p.next()
		if field.typ != tokenIdent {
			return nil, p.syntaxError(field, "expected sort field")
		}
		direction := query.SortDirectionAsc
		if p.matchKeyword("DESC") {
			direction = query.SortDirectionDesc
		} else {
			p.matchKeyword("ASC")
		}
		sort = append(sort, query.SortField{Field: field.text, Direction: direction})
		if p.peek().typ != tokenComma {
			return sort, nil
		}
		p.next()
	}
}

// parseNonNegativeInt parses the LIMIT/OFFSET argument.
func (p *parser) parseNonNegativeInt(clause string) (int, error) {
	t := p.next()
	if t.typ != tokenNumber {
		return 0, p.syntaxError(t, clause+" requires an integer")
	}
	n, err := strconv.Atoi(t.text)
	if err != nil || n < 0 {
		return 0, p.syntaxError(t, clause+" requires a non-negative integer")
	}
	return n, nil
}

func condition(field string, op query.ComparisonOperator, value query.FilterValue) *query.QueryFilter {
	return &query.QueryFilter{
		Condition: &query.FilterCondition{Field: field, Operator: op, Value: value},
	}
}
