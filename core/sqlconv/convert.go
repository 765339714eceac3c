package sqlconv

import "github.com/asaidimu/go-directus/core/query"

// Converter translates SQL SELECT statements into canonical queries. It is
// stateless: every Convert call tokenizes and parses independently, so a
// single Converter is safe for concurrent use and repeated conversions of the
// same statement yield structurally equal, unshared results.
type Converter struct{}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Parse tokenizes and parses a SELECT statement, returning the target
// collection alongside the extracted query parts. The statement must follow
// the fixed clause order SELECT ... FROM ... [WHERE] [ORDER BY] [LIMIT]
// [OFFSET]; violations produce a SyntaxError, and recognizable SQL outside
// the subset produces an UnsupportedError.
func (c *Converter) Parse(sql string) (*Statement, error) {
	tokens, err := tokenize(sql)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.parseStatement()
}

// Convert parses a SELECT statement and produces the equivalent canonical
// query object. The FROM target is dropped; use Parse when the collection
// name is needed.
func (c *Converter) Convert(sql string) (query.Query, error) {
	stmt, err := c.Parse(sql)
	if err != nil {
		return query.Query{}, err
	}
	return stmt.Query(), nil
}

// Query assembles the canonical query object from the parsed clauses.
func (s *Statement) Query() query.Query {
	return query.Query{
		Filter: s.Where,
		Sort:   s.Sort,
		Limit:  s.Limit,
		Offset: s.Offset,
		Fields: s.Fields,
	}
}
