package query

import (
	"fmt"
	"strings"
)

// ConditionSet is the map shape accepted by OrCondition and AndCondition:
// each entry maps a single field name to a single operator/value pair, e.g.
//
//	query.ConditionSet{"author": {query.ComparisonOperatorEq: "john"}}
//
// A set with zero or multiple fields, or zero or multiple operators for a
// field, is rejected with ErrInvalidFilterShape.
type ConditionSet map[string]map[ComparisonOperator]FilterValue

// QueryBuilder provides a fluent and intuitive API for assembling a Query.
// Every method validates its arguments at call time; because chained calls
// return the receiver, the first failure is recorded on the builder and
// reported by Build (and immediately via Err). Once an error is recorded,
// subsequent calls are no-ops.
type QueryBuilder struct {
	conditions []QueryFilter // members of the implicit top-level AND group
	query      Query
	err        error
}

// NewQueryBuilder creates a new, empty query builder instance.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// Err returns the first validation error recorded by a chained call, or nil.
func (qb *QueryBuilder) Err() error {
	return qb.err
}

// fail records the first validation error. Later errors are discarded so that
// Build reports the call that actually broke the chain.
func (qb *QueryBuilder) fail(err error) *QueryBuilder {
	if qb.err == nil {
		qb.err = err
	}
	return qb
}

// Field appends a single comparison condition as a member of the implicit
// top-level AND group. The operator must be one of the standard comparison
// operators; anything else fails with ErrInvalidOperator.
func (qb *QueryBuilder) Field(field string, operator ComparisonOperator, value FilterValue) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	if field == "" {
		return qb.fail(fmt.Errorf("%w: empty field name", ErrInvalidFilterShape))
	}
	if !operator.IsStandard() {
		return qb.fail(fmt.Errorf("%w: %q", ErrInvalidOperator, operator))
	}
	qb.conditions = append(qb.conditions, QueryFilter{
		Condition: &FilterCondition{Field: field, Operator: operator, Value: value},
	})
	return qb
}

// OrCondition appends an OR group whose children are parsed from the given
// condition sets. The group joins the implicit top-level AND group as one
// member.
func (qb *QueryBuilder) OrCondition(conditions []ConditionSet) *QueryBuilder {
	return qb.group(LogicalOperatorOr, conditions)
}

// AndCondition appends a nested AND group built from the given condition
// sets. Like OrCondition, the group becomes one member of the implicit
// top-level AND group.
func (qb *QueryBuilder) AndCondition(conditions []ConditionSet) *QueryBuilder {
	return qb.group(LogicalOperatorAnd, conditions)
}

func (qb *QueryBuilder) group(operator LogicalOperator, conditions []ConditionSet) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	if len(conditions) == 0 {
		return qb.fail(fmt.Errorf("%w: %s group needs at least one condition", ErrInvalidFilterShape, operator))
	}
	children := make([]QueryFilter, 0, len(conditions))
	for _, set := range conditions {
		child, err := set.toFilter()
		if err != nil {
			return qb.fail(err)
		}
		children = append(children, child)
	}
	qb.conditions = append(qb.conditions, QueryFilter{
		Group: &FilterGroup{Operator: operator, Conditions: children},
	})
	return qb
}

// toFilter converts a single-field, single-operator condition set into a
// comparison node.
func (cs ConditionSet) toFilter() (QueryFilter, error) {
	if len(cs) != 1 {
		return QueryFilter{}, fmt.Errorf("%w: condition must name exactly one field, got %d", ErrInvalidFilterShape, len(cs))
	}
	for field, ops := range cs {
		if field == "" {
			return QueryFilter{}, fmt.Errorf("%w: empty field name", ErrInvalidFilterShape)
		}
		if len(ops) != 1 {
			return QueryFilter{}, fmt.Errorf("%w: field %q must map to exactly one operator, got %d", ErrInvalidFilterShape, field, len(ops))
		}
		for operator, value := range ops {
			if !operator.IsStandard() {
				return QueryFilter{}, fmt.Errorf("%w: %q", ErrInvalidOperator, operator)
			}
			return QueryFilter{
				Condition: &FilterCondition{Field: field, Operator: operator, Value: value},
			}, nil
		}
	}
	return QueryFilter{}, fmt.Errorf("%w: empty condition set", ErrInvalidFilterShape)
}

// Sort appends one or more sort keys in call order. A field prefixed with '-'
// is recorded as descending. Repeated calls accumulate rather than replace,
// so the primary sort is whichever key was added first.
func (qb *QueryBuilder) Sort(fields ...string) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	for _, field := range fields {
		name, direction := field, SortDirectionAsc
		if strings.HasPrefix(field, "-") {
			name, direction = field[1:], SortDirectionDesc
		}
		if name == "" {
			return qb.fail(fmt.Errorf("%w: empty sort field", ErrInvalidArgument))
		}
		qb.query.Sort = append(qb.query.Sort, SortField{Field: name, Direction: direction})
	}
	return qb
}

// Limit sets the maximum number of records to return. The value must be
// non-negative; calling Limit again overwrites the previous value.
func (qb *QueryBuilder) Limit(limit int) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	if limit < 0 {
		return qb.fail(fmt.Errorf("%w: limit must be non-negative, got %d", ErrInvalidArgument, limit))
	}
	qb.query.Limit = &limit
	return qb
}

// Offset sets the number of records to skip. The value must be non-negative;
// calling Offset again overwrites the previous value.
func (qb *QueryBuilder) Offset(offset int) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	if offset < 0 {
		return qb.fail(fmt.Errorf("%w: offset must be non-negative, got %d", ErrInvalidArgument, offset))
	}
	qb.query.Offset = &offset
	return qb
}

// Page sets the 1-indexed page number, an alternative to Offset supported by
// the Directus API.
func (qb *QueryBuilder) Page(page int) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	if page < 1 {
		return qb.fail(fmt.Errorf("%w: page must be positive, got %d", ErrInvalidArgument, page))
	}
	qb.query.Page = &page
	return qb
}

// SelectFields sets the field projection. Unlike Sort, repeated calls replace
// the previous selection.
func (qb *QueryBuilder) SelectFields(fields ...string) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	qb.query.Fields = append([]string(nil), fields...)
	return qb
}

// Search sets a full-text search term applied by the API across string
// fields in the collection.
func (qb *QueryBuilder) Search(text string) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	qb.query.Search = text
	return qb
}

// Build freezes the accumulated state into a Query. All conditions added via
// Field, OrCondition, and AndCondition become members of one implicit
// top-level AND group; the group is preserved even with a single member. If
// no conditions were added the filter is absent. Build may be called more
// than once; each call returns an independent deep copy, so later builder
// mutation is never observable through a previously built query.
func (qb *QueryBuilder) Build() (Query, error) {
	if qb.err != nil {
		return Query{}, qb.err
	}
	out := qb.query.Clone()
	if len(qb.conditions) > 0 {
		group := QueryFilter{
			Group: &FilterGroup{
				Operator:   LogicalOperatorAnd,
				Conditions: qb.conditions,
			},
		}
		out.Filter = group.Clone()
	}
	return out, nil
}

// Reset clears all accumulated state, including any recorded error, and
// returns the builder to its initial empty state.
func (qb *QueryBuilder) Reset() *QueryBuilder {
	qb.conditions = nil
	qb.query = Query{}
	qb.err = nil
	return qb
}

// String returns a human-readable summary of the accumulated query.
func (qb *QueryBuilder) String() string {
	var parts []string

	if qb.err != nil {
		parts = append(parts, fmt.Sprintf("ERROR: %v", qb.err))
	}

	if len(qb.conditions) > 0 {
		parts = append(parts, fmt.Sprintf("CONDITIONS: %d", len(qb.conditions)))
	}

	if len(qb.query.Sort) > 0 {
		sortFields := make([]string, len(qb.query.Sort))
		for i, sort := range qb.query.Sort {
			sortFields[i] = fmt.Sprintf("%s %s", sort.Field, sort.Direction)
		}
		parts = append(parts, fmt.Sprintf("SORT: %s", strings.Join(sortFields, ", ")))
	}

	if qb.query.Limit != nil {
		parts = append(parts, fmt.Sprintf("LIMIT: %d", *qb.query.Limit))
	}
	if qb.query.Offset != nil {
		parts = append(parts, fmt.Sprintf("OFFSET: %d", *qb.query.Offset))
	}
	if qb.query.Page != nil {
		parts = append(parts, fmt.Sprintf("PAGE: %d", *qb.query.Page))
	}

	if len(qb.query.Fields) > 0 {
		parts = append(parts, fmt.Sprintf("FIELDS: %s", strings.Join(qb.query.Fields, ", ")))
	}

	if qb.query.Search != "" {
		parts = append(parts, fmt.Sprintf("SEARCH: %s", qb.query.Search))
	}

	if len(parts) == 0 {
		return "EMPTY QUERY"
	}

	return strings.Join(parts, " | ")
}

// CreateSimpleFilter is a helper that creates a single comparison node.
func CreateSimpleFilter(field string, operator ComparisonOperator, value FilterValue) QueryFilter {
	return QueryFilter{
		Condition: &FilterCondition{
			Field:    field,
			Operator: operator,
			Value:    value,
		},
	}
}

// CreateFilterGroup is a helper that creates a filter group node.
func CreateFilterGroup(operator LogicalOperator, conditions ...QueryFilter) QueryFilter {
	return QueryFilter{
		Group: &FilterGroup{
			Operator:   operator,
			Conditions: conditions,
		},
	}
}
