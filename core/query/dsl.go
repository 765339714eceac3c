// Package query defines the canonical query representation for the Directus
// API: a recursive filter tree, sort keys, pagination, and field projection.
// Queries are assembled either through the fluent QueryBuilder or by the SQL
// converter, and serialized into the Directus wire format by ToMap.
package query

// LogicalOperator combines the children of a filter group. The values are the
// Directus wire keys.
type LogicalOperator string

// Logical operators for combining filter conditions.
const (
	LogicalOperatorAnd LogicalOperator = "_and"
	LogicalOperatorOr  LogicalOperator = "_or"
)

// ComparisonOperator defines the set of operators that can be used in a filter
// condition. The values are the Directus wire operator keys.
type ComparisonOperator string

// Supported comparison operators.
const (
	ComparisonOperatorEq            ComparisonOperator = "_eq"
	ComparisonOperatorNeq           ComparisonOperator = "_neq"
	ComparisonOperatorLt            ComparisonOperator = "_lt"
	ComparisonOperatorLte           ComparisonOperator = "_lte"
	ComparisonOperatorGt            ComparisonOperator = "_gt"
	ComparisonOperatorGte           ComparisonOperator = "_gte"
	ComparisonOperatorIn            ComparisonOperator = "_in"
	ComparisonOperatorNin           ComparisonOperator = "_nin"
	ComparisonOperatorNull          ComparisonOperator = "_null"
	ComparisonOperatorNotNull       ComparisonOperator = "_nnull"
	ComparisonOperatorContains      ComparisonOperator = "_contains"
	ComparisonOperatorNotContains   ComparisonOperator = "_ncontains"
	ComparisonOperatorIContains     ComparisonOperator = "_icontains"
	ComparisonOperatorStartsWith    ComparisonOperator = "_starts_with"
	ComparisonOperatorNotStartsWith ComparisonOperator = "_nstarts_with"
	ComparisonOperatorEndsWith      ComparisonOperator = "_ends_with"
	ComparisonOperatorNotEndsWith   ComparisonOperator = "_nends_with"
	ComparisonOperatorBetween       ComparisonOperator = "_between"
	ComparisonOperatorNotBetween    ComparisonOperator = "_nbetween"
	ComparisonOperatorEmpty         ComparisonOperator = "_empty"
	ComparisonOperatorNotEmpty      ComparisonOperator = "_nempty"
)

// FilterValue represents the value used in a filter condition. Depending on
// the operator it is a scalar, a list (in/nin), a two-element list (between),
// or nil (null checks).
type FilterValue any

// FilterCondition defines a single comparison against a field. Field is a
// dotted path and may reference nested relations (e.g. "author.name").
type FilterCondition struct {
	Field    string             // The field to apply the filter on.
	Operator ComparisonOperator // The comparison operator to use.
	Value    FilterValue        // The value to compare against.
}

// FilterGroup combines multiple filter conditions using a logical operator.
// A group always holds at least one child; single-child groups are preserved,
// never collapsed.
type FilterGroup struct {
	Operator   LogicalOperator // The logical operator joining the children.
	Conditions []QueryFilter   // The ordered list of conditions or nested groups.
}

// QueryFilter is a union type that can represent either a single filter
// condition or a group of conditions. Exactly one of the two fields is set.
type QueryFilter struct {
	Condition *FilterCondition `json:",omitempty"` // A single filter condition.
	Group     *FilterGroup     `json:",omitempty"` // A group of filter conditions.
}

// SortDirection specifies the direction for sorting.
type SortDirection string

// Supported sort directions.
const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// SortField defines the sorting order for a specific field.
type SortField struct {
	Field     string        // The field to sort by.
	Direction SortDirection // The direction of the sort.
}

// Query is the canonical query object handed to the transport layer. The
// zero value means "no constraints": no filter, default pagination, all
// fields.
type Query struct {
	Filter *QueryFilter `json:",omitempty"`
	Sort   []SortField  `json:",omitempty"`
	Limit  *int         `json:",omitempty"`
	Offset *int         `json:",omitempty"`
	Page   *int         `json:",omitempty"`
	Fields []string     `json:",omitempty"`
	Search string       `json:",omitempty"`
}

// standardComparisonOperators is the set of recognized comparison operators.
var standardComparisonOperators = map[ComparisonOperator]struct{}{
	ComparisonOperatorEq:            {},
	ComparisonOperatorNeq:           {},
	ComparisonOperatorLt:            {},
	ComparisonOperatorLte:           {},
	ComparisonOperatorGt:            {},
	ComparisonOperatorGte:           {},
	ComparisonOperatorIn:            {},
	ComparisonOperatorNin:           {},
	ComparisonOperatorNull:          {},
	ComparisonOperatorNotNull:       {},
	ComparisonOperatorContains:      {},
	ComparisonOperatorNotContains:   {},
	ComparisonOperatorIContains:     {},
	ComparisonOperatorStartsWith:    {},
	ComparisonOperatorNotStartsWith: {},
	ComparisonOperatorEndsWith:      {},
	ComparisonOperatorNotEndsWith:   {},
	ComparisonOperatorBetween:       {},
	ComparisonOperatorNotBetween:    {},
	ComparisonOperatorEmpty:         {},
	ComparisonOperatorNotEmpty:      {},
}

// IsStandard checks if a comparison operator is one of the standard, built-in
// operators.
func (c ComparisonOperator) IsStandard() bool {
	_, ok := standardComparisonOperators[c]
	return ok
}

// GetStandardComparisonOperators returns the set of standard comparison
// operators. Useful for validation and for registering custom predicates
// without shadowing a built-in.
func GetStandardComparisonOperators() map[ComparisonOperator]struct{} {
	out := make(map[ComparisonOperator]struct{}, len(standardComparisonOperators))
	for op := range standardComparisonOperators {
		out[op] = struct{}{}
	}
	return out
}

// Clone returns a deep copy of the filter node. The copy shares no mutable
// substructure with the original.
func (f *QueryFilter) Clone() *QueryFilter {
	if f == nil {
		return nil
	}
	out := &QueryFilter{}
	if f.Condition != nil {
		cond := *f.Condition
		cond.Value = cloneValue(f.Condition.Value)
		out.Condition = &cond
	}
	if f.Group != nil {
		group := &FilterGroup{
			Operator:   f.Group.Operator,
			Conditions: make([]QueryFilter, len(f.Group.Conditions)),
		}
		for i := range f.Group.Conditions {
			group.Conditions[i] = *f.Group.Conditions[i].Clone()
		}
		out.Group = group
	}
	return out
}

// Clone returns a deep copy of the query. The copy shares no mutable
// substructure with the original.
func (q Query) Clone() Query {
	out := q
	out.Filter = q.Filter.Clone()
	if q.Sort != nil {
		out.Sort = append([]SortField(nil), q.Sort...)
	}
	if q.Fields != nil {
		out.Fields = append([]string(nil), q.Fields...)
	}
	out.Limit = cloneInt(q.Limit)
	out.Offset = cloneInt(q.Offset)
	out.Page = cloneInt(q.Page)
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// cloneValue copies list-shaped filter values so that a cloned filter cannot
// observe later mutation of the original's slices.
func cloneValue(v FilterValue) FilterValue {
	switch val := v.(type) {
	case []FilterValue:
		return append([]FilterValue(nil), val...)
	case []any:
		return append([]any(nil), val...)
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}
