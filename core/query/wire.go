package query

import "strings"

// ToMap serializes the query into the Directus wire query format: a nested
// map of filter rules (field -> {operator: value}, with "_and"/"_or" arrays
// for groups), "sort" as a list of field names with a leading '-' marking
// descending order, and scalar "limit"/"offset"/"page"/"fields"/"search"
// parameters. Keys with no value set are omitted.
func (q Query) ToMap() map[string]any {
	out := map[string]any{}
	if q.Filter != nil {
		out["filter"] = filterToMap(*q.Filter)
	}
	if len(q.Sort) > 0 {
		sort := make([]string, len(q.Sort))
		for i, s := range q.Sort {
			if s.Direction == SortDirectionDesc {
				sort[i] = "-" + s.Field
			} else {
				sort[i] = s.Field
			}
		}
		out["sort"] = sort
	}
	if q.Limit != nil {
		out["limit"] = *q.Limit
	}
	if q.Offset != nil {
		out["offset"] = *q.Offset
	}
	if q.Page != nil {
		out["page"] = *q.Page
	}
	if len(q.Fields) > 0 {
		out["fields"] = append([]string(nil), q.Fields...)
	}
	if q.Search != "" {
		out["search"] = q.Search
	}
	return out
}

// Payload wraps the serialized query in the envelope expected by the SEARCH
// verb endpoints.
func (q Query) Payload() map[string]any {
	return map[string]any{"query": q.ToMap()}
}

// filterToMap serializes a single filter node.
func filterToMap(f QueryFilter) map[string]any {
	if f.Group != nil {
		children := make([]map[string]any, len(f.Group.Conditions))
		for i, child := range f.Group.Conditions {
			children[i] = filterToMap(child)
		}
		return map[string]any{string(f.Group.Operator): children}
	}
	if f.Condition != nil {
		return conditionToMap(*f.Condition)
	}
	return map[string]any{}
}

// conditionToMap expands a dotted field path into the nested object form the
// API expects, so "author.name" _eq "john" becomes
// {"author": {"name": {"_eq": "john"}}}.
func conditionToMap(c FilterCondition) map[string]any {
	value := c.Value
	// Null and empty checks carry no caller value on the wire; the rule is
	// {"_null": true} and friends.
	switch c.Operator {
	case ComparisonOperatorNull, ComparisonOperatorNotNull,
		ComparisonOperatorEmpty, ComparisonOperatorNotEmpty:
		value = true
	}

	leaf := map[string]any{string(c.Operator): value}
	parts := strings.Split(c.Field, ".")
	for i := len(parts) - 1; i >= 0; i-- {
		leaf = map[string]any{parts[i]: any(leaf)}
	}
	return leaf
}
