package query

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Document is a single record as returned by the API: a map of field names
// to decoded JSON values.
type Document = map[string]any

// PredicateFunction is a pure Go function implementing a custom comparison
// operator. It receives the document, the dotted field path, and the filter
// value, and reports whether the document passes.
type PredicateFunction func(doc Document, field string, value FilterValue) (bool, error)

// Matcher evaluates filter trees against in-memory documents. It implements
// every standard comparison operator plus any custom operators registered by
// the caller, and is used for client-side filtering of cached results.
//
// The predicate registry is read-mostly shared state: registrations normally
// happen once at startup, after which concurrent Match calls only take read
// locks.
type Matcher struct {
	predicates map[ComparisonOperator]PredicateFunction
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewMatcher creates a new Matcher instance. A nil logger defaults to a nop
// logger.
func NewMatcher(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		predicates: make(map[ComparisonOperator]PredicateFunction),
		logger:     logger,
	}
}

// RegisterPredicate registers a Go function for a custom comparison operator.
// Standard operators cannot be overridden.
func (m *Matcher) RegisterPredicate(operator ComparisonOperator, fn PredicateFunction) error {
	if operator.IsStandard() {
		return fmt.Errorf("%w: cannot override standard operator %q", ErrInvalidOperator, operator)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predicates[operator] = fn
	m.logger.Info("Registered predicate function", zap.String("operator", string(operator)))
	return nil
}

// Match evaluates a document against a filter tree. A nil filter matches
// everything.
func (m *Matcher) Match(ctx context.Context, filter *QueryFilter, doc Document) (bool, error) {
	if filter == nil {
		return true, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.evaluate(filter, doc)
}

// Filter returns the documents that pass the filter tree, preserving input
// order.
func (m *Matcher) Filter(ctx context.Context, filter *QueryFilter, docs []Document) ([]Document, error) {
	if filter == nil {
		return docs, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Document
	for _, doc := range docs {
		passes, err := m.evaluate(filter, doc)
		if err != nil {
			return nil, err
		}
		if passes {
			out = append(out, doc)
		}
	}
	m.logger.Debug("Documents remaining after filter", zap.Int("count", len(out)))
	return out, nil
}

// evaluate recursively walks the filter tree. Callers hold the read lock.
func (m *Matcher) evaluate(filter *QueryFilter, doc Document) (bool, error) {
	if filter.Condition != nil {
		cond := filter.Condition
		if !cond.Operator.IsStandard() {
			fn, ok := m.predicates[cond.Operator]
			if !ok {
				return false, fmt.Errorf("unregistered predicate for operator: %s", cond.Operator)
			}
			return fn(doc, cond.Field, cond.Value)
		}
		return evaluateCondition(doc, cond)
	}
	if filter.Group != nil {
		switch filter.Group.Operator {
		case LogicalOperatorAnd:
			for i := range filter.Group.Conditions {
				passes, err := m.evaluate(&filter.Group.Conditions[i], doc)
				if err != nil || !passes {
					return false, err
				}
			}
			return true, nil
		case LogicalOperatorOr:
			for i := range filter.Group.Conditions {
				passes, err := m.evaluate(&filter.Group.Conditions[i], doc)
				if err != nil {
					return false, err
				}
				if passes {
					return true, nil
				}
			}
			return false, nil
		default:
			return false, fmt.Errorf("unsupported logical operator: %s", filter.Group.Operator)
		}
	}
	return false, fmt.Errorf("empty filter node")
}

// evaluateCondition applies a standard comparison operator to a document.
func evaluateCondition(doc Document, cond *FilterCondition) (bool, error) {
	fieldValue, present := lookupField(doc, cond.Field)

	switch cond.Operator {
	case ComparisonOperatorNull:
		return !present || fieldValue == nil, nil
	case ComparisonOperatorNotNull:
		return present && fieldValue != nil, nil
	case ComparisonOperatorEmpty:
		return !present || fieldValue == nil || fieldValue == "", nil
	case ComparisonOperatorNotEmpty:
		return present && fieldValue != nil && fieldValue != "", nil
	}

	if !present {
		// A missing field fails every value comparison except the inverted
		// membership and equality checks.
		switch cond.Operator {
		case ComparisonOperatorNeq, ComparisonOperatorNin:
			return true, nil
		}
		return false, nil
	}

	switch cond.Operator {
	case ComparisonOperatorEq:
		return looseEqual(fieldValue, cond.Value), nil
	case ComparisonOperatorNeq:
		return !looseEqual(fieldValue, cond.Value), nil
	case ComparisonOperatorLt, ComparisonOperatorLte, ComparisonOperatorGt, ComparisonOperatorGte:
		return evaluateOrdering(fieldValue, cond)
	case ComparisonOperatorIn:
		return valueInList(fieldValue, cond.Value)
	case ComparisonOperatorNin:
		in, err := valueInList(fieldValue, cond.Value)
		return !in, err
	case ComparisonOperatorContains:
		return stringPredicate(fieldValue, cond.Value, strings.Contains)
	case ComparisonOperatorNotContains:
		ok, err := stringPredicate(fieldValue, cond.Value, strings.Contains)
		return !ok, err
	case ComparisonOperatorIContains:
		return stringPredicate(fieldValue, cond.Value, func(s, sub string) bool {
			return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
		})
	case ComparisonOperatorStartsWith:
		return stringPredicate(fieldValue, cond.Value, strings.HasPrefix)
	case ComparisonOperatorNotStartsWith:
		ok, err := stringPredicate(fieldValue, cond.Value, strings.HasPrefix)
		return !ok, err
	case ComparisonOperatorEndsWith:
		return stringPredicate(fieldValue, cond.Value, strings.HasSuffix)
	case ComparisonOperatorNotEndsWith:
		ok, err := stringPredicate(fieldValue, cond.Value, strings.HasSuffix)
		return !ok, err
	case ComparisonOperatorBetween:
		return valueBetween(fieldValue, cond.Value)
	case ComparisonOperatorNotBetween:
		ok, err := valueBetween(fieldValue, cond.Value)
		return !ok, err
	default:
		return false, fmt.Errorf("unsupported comparison operator: %s", cond.Operator)
	}
}

// lookupField resolves a dotted path against nested documents. The second
// return value reports whether the full path was present.
func lookupField(doc Document, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = doc
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// looseEqual compares two values, treating numeric types as interchangeable
// so that an int64 from the database equals a float64 from decoded JSON.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if af, aok := ToFloat64(a); aok {
		if bf, bok := ToFloat64(b); bok {
			return af == bf
		}
	}
	return a == b
}

func evaluateOrdering(fieldValue any, cond *FilterCondition) (bool, error) {
	fv, okF := ToFloat64(fieldValue)
	cv, okC := ToFloat64(cond.Value)
	if okF && okC {
		switch cond.Operator {
		case ComparisonOperatorLt:
			return fv < cv, nil
		case ComparisonOperatorLte:
			return fv <= cv, nil
		case ComparisonOperatorGt:
			return fv > cv, nil
		case ComparisonOperatorGte:
			return fv >= cv, nil
		}
	}
	// Fall back to lexicographic comparison for strings (dates in ISO form
	// order correctly this way).
	fs, okFS := fieldValue.(string)
	cs, okCS := cond.Value.(string)
	if okFS && okCS {
		switch cond.Operator {
		case ComparisonOperatorLt:
			return fs < cs, nil
		case ComparisonOperatorLte:
			return fs <= cs, nil
		case ComparisonOperatorGt:
			return fs > cs, nil
		case ComparisonOperatorGte:
			return fs >= cs, nil
		}
	}
	return false, fmt.Errorf("unsupported types for %s comparison: %T and %T", cond.Operator, fieldValue, cond.Value)
}

func valueInList(fieldValue any, listValue FilterValue) (bool, error) {
	list, err := asList(listValue)
	if err != nil {
		return false, err
	}
	for _, candidate := range list {
		if looseEqual(fieldValue, candidate) {
			return true, nil
		}
	}
	return false, nil
}

func valueBetween(fieldValue any, rangeValue FilterValue) (bool, error) {
	bounds, err := asList(rangeValue)
	if err != nil {
		return false, err
	}
	if len(bounds) != 2 {
		return false, fmt.Errorf("between expects exactly two bounds, got %d", len(bounds))
	}
	fv, okF := ToFloat64(fieldValue)
	lo, okL := ToFloat64(bounds[0])
	hi, okH := ToFloat64(bounds[1])
	if okF && okL && okH {
		return fv >= lo && fv <= hi, nil
	}
	fs, okFS := fieldValue.(string)
	ls, okLS := bounds[0].(string)
	hs, okHS := bounds[1].(string)
	if okFS && okLS && okHS {
		return fs >= ls && fs <= hs, nil
	}
	return false, fmt.Errorf("unsupported types for between: %T in [%T, %T]", fieldValue, bounds[0], bounds[1])
}

func asList(v FilterValue) ([]any, error) {
	switch list := v.(type) {
	case []any:
		return list, nil
	case []FilterValue:
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = item
		}
		return out, nil
	case []string:
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = item
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list value, got %T", v)
	}
}

func stringPredicate(fieldValue any, condValue FilterValue, pred func(s, sub string) bool) (bool, error) {
	s, okS := fieldValue.(string)
	sub, okSub := condValue.(string)
	if !okS || !okSub {
		return false, fmt.Errorf("string operator requires string operands, got %T and %T", fieldValue, condValue)
	}
	return pred(s, sub), nil
}
