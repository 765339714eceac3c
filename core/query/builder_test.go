package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryBuilderField(t *testing.T) {
	q, err := NewQueryBuilder().
		Field("status", ComparisonOperatorEq, "published").
		Build()
	require.NoError(t, err)
	require.NotNil(t, q.Filter)
	require.NotNil(t, q.Filter.Group)

	// A single condition still lives inside the implicit top-level AND group.
	assert.Equal(t, LogicalOperatorAnd, q.Filter.Group.Operator)
	require.Len(t, q.Filter.Group.Conditions, 1)
	cond := q.Filter.Group.Conditions[0].Condition
	require.NotNil(t, cond)
	assert.Equal(t, "status", cond.Field)
	assert.Equal(t, ComparisonOperatorEq, cond.Operator)
	assert.Equal(t, "published", cond.Value)
}

func TestQueryBuilderMultipleFieldsJoinWithAnd(t *testing.T) {
	q, err := NewQueryBuilder().
		Field("status", ComparisonOperatorEq, "published").
		Field("views", ComparisonOperatorGt, 100).
		Build()
	require.NoError(t, err)
	require.NotNil(t, q.Filter.Group)
	assert.Equal(t, LogicalOperatorAnd, q.Filter.Group.Operator)
	assert.Len(t, q.Filter.Group.Conditions, 2)
}

func TestQueryBuilderOrCondition(t *testing.T) {
	q, err := NewQueryBuilder().
		OrCondition([]ConditionSet{
			{"status": {ComparisonOperatorEq: "draft"}},
			{"status": {ComparisonOperatorEq: "archived"}},
		}).
		Build()
	require.NoError(t, err)

	require.Len(t, q.Filter.Group.Conditions, 1)
	or := q.Filter.Group.Conditions[0].Group
	require.NotNil(t, or)
	assert.Equal(t, LogicalOperatorOr, or.Operator)
	require.Len(t, or.Conditions, 2)
	assert.Equal(t, "draft", or.Conditions[0].Condition.Value)
	assert.Equal(t, "archived", or.Conditions[1].Condition.Value)
}

func TestQueryBuilderAndCondition(t *testing.T) {
	q, err := NewQueryBuilder().
		AndCondition([]ConditionSet{
			{"age": {ComparisonOperatorGte: 18}},
			{"age": {ComparisonOperatorLt: 65}},
		}).
		Build()
	require.NoError(t, err)

	nested := q.Filter.Group.Conditions[0].Group
	require.NotNil(t, nested)
	assert.Equal(t, LogicalOperatorAnd, nested.Operator)
	assert.Len(t, nested.Conditions, 2)
}

func TestQueryBuilderValidation(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *QueryBuilder
		wantErr error
	}{
		{
			name: "empty field name",
			build: func() *QueryBuilder {
				return NewQueryBuilder().Field("", ComparisonOperatorEq, 1)
			},
			wantErr: ErrInvalidFilterShape,
		},
		{
			name: "unknown operator",
			build: func() *QueryBuilder {
				return NewQueryBuilder().Field("a", ComparisonOperator("_bogus"), 1)
			},
			wantErr: ErrInvalidOperator,
		},
		{
			name: "empty or group",
			build: func() *QueryBuilder {
				return NewQueryBuilder().OrCondition(nil)
			},
			wantErr: ErrInvalidFilterShape,
		},
		{
			name: "condition set with two fields",
			build: func() *QueryBuilder {
				return NewQueryBuilder().OrCondition([]ConditionSet{
					{
						"a": {ComparisonOperatorEq: 1},
						"b": {ComparisonOperatorEq: 2},
					},
				})
			},
			wantErr: ErrInvalidFilterShape,
		},
		{
			name: "condition set with two operators",
			build: func() *QueryBuilder {
				return NewQueryBuilder().AndCondition([]ConditionSet{
					{"a": {ComparisonOperatorGt: 1, ComparisonOperatorLt: 9}},
				})
			},
			wantErr: ErrInvalidFilterShape,
		},
		{
			name: "negative limit",
			build: func() *QueryBuilder {
				return NewQueryBuilder().Limit(-1)
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name: "negative offset",
			build: func() *QueryBuilder {
				return NewQueryBuilder().Offset(-5)
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name: "zero page",
			build: func() *QueryBuilder {
				return NewQueryBuilder().Page(0)
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name: "empty sort field",
			build: func() *QueryBuilder {
				return NewQueryBuilder().Sort("-")
			},
			wantErr: ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qb := tt.build()
			assert.ErrorIs(t, qb.Err(), tt.wantErr)
			_, err := qb.Build()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestQueryBuilderStickyError(t *testing.T) {
	qb := NewQueryBuilder().
		Limit(-1).
		Field("status", ComparisonOperatorEq, "published").
		Offset(-9)

	// The first failure wins; later calls are no-ops.
	assert.ErrorIs(t, qb.Err(), ErrInvalidArgument)
	assert.Contains(t, qb.Err().Error(), "limit")

	_, err := qb.Build()
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestQueryBuilderSortAccumulates(t *testing.T) {
	q, err := NewQueryBuilder().
		Sort("-created_at").
		Sort("title", "-views").
		Build()
	require.NoError(t, err)

	assert.Equal(t, []SortField{
		{Field: "created_at", Direction: SortDirectionDesc},
		{Field: "title", Direction: SortDirectionAsc},
		{Field: "views", Direction: SortDirectionDesc},
	}, q.Sort)
}

func TestQueryBuilderSelectFieldsReplaces(t *testing.T) {
	q, err := NewQueryBuilder().
		SelectFields("id", "title").
		SelectFields("id", "status").
		Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "status"}, q.Fields)
}

func TestQueryBuilderPagination(t *testing.T) {
	q, err := NewQueryBuilder().Limit(25).Offset(50).Page(3).Search("golang").Build()
	require.NoError(t, err)
	require.NotNil(t, q.Limit)
	require.NotNil(t, q.Offset)
	require.NotNil(t, q.Page)
	assert.Equal(t, 25, *q.Limit)
	assert.Equal(t, 50, *q.Offset)
	assert.Equal(t, 3, *q.Page)
	assert.Equal(t, "golang", q.Search)
}

func TestQueryBuilderBuildReturnsIndependentCopies(t *testing.T) {
	qb := NewQueryBuilder().
		Field("status", ComparisonOperatorIn, []any{"published", "draft"}).
		Limit(10)

	first, err := qb.Build()
	require.NoError(t, err)

	qb.Field("views", ComparisonOperatorGt, 100).Limit(99)
	second, err := qb.Build()
	require.NoError(t, err)

	// Mutating the builder after Build must not leak into the earlier query.
	assert.Len(t, first.Filter.Group.Conditions, 1)
	assert.Len(t, second.Filter.Group.Conditions, 2)
	assert.Equal(t, 10, *first.Limit)
	assert.Equal(t, 99, *second.Limit)

	// Deep copy extends into list values.
	list := second.Filter.Group.Conditions[0].Condition.Value.([]any)
	list[0] = "mutated"
	assert.Equal(t, "published", first.Filter.Group.Conditions[0].Condition.Value.([]any)[0])
}

func TestQueryBuilderEmptyBuild(t *testing.T) {
	q, err := NewQueryBuilder().Build()
	require.NoError(t, err)
	assert.Nil(t, q.Filter)
	assert.Nil(t, q.Sort)
	assert.Nil(t, q.Limit)
	assert.Empty(t, q.Fields)
}

func TestQueryBuilderReset(t *testing.T) {
	qb := NewQueryBuilder().Limit(-1)
	require.Error(t, qb.Err())

	q, err := qb.Reset().Field("a", ComparisonOperatorEq, 1).Limit(5).Build()
	require.NoError(t, err)
	assert.NotNil(t, q.Filter)
	assert.Equal(t, 5, *q.Limit)
}

func TestQueryBuilderString(t *testing.T) {
	qb := NewQueryBuilder()
	assert.Equal(t, "EMPTY QUERY", qb.String())

	qb.Field("a", ComparisonOperatorEq, 1).Sort("-b").Limit(5)
	summary := qb.String()
	assert.Contains(t, summary, "CONDITIONS: 1")
	assert.Contains(t, summary, "SORT: b desc")
	assert.Contains(t, summary, "LIMIT: 5")
}

func TestQueryBuilderCombinedChain(t *testing.T) {
	q, err := NewQueryBuilder().
		Field("status", ComparisonOperatorEq, "published").
		OrCondition([]ConditionSet{
			{"author": {ComparisonOperatorEq: "john"}},
			{"category": {ComparisonOperatorIn: []any{"news", "tech"}}},
		}).
		Sort("date_created", "-title").
		Limit(10).
		Offset(0).
		Build()
	require.NoError(t, err)

	root := q.Filter.Group
	require.NotNil(t, root)
	assert.Equal(t, LogicalOperatorAnd, root.Operator)
	require.Len(t, root.Conditions, 2)

	status := root.Conditions[0].Condition
	require.NotNil(t, status)
	assert.Equal(t, "status", status.Field)

	or := root.Conditions[1].Group
	require.NotNil(t, or)
	assert.Equal(t, LogicalOperatorOr, or.Operator)
	require.Len(t, or.Conditions, 2)
	assert.Equal(t, "author", or.Conditions[0].Condition.Field)
	assert.Equal(t, ComparisonOperatorIn, or.Conditions[1].Condition.Operator)

	assert.Equal(t, []SortField{
		{Field: "date_created", Direction: SortDirectionAsc},
		{Field: "title", Direction: SortDirectionDesc},
	}, q.Sort)
	assert.Equal(t, 10, *q.Limit)
	assert.Equal(t, 0, *q.Offset)
}

func TestCreateFilterHelpers(t *testing.T) {
	leaf := CreateSimpleFilter("a", ComparisonOperatorEq, 1)
	require.NotNil(t, leaf.Condition)
	assert.Nil(t, leaf.Group)

	group := CreateFilterGroup(LogicalOperatorOr, leaf, CreateSimpleFilter("b", ComparisonOperatorGt, 2))
	require.NotNil(t, group.Group)
	assert.Len(t, group.Group.Conditions, 2)
}
