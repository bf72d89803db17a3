package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"objstore-backend/internal/domain/models"
)

func TestToFilterConditionLeaves(t *testing.T) {
	tests := []struct {
		name      string
		condition models.SearchCondition
		want      expression.ConditionBuilder
	}{
		{
			name:      "equal",
			condition: models.Where("status", models.OpEqual, "active"),
			want:      expression.Name("status").Equal(expression.Value("active")),
		},
		{
			name:      "not equal also matches absent attribute",
			condition: models.Where("status", models.OpNotEqual, "active"),
			want: expression.AttributeNotExists(expression.Name("status")).
				Or(expression.Name("status").NotEqual(expression.Value("active"))),
		},
		{
			name:      "greater than",
			condition: models.Where("rank", models.OpGreaterThan, 3),
			want:      expression.Name("rank").GreaterThan(expression.Value(3)),
		},
		{
			name:      "range pair",
			condition: models.Where("rank", models.OpBetween, []any{1, 5}),
			want:      expression.Name("rank").Between(expression.Value(1), expression.Value(5)),
		},
		{
			name:      "membership",
			condition: models.Where("status", models.OpIn, []string{"active", "draft"}),
			want: expression.Name("status").In(
				expression.Value("active"), expression.Value("draft")),
		},
		{
			name:      "negated membership also matches absent attribute",
			condition: models.Where("status", models.OpNotIn, []string{"archived"}),
			want: expression.AttributeNotExists(expression.Name("status")).
				Or(expression.Not(expression.Name("status").In(expression.Value("archived")))),
		},
		{
			name:      "substring match",
			condition: models.Where("title", models.OpLike, "report"),
			want:      expression.Name("title").Contains("report"),
		},
		{
			name:      "negated substring requires presence",
			condition: models.Where("title", models.OpNotLike, "draft"),
			want: expression.AttributeExists(expression.Name("title")).
				And(expression.Not(expression.Name("title").Contains("draft"))),
		},
		{
			name:      "empty membership list matches none",
			condition: models.Where("status", models.OpIn, []string{}),
			want:      expression.AttributeNotExists(expression.Name(attrPartition)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toFilterCondition(&tt.condition)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToFilterConditionUnconstrained(t *testing.T) {
	tests := []struct {
		name      string
		condition *models.SearchCondition
	}{
		{"nil tree", nil},
		{"empty and", ptr(models.And())},
		{"between with one bound", ptr(models.Where("rank", models.OpBetween, []any{1}))},
		{"in with scalar", ptr(models.Where("status", models.OpIn, "active"))},
		{"like with non-string", ptr(models.Where("title", models.OpLike, 42))},
		{"unknown operator", ptr(models.Where("title", models.Operator("regex"), "x"))},
		{
			"or with an unconstrained child",
			ptr(models.Or(
				models.Where("status", models.OpEqual, "active"),
				models.Where("rank", models.OpBetween, 7),
			)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := toFilterCondition(tt.condition)
			assert.False(t, ok)
		})
	}
}

func TestToFilterConditionBranches(t *testing.T) {
	t.Run("and combines children", func(t *testing.T) {
		cond := models.And(
			models.Where("tenantId", models.OpEqual, "t1"),
			models.Where("rank", models.OpGreaterOrEqual, 2),
		)
		got, ok := toFilterCondition(&cond)
		require.True(t, ok)
		want := expression.Name("tenantId").Equal(expression.Value("t1")).
			And(expression.Name("rank").GreaterThanEqual(expression.Value(2)))
		assert.Equal(t, want, got)
	})

	t.Run("and skips unconstrained children", func(t *testing.T) {
		cond := models.And(
			models.Where("rank", models.OpBetween, 7),
			models.Where("status", models.OpEqual, "active"),
		)
		got, ok := toFilterCondition(&cond)
		require.True(t, ok)
		assert.Equal(t, expression.Name("status").Equal(expression.Value("active")), got)
	})

	t.Run("or combines children", func(t *testing.T) {
		cond := models.Or(
			models.Where("status", models.OpEqual, "active"),
			models.Where("status", models.OpEqual, "draft"),
		)
		got, ok := toFilterCondition(&cond)
		require.True(t, ok)
		want := expression.Name("status").Equal(expression.Value("active")).
			Or(expression.Name("status").Equal(expression.Value("draft")))
		assert.Equal(t, want, got)
	})

	t.Run("empty or matches none", func(t *testing.T) {
		cond := models.Or()
		got, ok := toFilterCondition(&cond)
		require.True(t, ok)
		assert.Equal(t, expression.AttributeNotExists(expression.Name(attrPartition)), got)
	})

	t.Run("translated tree builds a valid expression", func(t *testing.T) {
		cond := models.And(
			models.Where("tenantId", models.OpEqual, "t1"),
			models.Or(
				models.Where("status", models.OpEqual, "active"),
				models.Where("rank", models.OpLessThan, 2),
			),
		)
		filter, ok := toFilterCondition(&cond)
		require.True(t, ok)

		expr, err := expression.NewBuilder().WithFilter(filter).Build()
		require.NoError(t, err)
		assert.NotEmpty(t, expr.Names())
		assert.NotEmpty(t, expr.Values())
	})
}

func ptr(c models.SearchCondition) *models.SearchCondition {
	return &c
}
