package dynamo

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"

	"objstore-backend/internal/domain/models"
)

// matchNone is a condition no item can satisfy: the partition key attribute
// always exists. It encodes an OR branch with zero children.
func matchNone() expression.ConditionBuilder {
	return expression.AttributeNotExists(expression.Name(attrPartition))
}

// toFilterCondition translates a search condition tree into a DynamoDB filter
// expression. The second result is false when the tree imposes no constraint
// (nil tree, empty AND, or an ambiguous leaf such as a malformed between
// value), in which case the scan runs unfiltered rather than failing.
//
// Missing-attribute semantics follow the condition model: != and not_in carry
// an attribute_not_exists branch so absence matches, while not_like requires
// presence. The server-side contains() used for like/not_like is
// case-sensitive; that, together with scan-page truncation, is this adapter's
// documented deviation.
func toFilterCondition(c *models.SearchCondition) (expression.ConditionBuilder, bool) {
	if c == nil {
		return expression.ConditionBuilder{}, false
	}
	if c.IsBranch() {
		return branchCondition(c)
	}
	return leafCondition(c)
}

func branchCondition(c *models.SearchCondition) (expression.ConditionBuilder, bool) {
	if c.Logic == models.LogicOr {
		// An unconstrained child makes the whole disjunction unconstrained
		children := make([]expression.ConditionBuilder, 0, len(c.Conditions))
		for i := range c.Conditions {
			child, ok := toFilterCondition(&c.Conditions[i])
			if !ok {
				return expression.ConditionBuilder{}, false
			}
			children = append(children, child)
		}
		if len(children) == 0 {
			return matchNone(), true
		}
		out := children[0]
		for _, child := range children[1:] {
			out = out.Or(child)
		}
		return out, true
	}

	children := make([]expression.ConditionBuilder, 0, len(c.Conditions))
	for i := range c.Conditions {
		if child, ok := toFilterCondition(&c.Conditions[i]); ok {
			children = append(children, child)
		}
	}
	if len(children) == 0 {
		return expression.ConditionBuilder{}, false
	}
	out := children[0]
	for _, child := range children[1:] {
		out = out.And(child)
	}
	return out, true
}

func leafCondition(c *models.SearchCondition) (expression.ConditionBuilder, bool) {
	name := expression.Name(c.Field)

	switch c.Operator {
	case models.OpEqual:
		return name.Equal(expression.Value(c.Value)), true

	case models.OpNotEqual:
		return expression.AttributeNotExists(name).
			Or(name.NotEqual(expression.Value(c.Value))), true

	case models.OpGreaterThan:
		return name.GreaterThan(expression.Value(c.Value)), true

	case models.OpGreaterOrEqual:
		return name.GreaterThanEqual(expression.Value(c.Value)), true

	case models.OpLessThan:
		return name.LessThan(expression.Value(c.Value)), true

	case models.OpLessOrEqual:
		return name.LessThanEqual(expression.Value(c.Value)), true

	case models.OpLike:
		pattern, ok := c.Value.(string)
		if !ok {
			return expression.ConditionBuilder{}, false
		}
		return name.Contains(pattern), true

	case models.OpNotLike:
		pattern, ok := c.Value.(string)
		if !ok {
			return expression.ConditionBuilder{}, false
		}
		return expression.AttributeExists(name).
			And(expression.Not(name.Contains(pattern))), true

	case models.OpIn:
		list, ok := models.ValueList(c.Value)
		if !ok {
			return expression.ConditionBuilder{}, false
		}
		if len(list) == 0 {
			return matchNone(), true
		}
		return name.In(operand(list[0]), operands(list[1:])...), true

	case models.OpNotIn:
		list, ok := models.ValueList(c.Value)
		if !ok || len(list) == 0 {
			return expression.ConditionBuilder{}, false
		}
		return expression.AttributeNotExists(name).
			Or(expression.Not(name.In(operand(list[0]), operands(list[1:])...))), true

	case models.OpBetween:
		list, ok := models.ValueList(c.Value)
		if !ok || len(list) != 2 {
			return expression.ConditionBuilder{}, false
		}
		return name.Between(operand(list[0]), operand(list[1])), true
	}
	return expression.ConditionBuilder{}, false
}

func operand(v any) expression.OperandBuilder {
	return expression.Value(v)
}

func operands(values []any) []expression.OperandBuilder {
	out := make([]expression.OperandBuilder, len(values))
	for i, v := range values {
		out[i] = expression.Value(v)
	}
	return out
}
