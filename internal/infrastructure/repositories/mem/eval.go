package mem

import (
	"strings"

	"objstore-backend/internal/domain/models"
)

// Evaluate applies a search condition tree to a single resource.
//
// Branch semantics: AND with zero children is true, OR with zero children is
// false. A missing field is non-matching for every operator except != and
// not_in, which treat absence as a match. Ambiguous leaf inputs (a between
// value that is not a two-element sequence, a non-sequence in/not_in value, an
// unknown operator) degrade to "no constraint" and match everything rather
// than failing the record; well-formedness is decided before field presence so
// an ambiguous leaf matches records missing the field too. This mirrors the
// translators' match-all policy for the same inputs.
func Evaluate(condition *models.SearchCondition, resource *models.Resource) bool {
	if condition == nil {
		return true
	}
	if condition.IsBranch() {
		switch condition.Logic {
		case models.LogicAnd:
			for i := range condition.Conditions {
				if !Evaluate(&condition.Conditions[i], resource) {
					return false
				}
			}
			return true
		case models.LogicOr:
			for i := range condition.Conditions {
				if Evaluate(&condition.Conditions[i], resource) {
					return true
				}
			}
			return false
		}
		return true
	}
	return evaluateLeaf(condition, resource)
}

func evaluateLeaf(c *models.SearchCondition, resource *models.Resource) bool {
	value, present := resource.Field(c.Field)

	switch c.Operator {
	case models.OpEqual:
		return present && models.EqualValues(value, c.Value)

	case models.OpNotEqual:
		if !present {
			return true
		}
		return !models.EqualValues(value, c.Value)

	case models.OpGreaterThan, models.OpGreaterOrEqual, models.OpLessThan, models.OpLessOrEqual:
		if !present {
			return false
		}
		cmp, ok := models.CompareValues(value, c.Value)
		if !ok {
			return false
		}
		switch c.Operator {
		case models.OpGreaterThan:
			return cmp > 0
		case models.OpGreaterOrEqual:
			return cmp >= 0
		case models.OpLessThan:
			return cmp < 0
		default:
			return cmp <= 0
		}

	case models.OpLike:
		return present && containsFold(value, c.Value)

	case models.OpNotLike:
		return present && !containsFold(value, c.Value)

	case models.OpIn:
		list, ok := models.ValueList(c.Value)
		if !ok {
			return true
		}
		if !present {
			return false
		}
		return containsValue(list, value)

	case models.OpNotIn:
		list, ok := models.ValueList(c.Value)
		if !ok {
			return true
		}
		if !present {
			return true
		}
		return !containsValue(list, value)

	case models.OpBetween:
		list, ok := models.ValueList(c.Value)
		if !ok || len(list) != 2 {
			return true
		}
		if !present {
			return false
		}
		low, lok := models.CompareValues(value, list[0])
		high, hok := models.CompareValues(value, list[1])
		return lok && hok && low >= 0 && high <= 0
	}
	// Unknown operators impose no constraint, like the translators
	return true
}

// containsFold performs case-insensitive substring containment
func containsFold(value, pattern any) bool {
	return strings.Contains(
		strings.ToLower(models.Stringify(value)),
		strings.ToLower(models.Stringify(pattern)),
	)
}

func containsValue(list []any, value any) bool {
	for _, candidate := range list {
		if models.EqualValues(value, candidate) {
			return true
		}
	}
	return false
}
