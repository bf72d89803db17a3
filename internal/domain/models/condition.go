package models

// Operator is a leaf comparison operator in a search condition
type Operator string

// Supported leaf operators
const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpGreaterThan    Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLessThan       Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpLike           Operator = "like"
	OpNotLike        Operator = "not_like"
	OpIn             Operator = "in"
	OpNotIn          Operator = "not_in"
	OpBetween        Operator = "between"
)

// LogicalOperator combines child conditions in a branch
type LogicalOperator string

// Supported logical operators
const (
	LogicAnd LogicalOperator = "AND"
	LogicOr  LogicalOperator = "OR"
)

// SearchCondition is a recursive boolean search expression. A branch carries a
// Logic operator and child Conditions; a leaf carries Field, Operator and
// Value. A non-empty Logic marks a branch. For OpIn, OpNotIn and OpBetween the
// value is a sequence of scalars; for every other operator it is a scalar.
type SearchCondition struct {
	Logic      LogicalOperator   `json:"logic,omitempty"`
	Conditions []SearchCondition `json:"conditions,omitempty"`

	Field    string   `json:"field,omitempty"`
	Operator Operator `json:"operator,omitempty"`
	Value    any      `json:"value,omitempty"`
}

// IsBranch reports whether the condition is a branch node
func (c *SearchCondition) IsBranch() bool {
	return c.Logic != ""
}

// Where creates a leaf condition
func Where(field string, op Operator, value any) SearchCondition {
	return SearchCondition{Field: field, Operator: op, Value: value}
}

// And creates a conjunction branch. With zero children it matches everything.
func And(conditions ...SearchCondition) SearchCondition {
	return SearchCondition{Logic: LogicAnd, Conditions: conditions}
}

// Or creates a disjunction branch. With zero children it matches nothing.
func Or(conditions ...SearchCondition) SearchCondition {
	return SearchCondition{Logic: LogicOr, Conditions: conditions}
}

// PinnedValue reports whether the condition constrains every match of the
// named field to a single value, and that value. An AND branch pins the field
// when any child pins it; an OR branch only when all children agree on one
// value. Adapters use this to target a single tenant database or collection.
func (c *SearchCondition) PinnedValue(field string) (string, bool) {
	if c == nil {
		return "", false
	}
	if !c.IsBranch() {
		if c.Field == field && c.Operator == OpEqual {
			if s, ok := c.Value.(string); ok {
				return s, true
			}
		}
		return "", false
	}
	switch c.Logic {
	case LogicAnd:
		for i := range c.Conditions {
			if v, ok := c.Conditions[i].PinnedValue(field); ok {
				return v, true
			}
		}
	case LogicOr:
		var pinned string
		for i := range c.Conditions {
			v, ok := c.Conditions[i].PinnedValue(field)
			if !ok {
				return "", false
			}
			if i > 0 && v != pinned {
				return "", false
			}
			pinned = v
		}
		if len(c.Conditions) > 0 {
			return pinned, true
		}
	}
	return "", false
}
