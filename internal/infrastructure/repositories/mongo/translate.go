package mongo

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"objstore-backend/internal/domain/models"
)

// matchNone is a filter no document can satisfy; it encodes an OR branch with
// zero children.
func matchNone() bson.M {
	return bson.M{"_id": bson.M{"$in": bson.A{}}}
}

// toFilter translates a search condition tree into a MongoDB filter document.
//
// An empty or nil tree, and any ambiguous leaf (a between value that is not a
// two-element sequence, a non-sequence in/not_in value, a non-string like
// pattern) degrade to the match-all filter rather than failing, keeping
// partial-filter queries analyzable. Missing-field semantics follow the
// condition model: $ne and $nin natively match documents lacking the field,
// every other operator natively rejects them.
func toFilter(c *models.SearchCondition) bson.M {
	if c == nil {
		return bson.M{}
	}
	if c.IsBranch() {
		if len(c.Conditions) == 0 {
			if c.Logic == models.LogicOr {
				return matchNone()
			}
			return bson.M{}
		}
		children := make(bson.A, 0, len(c.Conditions))
		for i := range c.Conditions {
			children = append(children, toFilter(&c.Conditions[i]))
		}
		if c.Logic == models.LogicOr {
			return bson.M{"$or": children}
		}
		return bson.M{"$and": children}
	}
	return leafFilter(c)
}

func leafFilter(c *models.SearchCondition) bson.M {
	switch c.Operator {
	case models.OpEqual:
		return bson.M{c.Field: bson.M{"$eq": c.Value}}

	case models.OpNotEqual:
		return bson.M{c.Field: bson.M{"$ne": c.Value}}

	case models.OpGreaterThan:
		return bson.M{c.Field: bson.M{"$gt": c.Value}}

	case models.OpGreaterOrEqual:
		return bson.M{c.Field: bson.M{"$gte": c.Value}}

	case models.OpLessThan:
		return bson.M{c.Field: bson.M{"$lt": c.Value}}

	case models.OpLessOrEqual:
		return bson.M{c.Field: bson.M{"$lte": c.Value}}

	case models.OpLike:
		pattern, ok := c.Value.(string)
		if !ok {
			return bson.M{}
		}
		return bson.M{c.Field: substringRegex(pattern)}

	case models.OpNotLike:
		pattern, ok := c.Value.(string)
		if !ok {
			return bson.M{}
		}
		// $not alone would also match missing fields; require presence so
		// absence stays non-matching for not_like
		return bson.M{c.Field: bson.M{"$exists": true, "$not": substringRegex(pattern)}}

	case models.OpIn:
		list, ok := models.ValueList(c.Value)
		if !ok {
			return bson.M{}
		}
		return bson.M{c.Field: bson.M{"$in": toArray(list)}}

	case models.OpNotIn:
		list, ok := models.ValueList(c.Value)
		if !ok {
			return bson.M{}
		}
		return bson.M{c.Field: bson.M{"$nin": toArray(list)}}

	case models.OpBetween:
		list, ok := models.ValueList(c.Value)
		if !ok || len(list) != 2 {
			return bson.M{}
		}
		return bson.M{c.Field: bson.M{"$gte": list[0], "$lte": list[1]}}
	}
	return bson.M{}
}

// substringRegex builds a case-insensitive substring containment pattern, not
// glob or full regex semantics
func substringRegex(pattern string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(pattern), Options: "i"}
}

func toArray(list []any) bson.A {
	arr := make(bson.A, len(list))
	copy(arr, list)
	return arr
}
