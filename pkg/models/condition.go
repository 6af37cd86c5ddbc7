// Package models provides condition evaluation for stage entry rules.
package models

import (
	"strconv"
	"strings"
)

// ConditionType names the content item attribute a condition reads.
type ConditionType string

const (
	ConditionContentType ConditionType = "content_type"
	ConditionPriority    ConditionType = "priority"
	ConditionClient      ConditionType = "client"
	ConditionValue       ConditionType = "value"
)

// ConditionOperator is the comparison applied between the attribute and the
// condition's value.
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not_equals"
	OperatorContains    ConditionOperator = "contains"
	OperatorGreaterThan ConditionOperator = "greater_than"
	OperatorLessThan    ConditionOperator = "less_than"
)

// Condition is a single stage-entry rule. All conditions on a stage are
// AND-ed; there is no OR or grouping. That limitation is deliberate and
// callers must not work around it by encoding alternatives into Value.
type Condition struct {
	Type     ConditionType     `json:"type"     validate:"required,oneof=content_type priority client value"`
	Operator ConditionOperator `json:"operator" validate:"required,oneof=equals not_equals contains greater_than less_than"`
	Value    any               `json:"value"`
}

// Evaluate applies the condition against the content item attribute named
// by Type. Malformed input fails closed: a missing attribute, an unknown
// operator, or a non-numeric operand under a numeric operator all yield
// false rather than an error, so one bad condition cannot abort evaluation
// of a whole workflow set. Callers should log non-matches they suspect are
// data-quality issues.
func (c *Condition) Evaluate(item *ContentItem) bool {
	attr, ok := c.attribute(item)
	if !ok {
		return false
	}

	switch c.Operator {
	case OperatorEquals:
		return equalValues(attr, c.Value)
	case OperatorNotEquals:
		return !equalValues(attr, c.Value)
	case OperatorContains:
		return containsValue(attr, c.Value)
	case OperatorGreaterThan:
		left, right, ok := numericOperands(attr, c.Value)
		return ok && left > right
	case OperatorLessThan:
		left, right, ok := numericOperands(attr, c.Value)
		return ok && left < right
	default:
		return false
	}
}

// attribute looks up the content item field addressed by the condition
// type. The second return is false when the attribute is absent, which the
// evaluator treats as "not matching".
func (c *Condition) attribute(item *ContentItem) (any, bool) {
	if item == nil {
		return nil, false
	}

	switch c.Type {
	case ConditionContentType:
		return item.Type, item.Type != ""
	case ConditionPriority:
		return item.Priority, item.Priority != ""
	case ConditionClient:
		return item.ClientID, item.ClientID != ""
	case ConditionValue:
		// Estimated revenue defaults to 0 when absent, so it is always
		// present for comparison purposes.
		return item.EstimatedRevenue, true
	default:
		return nil, false
	}
}

// StageConditionsMet reports whether every condition on the stage holds for
// the content item. A stage with no conditions always applies.
func StageConditionsMet(stage *Stage, item *ContentItem) bool {
	for _, cond := range stage.Conditions {
		if !cond.Evaluate(item) {
			return false
		}
	}

	return true
}

// equalValues compares structurally, tolerating the int/float64 mismatch
// that JSON decoding introduces.
func equalValues(a, b any) bool {
	if a == b {
		return true
	}

	if left, ok := toFloat(a); ok {
		if right, ok := toFloat(b); ok {
			return left == right
		}
	}

	return false
}

// containsValue implements substring match for strings and element
// membership for string slices.
func containsValue(attr, value any) bool {
	needle, ok := value.(string)

	switch haystack := attr.(type) {
	case string:
		return ok && strings.Contains(haystack, needle)
	case []string:
		for _, elem := range haystack {
			if equalValues(elem, value) {
				return true
			}
		}

		return false
	case []any:
		for _, elem := range haystack {
			if equalValues(elem, value) {
				return true
			}
		}

		return false
	default:
		return false
	}
}

func numericOperands(a, b any) (float64, float64, bool) {
	left, ok := toFloat(a)
	if !ok {
		return 0, 0, false
	}

	right, ok := toFloat(b)
	if !ok {
		return 0, 0, false
	}

	return left, right, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}

		return parsed, true
	default:
		return 0, false
	}
}
