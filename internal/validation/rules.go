package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Record is the plain, untyped shape every input is coerced to before validation.
type Record map[string]any

// Violation is a single failed check. Path is relative to the value the rule was
// applied to; Object and Array prefix it as violations bubble up.
type Violation struct {
	Path    []string
	Message string
}

func (v Violation) String() string {
	if len(v.Path) == 0 {
		return v.Message
	}
	return strings.Join(v.Path, ".") + ": " + v.Message
}

// Rule normalizes value or reports why it is invalid.
type Rule func(value any) (any, []Violation)

var validate = validator.New()

func fail(msg string) []Violation {
	return []Violation{{Message: msg}}
}

// check runs a validator tag against value. An invalid tag panics inside the
// validator, which is a schema bug rather than bad input.
func check(value any, tag, msg string) []Violation {
	if err := validate.Var(value, tag); err != nil {
		return fail(msg)
	}
	return nil
}

// Chain applies rules in order. It stops at the first violation, and also when a
// rule yields nil, which is how optional fields short-circuit.
func Chain(rules ...Rule) Rule {
	return func(value any) (any, []Violation) {
		for _, rule := range rules {
			var violations []Violation
			value, violations = rule(value)
			if len(violations) > 0 {
				return value, violations
			}
			if value == nil {
				return nil, nil
			}
		}
		return value, nil
	}
}

func Required(msg string) Rule {
	return func(value any) (any, []Violation) {
		if value == nil {
			return nil, fail(msg)
		}
		return value, nil
	}
}

// Default substitutes def for an absent value.
func Default(def any) Rule {
	return func(value any) (any, []Violation) {
		if value == nil {
			return def, nil
		}
		return value, nil
	}
}

// Nullable lets an absent value through as nil.
func Nullable() Rule {
	return func(value any) (any, []Violation) {
		return value, nil
	}
}

func String() Rule {
	return func(value any) (any, []Violation) {
		s, ok := value.(string)
		if !ok {
			return value, fail("Expected string, received " + typeName(value))
		}
		return s, nil
	}
}

func Sanitized() Rule {
	return func(value any) (any, []Violation) {
		return Sanitize(value.(string)), nil
	}
}

// NilIfEmpty turns an empty string into an absent value.
func NilIfEmpty() Rule {
	return func(value any) (any, []Violation) {
		if s, ok := value.(string); ok && s == "" {
			return nil, nil
		}
		return value, nil
	}
}

func MinLength(n int, msg string) Rule {
	return func(value any) (any, []Violation) {
		return value, check(value, fmt.Sprintf("min=%d", n), msg)
	}
}

func MaxLength(n int, msg string) Rule {
	return func(value any) (any, []Violation) {
		return value, check(value, fmt.Sprintf("max=%d", n), msg)
	}
}

func ExactLength(n int, msg string) Rule {
	return func(value any) (any, []Violation) {
		return value, check(value, fmt.Sprintf("len=%d", n), msg)
	}
}

func OneOf(msg string, values ...string) Rule {
	tag := "oneof=" + strings.Join(values, " ")
	return func(value any) (any, []Violation) {
		return value, check(value, tag, msg)
	}
}

func Bool() Rule {
	return func(value any) (any, []Violation) {
		b, ok := value.(bool)
		if !ok {
			return value, fail("Expected boolean, received " + typeName(value))
		}
		return b, nil
	}
}

// Int accepts any integral JSON or Go number and normalizes it to int64.
func Int() Rule {
	return func(value any) (any, []Violation) {
		switch n := value.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			if n != math.Trunc(n) || math.IsInf(n, 0) {
				return value, fail("Expected integer, received float")
			}
			return int64(n), nil
		case json.Number:
			i, err := strconv.ParseInt(n.String(), 10, 64)
			if err != nil {
				return value, fail("Expected integer, received float")
			}
			return i, nil
		default:
			return value, fail("Expected number, received " + typeName(value))
		}
	}
}

func IntRange(min, max int64, msg string) Rule {
	tag := fmt.Sprintf("min=%d,max=%d", min, max)
	return func(value any) (any, []Violation) {
		return value, check(value, tag, msg)
	}
}

func Positive(msg string) Rule {
	return func(value any) (any, []Violation) {
		return value, check(value, "gt=0", msg)
	}
}

// Timestamp accepts an RFC 3339 string and normalizes it to time.Time.
func Timestamp() Rule {
	return func(value any) (any, []Violation) {
		if violations := check(value, "datetime="+time.RFC3339, "Invalid datetime"); violations != nil {
			return value, violations
		}
		t, err := time.Parse(time.RFC3339, value.(string))
		if err != nil {
			return value, fail("Invalid datetime")
		}
		return t.UTC(), nil
	}
}

// Field names a rule so its violations are reported under name.
type Field struct {
	Name string
	Rule Rule
}

// Object validates every declared field of a Record and collects all violations.
// Undeclared keys are dropped.
func Object(fields ...Field) Rule {
	return func(value any) (any, []Violation) {
		rec, ok := asRecord(value)
		if !ok {
			return value, fail("Expected object, received " + typeName(value))
		}

		out := make(Record, len(fields))
		var violations []Violation
		for _, f := range fields {
			v, fv := f.Rule(rec[f.Name])
			for _, violation := range fv {
				violation.Path = append([]string{f.Name}, violation.Path...)
				violations = append(violations, violation)
			}
			out[f.Name] = v
		}
		return out, violations
	}
}

// Array validates each element with elem and bounds the element count.
func Array(elem Rule, min int, minMsg string, max int, maxMsg string) Rule {
	return func(value any) (any, []Violation) {
		items, ok := value.([]any)
		if !ok {
			return value, fail("Expected array, received " + typeName(value))
		}

		var violations []Violation
		out := make([]any, len(items))
		for i, item := range items {
			v, iv := elem(item)
			for _, violation := range iv {
				violation.Path = append([]string{strconv.Itoa(i)}, violation.Path...)
				violations = append(violations, violation)
			}
			out[i] = v
		}
		if len(items) < min {
			violations = append(violations, Violation{Message: minMsg})
		}
		if len(items) > max {
			violations = append(violations, Violation{Message: maxMsg})
		}
		return out, violations
	}
}

// Refine runs a cross-field check once the wrapped rule has passed.
func Refine(rule Rule, refine func(value any) []Violation) Rule {
	return func(value any) (any, []Violation) {
		out, violations := rule(value)
		if len(violations) > 0 {
			return out, violations
		}
		return out, refine(out)
	}
}

func asRecord(value any) (Record, bool) {
	switch r := value.(type) {
	case Record:
		return r, true
	case map[string]any:
		return Record(r), true
	default:
		return nil, false
	}
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int32, int64, float64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any, Record:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}
