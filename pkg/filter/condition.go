package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Condition is one typed predicate over a record field
type Condition struct {
	ID       string    `json:"id" yaml:"id"`
	Field    string    `json:"field" yaml:"field"`
	Operator Operator  `json:"operator" yaml:"operator"`
	Value    any       `json:"value,omitempty" yaml:"value,omitempty"`
	Type     FieldType `json:"type" yaml:"type"`
}

// ConditionSet is an ordered list of conditions combined with logical AND
type ConditionSet []Condition

// Clone returns a deep copy of the set. Map-shaped values are copied.
func (s ConditionSet) Clone() ConditionSet {
	if s == nil {
		return nil
	}
	out := make(ConditionSet, len(s))
	for i, c := range s {
		out[i] = c
		if m, ok := c.Value.(map[string]any); ok {
			cp := make(map[string]any, len(m))
			for k, v := range m {
				cp[k] = v
			}
			out[i].Value = cp
		}
	}
	return out
}

// Index returns the position of the condition with the given id, or -1
func (s ConditionSet) Index(id string) int {
	for i, c := range s {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// predicate tests a resolved field value
type predicate func(v any) (bool, error)

// Evaluate tests a single condition against a record. A missing field fails
// closed without an error; a value that cannot be compared fails closed and
// returns the reason.
func Evaluate(c Condition, r Record, now time.Time) (bool, error) {
	return test(compile(c, now), c, r)
}

// Matches reports whether r satisfies every condition in s. An empty set
// matches every record.
func Matches(s ConditionSet, r Record, now time.Time) bool {
	for _, c := range s {
		if ok, _ := Evaluate(c, r, now); !ok {
			return false
		}
	}
	return true
}

func test(p predicate, c Condition, r Record) (bool, error) {
	v, ok := r.Lookup(c.Field)
	if !ok || v == nil {
		return false, nil
	}
	return p(v)
}

// compile builds the predicate for c once so regex and bounds are parsed a
// single time per run
func compile(c Condition, now time.Time) predicate {
	switch c.Type {
	case FieldTypeNumber:
		return compileNumber(c)
	case FieldTypeDate:
		return compileDate(c, now)
	case FieldTypeBoolean:
		return compileBoolean(c)
	default:
		return compileText(c)
	}
}

func failing(err error) predicate {
	return func(any) (bool, error) {
		return false, err
	}
}

func compileText(c Condition) predicate {
	if c.Operator == OpRegex {
		re, err := regexp.Compile(ToText(c.Value))
		if err != nil {
			return failing(fmt.Errorf("invalid regular expression: %w", err))
		}
		return func(v any) (bool, error) {
			return re.MatchString(ToText(v)), nil
		}
	}

	needle := strings.ToLower(ToText(c.Value))
	var fn func(s string) bool

	switch c.Operator {
	case OpContains:
		fn = func(s string) bool { return strings.Contains(s, needle) }
	case OpNotContains:
		fn = func(s string) bool { return !strings.Contains(s, needle) }
	case OpEquals:
		fn = func(s string) bool { return s == needle }
	case OpNotEquals:
		fn = func(s string) bool { return s != needle }
	case OpStartsWith:
		fn = func(s string) bool { return strings.HasPrefix(s, needle) }
	case OpEndsWith:
		fn = func(s string) bool { return strings.HasSuffix(s, needle) }
	default:
		return failing(fmt.Errorf("%w: %s for text", ErrOperatorNotAllowed, c.Operator))
	}

	return func(v any) (bool, error) {
		return fn(strings.ToLower(ToText(v))), nil
	}
}

func compileNumber(c Condition) predicate {
	if c.Operator == OpBetween {
		low, high, ok := bounds(c.Value, "min", "max")
		if !ok {
			return failing(ErrBoundRequired)
		}
		lo, err := ToNumber(low)
		if err != nil {
			return failing(err)
		}
		hi, err := ToNumber(high)
		if err != nil {
			return failing(err)
		}
		return numberTest(func(n float64) bool { return n >= lo && n <= hi })
	}

	target, err := ToNumber(c.Value)
	if err != nil {
		return failing(err)
	}

	switch c.Operator {
	case OpEquals:
		return numberTest(func(n float64) bool { return n == target })
	case OpNotEquals:
		return numberTest(func(n float64) bool { return n != target })
	case OpGreaterThan:
		return numberTest(func(n float64) bool { return n > target })
	case OpLessThan:
		return numberTest(func(n float64) bool { return n < target })
	case OpGreaterEqual:
		return numberTest(func(n float64) bool { return n >= target })
	case OpLessEqual:
		return numberTest(func(n float64) bool { return n <= target })
	}

	return failing(fmt.Errorf("%w: %s for number", ErrOperatorNotAllowed, c.Operator))
}

func numberTest(fn func(float64) bool) predicate {
	return func(v any) (bool, error) {
		n, err := ToNumber(v)
		if err != nil {
			return false, err
		}
		return fn(n), nil
	}
}

func compileDate(c Condition, now time.Time) predicate {
	switch c.Operator {
	case OpLastDays, OpLastWeeks, OpLastMonths:
		n, err := ToCount(c.Value)
		if err != nil {
			return failing(err)
		}
		cutoff := windowStart(c.Operator, n, now)
		return dateTest(func(t time.Time) bool {
			return !t.Before(cutoff) && t.Before(now)
		})

	case OpBetween:
		low, high, ok := bounds(c.Value, "start", "end")
		if !ok {
			return failing(ErrBoundRequired)
		}
		start, err := ToDate(low)
		if err != nil {
			return failing(err)
		}
		end, err := ToDate(high)
		if err != nil {
			return failing(err)
		}
		first, last := day(start), day(end)
		return dateTest(func(t time.Time) bool {
			d := day(t)
			return !d.Before(first) && !d.After(last)
		})
	}

	target, err := ToDate(c.Value)
	if err != nil {
		return failing(err)
	}

	switch c.Operator {
	case OpEquals:
		return dateTest(func(t time.Time) bool { return day(t).Equal(day(target)) })
	case OpBefore:
		return dateTest(func(t time.Time) bool { return t.Before(target) })
	case OpAfter:
		return dateTest(func(t time.Time) bool { return t.After(target) })
	}

	return failing(fmt.Errorf("%w: %s for date", ErrOperatorNotAllowed, c.Operator))
}

// windowStart is the inclusive lower bound of a last_N window ending at now
func windowStart(op Operator, n int, now time.Time) time.Time {
	switch op {
	case OpLastWeeks:
		return now.AddDate(0, 0, -7*n)
	case OpLastMonths:
		return now.AddDate(0, -n, 0)
	default:
		return now.AddDate(0, 0, -n)
	}
}

// day truncates t to its UTC calendar day
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateTest(fn func(time.Time) bool) predicate {
	return func(v any) (bool, error) {
		t, err := ToDate(v)
		if err != nil {
			return false, err
		}
		return fn(t), nil
	}
}

func compileBoolean(c Condition) predicate {
	var want bool
	switch c.Operator {
	case OpIsTrue:
		want = true
	case OpIsFalse:
		want = false
	default:
		return failing(fmt.Errorf("%w: %s for boolean", ErrOperatorNotAllowed, c.Operator))
	}

	return func(v any) (bool, error) {
		b, err := ToBool(v)
		if err != nil {
			return false, err
		}
		return b == want, nil
	}
}
