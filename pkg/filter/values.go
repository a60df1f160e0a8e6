package filter

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/spf13/cast"
)

var (
	// ErrNotNumeric is returned when a value cannot be read as a number
	ErrNotNumeric = errors.New("value is not numeric")
	// ErrNotDate is returned when a value cannot be read as a date
	ErrNotDate = errors.New("value is not a date")
	// ErrNotBoolean is returned when a value cannot be read as a boolean
	ErrNotBoolean = errors.New("value is not a boolean")
)

// lookupPath resolves a dotted name such as "author.name" through nested maps
func lookupPath(r Record, name string) (any, bool) {
	x := jp.R()
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return nil, false
		}
		x = x.C(part)
	}

	results := x.Get(map[string]any(r))
	if len(results) == 0 {
		return nil, false
	}
	return results[0], true
}

// IsEmpty reports whether a condition value carries no input
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case map[string]any:
		return len(val) == 0
	}
	return false
}

// ToNumber coerces v to a float64
func ToNumber(v any) (float64, error) {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	n, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotNumeric, v)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNotNumeric, v)
	}
	return n, nil
}

// ToDate coerces v to a time.Time. Numbers are read as unix seconds.
func ToDate(v any) (time.Time, error) {
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}, fmt.Errorf("%w: empty", ErrNotDate)
		}
		v = s
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrNotDate, v)
	}
	return t, nil
}

// ToBool coerces v to a bool
func ToBool(v any) (bool, error) {
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrNotBoolean, v)
	}
	return b, nil
}

// ToText renders v as a string. Nil renders as the empty string.
func ToText(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// ToCount coerces v to a non-negative integer count
func ToCount(v any) (int, error) {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotNumeric, v)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative count %d", ErrNotNumeric, n)
	}
	return n, nil
}

// Range builds a {min,max} condition value
func Range(minValue, maxValue any) map[string]any {
	return map[string]any{"min": minValue, "max": maxValue}
}

// DateRange builds a {start,end} condition value
func DateRange(start, end any) map[string]any {
	return map[string]any{"start": start, "end": end}
}

// bounds extracts the two named bounds from a range-shaped value
func bounds(v any, lowKey, highKey string) (low, high any, ok bool) {
	m, isMap := v.(map[string]any)
	if !isMap {
		return nil, nil, false
	}
	low, high = m[lowKey], m[highKey]
	return low, high, !IsEmpty(low) && !IsEmpty(high)
}
