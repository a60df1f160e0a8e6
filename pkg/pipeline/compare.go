package pipeline

import (
	"strings"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

// compareValues orders two present values by the declared type. Values that
// cannot be read as the declared type fall back to case-insensitive text
// ordering. An undeclared type compares numerically when both sides are
// numbers.
func compareValues(a, b any, t filter.FieldType) int {
	switch t {
	case filter.FieldTypeNumber:
		if c, ok := compareNumbers(a, b); ok {
			return c
		}
	case filter.FieldTypeDate:
		x, errA := filter.ToDate(a)
		y, errB := filter.ToDate(b)
		if errA == nil && errB == nil {
			return x.Compare(y)
		}
	case filter.FieldTypeBoolean:
		x, errA := filter.ToBool(a)
		y, errB := filter.ToBool(b)
		if errA == nil && errB == nil {
			return compareBools(x, y)
		}
	case filter.FieldTypeText:
	default:
		if c, ok := compareNumbers(a, b); ok {
			return c
		}
	}

	return strings.Compare(strings.ToLower(filter.ToText(a)), strings.ToLower(filter.ToText(b)))
}

func compareNumbers(a, b any) (int, bool) {
	x, errA := filter.ToNumber(a)
	y, errB := filter.ToNumber(b)
	if errA != nil || errB != nil {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}

func compareBools(x, y bool) int {
	switch {
	case x == y:
		return 0
	case !x:
		return -1
	}
	return 1
}

// lookup returns a field value, treating nil as absent
func lookup(r filter.Record, field string) (any, bool) {
	v, ok := r.Lookup(field)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
