package filter

import (
	"slices"
	"sync"
)

// Operator is a named comparison that is legal for one or more field types
type Operator string

// Text operators
const (
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpRegex       Operator = "regex"
)

// Number operators
const (
	OpGreaterThan  Operator = "greater_than"
	OpLessThan     Operator = "less_than"
	OpGreaterEqual Operator = "greater_equal"
	OpLessEqual    Operator = "less_equal"
	OpBetween      Operator = "between"
)

// Date operators
const (
	OpBefore     Operator = "before"
	OpAfter      Operator = "after"
	OpLastDays   Operator = "last_days"
	OpLastWeeks  Operator = "last_weeks"
	OpLastMonths Operator = "last_months"
)

// Boolean operators
const (
	OpIsTrue  Operator = "is_true"
	OpIsFalse Operator = "is_false"
)

// ValueShape describes what a condition value must look like for an operator
type ValueShape string

const (
	// ShapeNone means the operator ignores the value
	ShapeNone ValueShape = "none"
	// ShapeScalar is a single text, number or date value
	ShapeScalar ValueShape = "scalar"
	// ShapeRange is a {min,max} pair of numbers
	ShapeRange ValueShape = "range"
	// ShapeDateRange is a {start,end} pair of dates
	ShapeDateRange ValueShape = "date_range"
	// ShapeCount is a non-negative integer for the last_N operators
	ShapeCount ValueShape = "count"
)

// Registry maps each field type to its ordered list of legal operators
type Registry struct {
	mu        sync.RWMutex
	operators map[FieldType][]Operator
}

// NewRegistry creates a registry with the default operator sets
func NewRegistry() *Registry {
	r := &Registry{
		operators: make(map[FieldType][]Operator),
	}

	r.Register(FieldTypeText, OpContains, OpNotContains, OpEquals, OpNotEquals, OpStartsWith, OpEndsWith, OpRegex)
	r.Register(FieldTypeNumber, OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpGreaterEqual, OpLessEqual, OpBetween)
	r.Register(FieldTypeDate, OpEquals, OpBefore, OpAfter, OpBetween, OpLastDays, OpLastWeeks, OpLastMonths)
	r.Register(FieldTypeBoolean, OpIsTrue, OpIsFalse)

	return r
}

//nolint:gochecknoglobals // Shared read-mostly registry, same pattern as the handler registries
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide operator registry
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register replaces the operator list for a field type
func (r *Registry) Register(t FieldType, ops ...Operator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operators[t] = slices.Clone(ops)
}

// Operators returns the operators legal for t. A type the registry does not know
// resolves to the text operator set.
func (r *Registry) Operators(t FieldType) []Operator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops, ok := r.operators[t]
	if !ok {
		ops = r.operators[FieldTypeText]
	}
	return slices.Clone(ops)
}

// Default returns the first operator for t, used when a field is (re)selected
func (r *Registry) Default(t FieldType) Operator {
	ops := r.Operators(t)
	if len(ops) == 0 {
		return ""
	}
	return ops[0]
}

// Allows reports whether op is legal for t
func (r *Registry) Allows(t FieldType, op Operator) bool {
	return slices.Contains(r.Operators(t), op)
}

// All returns a copy of the full type to operators table
func (r *Registry) All() map[FieldType][]Operator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[FieldType][]Operator, len(r.operators))
	for t, ops := range r.operators {
		out[t] = slices.Clone(ops)
	}
	return out
}

// Shape returns the value shape op expects for a field of type t
func Shape(t FieldType, op Operator) ValueShape {
	switch op {
	case OpIsTrue, OpIsFalse:
		return ShapeNone
	case OpLastDays, OpLastWeeks, OpLastMonths:
		return ShapeCount
	case OpBetween:
		if t == FieldTypeDate {
			return ShapeDateRange
		}
		return ShapeRange
	}
	return ShapeScalar
}
