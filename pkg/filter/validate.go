package filter

import "fmt"

// Validate checks every condition against the dataset's fields and the
// registry before evaluation. Regex syntax is not checked here: a bad pattern
// fails closed during evaluation and is reported as a warning.
func Validate(s ConditionSet, fields Fields, reg *Registry) ValidationErrors {
	var errs ValidationErrors
	for i, c := range s {
		if err := ValidateCondition(c, fields, reg); err != nil {
			errs = append(errs, NewValidationError(i, c, err))
		}
	}
	return errs
}

// ValidateCondition checks a single condition
func ValidateCondition(c Condition, fields Fields, reg *Registry) error {
	if c.Field == "" {
		return ErrFieldRequired
	}

	field, ok := fields.Lookup(c.Field)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, c.Field)
	}

	if c.Type != field.Type {
		return fmt.Errorf("%w: condition has %q, field is %q", ErrTypeMismatch, c.Type, field.Type)
	}

	if !reg.Allows(c.Type, c.Operator) {
		return fmt.Errorf("%w: %q for %s", ErrOperatorNotAllowed, c.Operator, c.Type)
	}

	return validateValue(c)
}

func validateValue(c Condition) error {
	switch Shape(c.Type, c.Operator) {
	case ShapeNone:
		return nil

	case ShapeCount:
		if IsEmpty(c.Value) {
			return ErrValueRequired
		}
		_, err := ToCount(c.Value)
		return err

	case ShapeRange:
		low, high, ok := bounds(c.Value, "min", "max")
		if !ok {
			return fmt.Errorf("%w: min and max", ErrBoundRequired)
		}
		lo, err := ToNumber(low)
		if err != nil {
			return err
		}
		hi, err := ToNumber(high)
		if err != nil {
			return err
		}
		if lo > hi {
			return ErrInvertedRange
		}
		return nil

	case ShapeDateRange:
		low, high, ok := bounds(c.Value, "start", "end")
		if !ok {
			return fmt.Errorf("%w: start and end", ErrBoundRequired)
		}
		start, err := ToDate(low)
		if err != nil {
			return err
		}
		end, err := ToDate(high)
		if err != nil {
			return err
		}
		if start.After(end) {
			return ErrInvertedRange
		}
		return nil
	}

	if IsEmpty(c.Value) {
		return ErrValueRequired
	}

	switch c.Type {
	case FieldTypeNumber:
		_, err := ToNumber(c.Value)
		return err
	case FieldTypeDate:
		_, err := ToDate(c.Value)
		return err
	}

	return nil
}
