package pipeline

import "errors"

// Transformation errors
var (
	ErrUnknownKind         = errors.New("unknown transformation type")
	ErrInvalidDirection    = errors.New("sort direction must be asc or desc")
	ErrInvalidAggregate    = errors.New("unknown aggregate operation")
	ErrNotNumericField     = errors.New("aggregate requires a number field")
	ErrNotComparableField  = errors.New("aggregate requires a number, date or text field")
	ErrOutputFieldRequired = errors.New("an output field is required")
	ErrFieldExists         = errors.New("output field already exists")
	ErrExpressionRequired  = errors.New("an expression is required")
	ErrUnknownExpression   = errors.New("unknown expression")
	ErrExpressionArity     = errors.New("wrong number of expression inputs")
	ErrInvalidTemplate     = errors.New("invalid template")
	ErrFormatterRequired   = errors.New("a formatter is required")
	ErrUnknownFormatter    = errors.New("unknown formatter")
	ErrInvalidFormatterArg = errors.New("invalid formatter argument")
	ErrMissingInput        = errors.New("input field is missing")
	ErrDivisionByZero      = errors.New("division by zero")
)
