package filter

import (
	"errors"
	"fmt"
	"strings"
)

// Condition and catalog errors
var (
	ErrUnknownField       = errors.New("field is not in the dataset catalog")
	ErrTypeMismatch       = errors.New("condition type does not match the field type")
	ErrOperatorNotAllowed = errors.New("operator is not allowed for the field type")
	ErrValueRequired      = errors.New("a value is required")
	ErrBoundRequired      = errors.New("both bounds are required")
	ErrInvertedRange      = errors.New("lower bound is greater than upper bound")
	ErrConditionNotFound  = errors.New("condition not found")
	ErrFieldRequired      = errors.New("a field is required")
)

// Sources of validation errors and warnings
const (
	SourceCondition      = "condition"
	SourceTransformation = "transformation"
)

// ValidationError is a field-level problem detected before evaluation
type ValidationError struct {
	Source  string `json:"source"`
	Index   int    `json:"index"`
	ID      string `json:"id,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// NewValidationError wraps err as a field-level message for the condition at index i
func NewValidationError(i int, c Condition, err error) ValidationError {
	return ValidationError{
		Source:  SourceCondition,
		Index:   i,
		ID:      c.ID,
		Field:   c.Field,
		Message: err.Error(),
		Err:     err,
	}
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s %d: %s", e.Source, e.Index, e.Message)
	}
	return fmt.Sprintf("%s %d (%s): %s", e.Source, e.Index, e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects every problem found in one validation pass
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes each error to errors.Is and errors.As
func (v ValidationErrors) Unwrap() []error {
	out := make([]error, len(v))
	for i, e := range v {
		out[i] = e
	}
	return out
}

// Err returns nil when there are no validation errors
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Invalid returns the indexes from source that failed validation
func (v ValidationErrors) Invalid(source string) map[int]bool {
	idx := make(map[int]bool, len(v))
	for _, e := range v {
		if e.Source == source {
			idx[e.Index] = true
		}
	}
	return idx
}
