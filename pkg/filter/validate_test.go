package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postFields = Fields{
	{Name: "title", Label: "Title", Type: FieldTypeText},
	{Name: "score", Label: "Score", Type: FieldTypeNumber},
	{Name: "created_at", Label: "Created", Type: FieldTypeDate},
	{Name: "is_nsfw", Label: "NSFW", Type: FieldTypeBoolean},
}

func TestRegistry_Operators(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, []Operator{OpContains, OpNotContains, OpEquals, OpNotEquals, OpStartsWith, OpEndsWith, OpRegex},
		reg.Operators(FieldTypeText))
	assert.Equal(t, []Operator{OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpGreaterEqual, OpLessEqual, OpBetween},
		reg.Operators(FieldTypeNumber))
	assert.Equal(t, []Operator{OpEquals, OpBefore, OpAfter, OpBetween, OpLastDays, OpLastWeeks, OpLastMonths},
		reg.Operators(FieldTypeDate))
	assert.Equal(t, []Operator{OpIsTrue, OpIsFalse}, reg.Operators(FieldTypeBoolean))

	assert.Equal(t, OpContains, reg.Default(FieldTypeText))
	assert.Equal(t, OpEquals, reg.Default(FieldTypeNumber))
	assert.Equal(t, OpIsTrue, reg.Default(FieldTypeBoolean))
}

func TestRegistry_UnknownTypeFallsBackToText(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, reg.Operators(FieldTypeText), reg.Operators(FieldType("currency")))
	assert.True(t, reg.Allows(FieldType("currency"), OpRegex))
	assert.False(t, reg.Allows(FieldTypeBoolean, OpContains))
}

func TestRegistry_OperatorsReturnsCopy(t *testing.T) {
	reg := NewRegistry()
	ops := reg.Operators(FieldTypeBoolean)
	ops[0] = OpRegex

	assert.Equal(t, OpIsTrue, reg.Default(FieldTypeBoolean))
}

func TestShape(t *testing.T) {
	assert.Equal(t, ShapeRange, Shape(FieldTypeNumber, OpBetween))
	assert.Equal(t, ShapeDateRange, Shape(FieldTypeDate, OpBetween))
	assert.Equal(t, ShapeCount, Shape(FieldTypeDate, OpLastMonths))
	assert.Equal(t, ShapeNone, Shape(FieldTypeBoolean, OpIsFalse))
	assert.Equal(t, ShapeScalar, Shape(FieldTypeText, OpContains))
}

func TestValidateCondition(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		cond    Condition
		wantErr error
	}{
		{
			name: "valid text",
			cond: Condition{Field: "title", Type: FieldTypeText, Operator: OpContains, Value: "ai"},
		},
		{
			name:    "missing field",
			cond:    Condition{Type: FieldTypeText, Operator: OpContains, Value: "ai"},
			wantErr: ErrFieldRequired,
		},
		{
			name:    "unknown field",
			cond:    Condition{Field: "karma", Type: FieldTypeNumber, Operator: OpEquals, Value: 1},
			wantErr: ErrUnknownField,
		},
		{
			name:    "type does not track field",
			cond:    Condition{Field: "score", Type: FieldTypeText, Operator: OpContains, Value: "1"},
			wantErr: ErrTypeMismatch,
		},
		{
			name:    "operator not allowed",
			cond:    Condition{Field: "score", Type: FieldTypeNumber, Operator: OpContains, Value: 1},
			wantErr: ErrOperatorNotAllowed,
		},
		{
			name:    "between missing a bound",
			cond:    Condition{Field: "score", Type: FieldTypeNumber, Operator: OpBetween, Value: map[string]any{"min": 10}},
			wantErr: ErrBoundRequired,
		},
		{
			name:    "between inverted",
			cond:    Condition{Field: "score", Type: FieldTypeNumber, Operator: OpBetween, Value: Range(20, 10)},
			wantErr: ErrInvertedRange,
		},
		{
			name:    "date range missing end",
			cond:    Condition{Field: "created_at", Type: FieldTypeDate, Operator: OpBetween, Value: DateRange("2026-01-01", "")},
			wantErr: ErrBoundRequired,
		},
		{
			name:    "empty scalar",
			cond:    Condition{Field: "title", Type: FieldTypeText, Operator: OpEquals, Value: "  "},
			wantErr: ErrValueRequired,
		},
		{
			name:    "number value not numeric",
			cond:    Condition{Field: "score", Type: FieldTypeNumber, Operator: OpGreaterThan, Value: "many"},
			wantErr: ErrNotNumeric,
		},
		{
			name:    "last_days needs a count",
			cond:    Condition{Field: "created_at", Type: FieldTypeDate, Operator: OpLastDays},
			wantErr: ErrValueRequired,
		},
		{
			name: "boolean ignores value",
			cond: Condition{Field: "is_nsfw", Type: FieldTypeBoolean, Operator: OpIsTrue},
		},
		{
			name: "invalid regex is not a validation error",
			cond: Condition{Field: "title", Type: FieldTypeText, Operator: OpRegex, Value: "(["},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCondition(tt.cond, postFields, reg)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryCondition(t *testing.T) {
	set := ConditionSet{
		{ID: "a", Field: "title", Type: FieldTypeText, Operator: OpContains, Value: "ai"},
		{ID: "b", Field: "score", Type: FieldTypeNumber, Operator: OpBetween, Value: map[string]any{"max": 10}},
		{ID: "c", Field: "nope", Type: FieldTypeText, Operator: OpContains, Value: "x"},
	}

	errs := Validate(set, postFields, NewRegistry())
	require.Len(t, errs, 2)

	assert.Equal(t, "b", errs[0].ID)
	assert.Equal(t, 1, errs[0].Index)
	assert.Equal(t, "score", errs[0].Field)
	assert.ErrorIs(t, errs[0], ErrBoundRequired)
	assert.Equal(t, "c", errs[1].ID)

	assert.Equal(t, map[int]bool{1: true, 2: true}, errs.Invalid(SourceCondition))
	assert.Error(t, errs.Err())
	assert.NoError(t, ValidationErrors(nil).Err())
}
