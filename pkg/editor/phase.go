package editor

import (
	"fmt"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

// Phase is where a condition stands in the editing flow:
//
//	idle -> field_selected -> operator_selected -> value_entered -> valid | invalid
//
// Changing the field returns to operator_selected with the new type's default
// operator and no value.
type Phase string

// Condition phases
const (
	PhaseIdle             Phase = "idle"
	PhaseFieldSelected    Phase = "field_selected"
	PhaseOperatorSelected Phase = "operator_selected"
	PhaseValueEntered     Phase = "value_entered"
	PhaseValid            Phase = "valid"
	PhaseInvalid          Phase = "invalid"
)

// PhaseOf derives the phase of c from its content. An entered value is
// validated at once, so value_entered resolves to valid or invalid here; an
// operator that takes no value skips straight to validation.
func PhaseOf(c filter.Condition, fields filter.Fields, reg *filter.Registry) Phase {
	switch {
	case c.Field == "":
		return PhaseIdle
	case c.Operator == "":
		return PhaseFieldSelected
	case filter.Shape(c.Type, c.Operator) != filter.ShapeNone && filter.IsEmpty(c.Value):
		return PhaseOperatorSelected
	}

	if filter.ValidateCondition(c, fields, reg) != nil {
		return PhaseInvalid
	}
	return PhaseValid
}

// Phase returns the phase of the condition with id
func (s State) Phase(id string, fields filter.Fields, reg *filter.Registry) (Phase, error) {
	i := s.conditions.Index(id)
	if i < 0 {
		return "", fmt.Errorf("%w: %s", filter.ErrConditionNotFound, id)
	}
	return PhaseOf(s.conditions[i], fields, reg), nil
}
