// Package editor holds the filter definition being edited. State values are
// immutable: every edit returns a new State and leaves the receiver untouched.
package editor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/crawlpulse/datafilters/pkg/filter"
	"github.com/crawlpulse/datafilters/pkg/pipeline"
)

// ErrTransformationNotFound is returned when no stage has the given id
var ErrTransformationNotFound = errors.New("transformation not found")

// Snapshot is the plain form of a State
type Snapshot struct {
	Conditions      filter.ConditionSet `json:"conditions" yaml:"conditions"`
	Transformations pipeline.Pipeline   `json:"transformations" yaml:"transformations"`
}

// State is a condition set and a pipeline
type State struct {
	conditions filter.ConditionSet
	pipeline   pipeline.Pipeline
}

// New creates a state holding copies of conditions and p
func New(conditions filter.ConditionSet, p pipeline.Pipeline) State {
	return State{
		conditions: conditions.Clone(),
		pipeline:   p.Clone(),
	}
}

// FromSnapshot creates a state from its plain form
func FromSnapshot(s Snapshot) State {
	return New(s.Conditions, s.Transformations)
}

// Conditions returns a copy of the condition set
func (s State) Conditions() filter.ConditionSet {
	return s.conditions.Clone()
}

// Pipeline returns a copy of the pipeline
func (s State) Pipeline() pipeline.Pipeline {
	return s.pipeline.Clone()
}

// Snapshot returns a copy of the state in plain form
func (s State) Snapshot() Snapshot {
	return Snapshot{
		Conditions:      s.Conditions(),
		Transformations: s.Pipeline(),
	}
}

// Empty reports whether the state has no conditions and no stages
func (s State) Empty() bool {
	return len(s.conditions) == 0 && len(s.pipeline) == 0
}

// Replace discards everything and holds copies of conditions and p
func (s State) Replace(conditions filter.ConditionSet, p pipeline.Pipeline) State {
	return New(conditions, p)
}

// Clear returns an empty state
func (s State) Clear() State {
	return State{}
}

// AddCondition appends a condition on field with the default operator of its
// type and no value. An empty field adds an idle condition. The generated id
// is returned with the new state.
func (s State) AddCondition(field filter.Field, reg *filter.Registry) (State, string) {
	c := filter.Condition{ID: uuid.NewString()}
	if field.Name != "" {
		c.Field = field.Name
		c.Type = field.Type
		c.Operator = reg.Default(field.Type)
	}

	next := s.Conditions()
	next = append(next, c)
	return State{conditions: next, pipeline: s.pipeline}, c.ID
}

// RemoveCondition drops the condition with id
func (s State) RemoveCondition(id string) (State, error) {
	i := s.conditions.Index(id)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", filter.ErrConditionNotFound, id)
	}

	next := make(filter.ConditionSet, 0, len(s.conditions)-1)
	next = append(next, s.conditions[:i]...)
	next = append(next, s.conditions[i+1:]...)
	return State{conditions: next.Clone(), pipeline: s.pipeline}, nil
}

// SelectField points the condition at field. Choosing a different field
// resets the operator to the first operator of the field's type and clears
// the value; choosing the current field changes nothing.
func (s State) SelectField(id string, field filter.Field, reg *filter.Registry) (State, error) {
	return s.updateCondition(id, func(c filter.Condition) (filter.Condition, error) {
		if c.Field == field.Name && c.Type == field.Type {
			return c, nil
		}
		c.Field = field.Name
		c.Type = field.Type
		c.Operator = reg.Default(field.Type)
		c.Value = nil
		return c, nil
	})
}

// SelectOperator changes the operator. A different operator clears the value.
func (s State) SelectOperator(id string, op filter.Operator, reg *filter.Registry) (State, error) {
	return s.updateCondition(id, func(c filter.Condition) (filter.Condition, error) {
		if c.Field == "" {
			return c, filter.ErrFieldRequired
		}
		if !reg.Allows(c.Type, op) {
			return c, fmt.Errorf("%w: %s for %s", filter.ErrOperatorNotAllowed, op, c.Type)
		}
		if c.Operator == op {
			return c, nil
		}
		c.Operator = op
		c.Value = nil
		return c, nil
	})
}

// SetValue stores the condition's value
func (s State) SetValue(id string, value any) (State, error) {
	return s.updateCondition(id, func(c filter.Condition) (filter.Condition, error) {
		if c.Field == "" {
			return c, filter.ErrFieldRequired
		}
		c.Value = value
		return c, nil
	})
}

func (s State) updateCondition(id string, fn func(filter.Condition) (filter.Condition, error)) (State, error) {
	i := s.conditions.Index(id)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", filter.ErrConditionNotFound, id)
	}

	next := s.Conditions()
	c, err := fn(next[i])
	if err != nil {
		return s, err
	}
	next[i] = c
	return State{conditions: next, pipeline: s.pipeline}, nil
}

// AddTransformation appends a stage, assigning an id when it has none
func (s State) AddTransformation(t pipeline.Transformation) (State, string) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	next := s.Pipeline()
	next = append(next, t)
	return State{conditions: s.conditions, pipeline: next}, t.ID
}

// UpdateTransformation replaces the stage with id, keeping its position and id
func (s State) UpdateTransformation(id string, t pipeline.Transformation) (State, error) {
	i := s.pipeline.Index(id)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrTransformationNotFound, id)
	}

	t.ID = id
	next := s.Pipeline()
	next[i] = t
	return State{conditions: s.conditions, pipeline: next}, nil
}

// RemoveTransformation drops the stage with id
func (s State) RemoveTransformation(id string) (State, error) {
	i := s.pipeline.Index(id)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrTransformationNotFound, id)
	}

	next := make(pipeline.Pipeline, 0, len(s.pipeline)-1)
	next = append(next, s.pipeline[:i]...)
	next = append(next, s.pipeline[i+1:]...)
	return State{conditions: s.conditions, pipeline: next}, nil
}
