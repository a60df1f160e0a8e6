package pipeline

import (
	"fmt"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

type calculateHandler struct {
	expressions *Expressions
}

func (calculateHandler) Kind() Kind { return KindCalculate }

func (h calculateHandler) Validate(t Transformation, in Layout) error {
	if t.OutputField == "" {
		return ErrOutputFieldRequired
	}
	if _, exists := in.Type(t.OutputField); exists {
		return fmt.Errorf("%w: %s", ErrFieldExists, t.OutputField)
	}

	expr, err := h.expressions.compile(t.Expression)
	if err != nil {
		return err
	}

	for _, input := range expr.inputs {
		if _, ok := in.Type(input); !ok {
			return fmt.Errorf("%w: expression input %s", filter.ErrUnknownField, input)
		}
	}

	return nil
}

func (h calculateHandler) Layout(t Transformation, in Layout) Layout {
	out := filter.FieldTypeText
	if expr, err := h.expressions.compile(t.Expression); err == nil {
		out = expr.output
	}
	return in.with(filter.Field{Name: t.OutputField, Label: t.OutputField, Type: out})
}

// Apply appends the derived field to copies of every row. A row whose inputs
// cannot be evaluated gets a nil value and a warning.
func (h calculateHandler) Apply(env *Env, t Transformation, in Frame) Frame {
	expr, err := h.expressions.compile(t.Expression)
	if err != nil {
		env.warn(t, t.OutputField, err)
		return in
	}

	return in.mapRows(func(rows []filter.Record) []filter.Record {
		out := make([]filter.Record, len(rows))
		for i, row := range rows {
			derived := row.Clone()
			v, err := expr.eval(row, env.Now)
			if err != nil {
				env.warn(t, t.OutputField, err)
				v = nil
			}
			derived[t.OutputField] = v
			out[i] = derived
		}
		return out
	})
}
