package pipeline

import (
	"github.com/crawlpulse/datafilters/pkg/filter"
)

type formatHandler struct {
	formatters *Formatters
}

func (formatHandler) Kind() Kind { return KindFormat }

func (h formatHandler) Validate(t Transformation, in Layout) error {
	if err := requireField(t.Field, in); err != nil {
		return err
	}
	_, err := h.formatters.compile(t.Formatter)
	return err
}

// Layout marks the formatted field as text and remembers its declared type
func (formatHandler) Layout(t Transformation, in Layout) Layout {
	declared, _ := in.Declared(t.Field)

	f, ok := in.Fields.Lookup(t.Field)
	if !ok {
		f = filter.Field{Name: t.Field, Label: t.Field}
	}
	f.Type = filter.FieldTypeText

	out := in.with(f)
	if declared != "" {
		if out.Formatted == nil {
			out.Formatted = make(map[string]filter.FieldType, 1)
		}
		out.Formatted[t.Field] = declared
	}
	return out
}

// Apply rewrites the field on copies of every row. Missing values stay
// missing; values the formatter cannot read are kept and reported.
func (h formatHandler) Apply(env *Env, t Transformation, in Frame) Frame {
	format, err := h.formatters.compile(t.Formatter)
	if err != nil {
		env.warn(t, t.Field, err)
		return in
	}

	return in.mapRows(func(rows []filter.Record) []filter.Record {
		out := make([]filter.Record, len(rows))
		for i, row := range rows {
			v, ok := lookup(row, t.Field)
			if !ok {
				out[i] = row
				continue
			}

			formatted, err := format(v, row, env.Now)
			if err != nil {
				env.warn(t, t.Field, err)
				out[i] = row
				continue
			}

			rewritten := row.Clone()
			rewritten[t.Field] = formatted
			out[i] = rewritten
		}
		return out
	})
}
