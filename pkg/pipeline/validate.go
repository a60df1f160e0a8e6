package pipeline

import (
	"fmt"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

// Report is the outcome of validating a pipeline against a catalog
type Report struct {
	// Errors lists stages that will be skipped at run time
	Errors filter.ValidationErrors
	// Advisories flag valid but likely unintended orderings
	Advisories []filter.Warning
	// Lineage is the field graph built from the valid stages
	Lineage *Lineage
	// Layout is the field set after the last valid stage
	Layout Layout
}

// Validate checks every stage in order against the fields produced by the
// valid stages before it
func (r *Registry) Validate(p Pipeline, fields filter.Fields) Report {
	report := Report{Layout: Layout{Fields: fields}}

	lineage, err := NewLineage(fields)
	if err == nil {
		report.Lineage = lineage
	}

	// formatted maps a field to the index of the format stage that last
	// rewrote it and has not yet been read
	formatted := make(map[string]int)

	for i, t := range p {
		h, err := r.Handler(t.Type)
		if err == nil {
			err = h.Validate(t, report.Layout)
		}
		if err != nil {
			report.Errors = append(report.Errors, filter.ValidationError{
				Source:  filter.SourceTransformation,
				Index:   i,
				ID:      t.ID,
				Field:   t.Target(),
				Message: err.Error(),
				Err:     err,
			})
			continue
		}

		reads := r.reads(t)
		for _, field := range reads {
			at, ok := formatted[field]
			if !ok {
				continue
			}
			report.Advisories = append(report.Advisories, filter.Warning{
				Source:  filter.SourceTransformation,
				Index:   at,
				ID:      p[at].ID,
				Field:   field,
				Message: fmt.Sprintf("format runs before %s at stage %d, which sees the formatted text", t.Type, i),
			})
			delete(formatted, field)
		}

		switch t.Type {
		case KindFormat:
			formatted[t.Field] = i
		case KindAggregate:
			if !report.Layout.AfterGroup && report.Layout.GroupField != "" {
				report.Advisories = append(report.Advisories, filter.Warning{
					Source:  filter.SourceTransformation,
					Index:   i,
					ID:      t.ID,
					Field:   t.Field,
					Message: "aggregate does not directly follow the group stage and reduces the whole set",
				})
			}
		}

		if report.Lineage != nil {
			if err := r.trace(report.Lineage, t, reads); err != nil {
				report.Advisories = append(report.Advisories, filter.Warning{
					Source:  filter.SourceTransformation,
					Index:   i,
					ID:      t.ID,
					Field:   t.Target(),
					Message: "field lineage not recorded: " + err.Error(),
				})
			}
		}

		next := h.Layout(t, report.Layout)
		next.AfterGroup = t.Type == KindGroup
		report.Layout = next
	}

	return report
}

// reads returns the fields a valid stage reads
func (r *Registry) reads(t Transformation) []string {
	switch t.Type {
	case KindSort, KindGroup:
		return []string{t.Field}
	case KindAggregate:
		if t.Operation == AggCount || t.Field == "" {
			return nil
		}
		return []string{t.Field}
	case KindCalculate:
		expr, err := r.expressions.compile(t.Expression)
		if err != nil {
			return nil
		}
		return expr.inputs
	}
	return nil
}

// trace records the field a calculate or aggregate stage derives
func (r *Registry) trace(l *Lineage, t Transformation, reads []string) error {
	var output string
	switch t.Type {
	case KindCalculate:
		output = t.OutputField
	case KindAggregate:
		output = Column(t)
	default:
		return nil
	}

	if l.Has(output) {
		return nil
	}
	return l.Derive(output, reads)
}
