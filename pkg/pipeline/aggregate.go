package pipeline

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

type aggregateHandler struct{}

func (aggregateHandler) Kind() Kind { return KindAggregate }

func (aggregateHandler) Validate(t Transformation, in Layout) error {
	switch t.Operation {
	case AggCount:
		if t.Field == "" {
			return nil
		}
		return requireField(t.Field, in)
	case AggSum, AggAvg:
		if err := requireField(t.Field, in); err != nil {
			return err
		}
		if ft, _ := in.Declared(t.Field); ft != filter.FieldTypeNumber {
			return fmt.Errorf("%w: %s is %s", ErrNotNumericField, t.Field, ft)
		}
		return nil
	case AggMin, AggMax:
		if err := requireField(t.Field, in); err != nil {
			return err
		}
		if ft, _ := in.Declared(t.Field); ft == filter.FieldTypeBoolean {
			return fmt.Errorf("%w: %s is %s", ErrNotComparableField, t.Field, ft)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidAggregate, t.Operation)
}

// Layout replaces the fields with the aggregate column, keyed by the group
// field when the aggregate directly follows a group
func (aggregateHandler) Layout(t Transformation, in Layout) Layout {
	col := filter.Field{Name: Column(t), Label: Column(t), Type: filter.FieldTypeNumber}
	if t.Operation == AggMin || t.Operation == AggMax {
		if ft, ok := in.Type(t.Field); ok {
			col.Type = ft
		}
	}

	if in.AfterGroup && in.GroupField != "" {
		key, ok := in.Fields.Lookup(in.GroupField)
		if !ok {
			key = filter.Field{Name: in.GroupField, Label: in.GroupField, Type: filter.FieldTypeText}
		}
		return Layout{Fields: filter.Fields{key, col}}
	}

	return Layout{Fields: filter.Fields{col}}
}

// Apply reduces each bucket to one row when the previous stage was a group,
// otherwise the whole set to a single row
func (aggregateHandler) Apply(env *Env, t Transformation, in Frame) Frame {
	fieldType, _ := env.Layout.Type(t.Field)
	col := Column(t)

	if in.Grouped() && env.Layout.AfterGroup {
		rows := make([]filter.Record, 0, len(in.Buckets))
		for _, b := range in.Buckets {
			rows = append(rows, filter.Record{
				in.GroupField: b.Key,
				col:           aggregate(env, t, fieldType, b.Rows),
			})
		}
		return NewFrame(rows)
	}

	return NewFrame([]filter.Record{{col: aggregate(env, t, fieldType, in.Flatten())}})
}

// Column returns the output column name of an aggregate stage
func Column(t Transformation) string {
	if t.Operation == AggCount {
		return string(AggCount)
	}
	return string(t.Operation) + "_" + t.Field
}

func aggregate(env *Env, t Transformation, fieldType filter.FieldType, rows []filter.Record) any {
	switch t.Operation {
	case AggCount:
		return len(rows)
	case AggSum, AggAvg:
		sum := decimal.Zero
		n := int64(0)
		for _, row := range rows {
			v, ok := lookup(row, t.Field)
			if !ok {
				continue
			}
			f, err := filter.ToNumber(v)
			if err != nil {
				env.warn(t, t.Field, err)
				continue
			}
			sum = sum.Add(decimal.NewFromFloat(f))
			n++
		}

		if t.Operation == AggSum {
			out, _ := sum.Float64()
			return out
		}
		if n == 0 {
			return nil
		}
		out, _ := sum.Div(decimal.NewFromInt(n)).Float64()
		return out
	case AggMin, AggMax:
		var best any
		for _, row := range rows {
			v, ok := lookup(row, t.Field)
			if !ok {
				continue
			}
			if best == nil {
				best = v
				continue
			}
			c := compareValues(v, best, fieldType)
			if (t.Operation == AggMin && c < 0) || (t.Operation == AggMax && c > 0) {
				best = v
			}
		}
		return best
	}
	return nil
}
