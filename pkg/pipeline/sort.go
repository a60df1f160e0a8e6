package pipeline

import (
	"fmt"
	"sort"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

type sortHandler struct{}

func (sortHandler) Kind() Kind { return KindSort }

func (sortHandler) Validate(t Transformation, in Layout) error {
	if err := requireField(t.Field, in); err != nil {
		return err
	}

	switch t.Direction {
	case "", Ascending, Descending:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidDirection, t.Direction)
}

func (sortHandler) Layout(_ Transformation, in Layout) Layout { return in }

// Apply stable-sorts rows by the field. Missing values sort last in either
// direction. A grouped frame is sorted within each bucket.
func (sortHandler) Apply(env *Env, t Transformation, in Frame) Frame {
	fieldType, _ := env.Layout.Type(t.Field)
	desc := t.Direction == Descending

	return in.mapRows(func(rows []filter.Record) []filter.Record {
		out := make([]filter.Record, len(rows))
		copy(out, rows)

		sort.SliceStable(out, func(i, j int) bool {
			a, okA := lookup(out[i], t.Field)
			b, okB := lookup(out[j], t.Field)
			switch {
			case !okA:
				return false
			case !okB:
				return true
			}

			c := compareValues(a, b, fieldType)
			if desc {
				return c > 0
			}
			return c < 0
		})

		return out
	})
}

func requireField(field string, in Layout) error {
	if field == "" {
		return filter.ErrFieldRequired
	}
	if _, ok := in.Type(field); !ok {
		return fmt.Errorf("%w: %s", filter.ErrUnknownField, field)
	}
	return nil
}
