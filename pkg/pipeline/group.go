package pipeline

import (
	"github.com/crawlpulse/datafilters/pkg/filter"
)

// missingKey buckets rows that lack the group field
const missingKey = "\x00missing"

type groupHandler struct{}

func (groupHandler) Kind() Kind { return KindGroup }

func (groupHandler) Validate(t Transformation, in Layout) error {
	return requireField(t.Field, in)
}

func (groupHandler) Layout(t Transformation, in Layout) Layout {
	return Layout{Fields: in.Fields, GroupField: t.Field, Formatted: in.Formatted}
}

// Apply buckets rows by field value in order of first appearance. Keys are
// compared by their text form so 3 and "3" share a bucket; each bucket keeps
// the first raw value seen as its key. A grouped input is flattened and
// re-partitioned.
func (groupHandler) Apply(_ *Env, t Transformation, in Frame) Frame {
	buckets := make([]Bucket, 0)
	index := make(map[string]int)

	for _, row := range in.Flatten() {
		v, ok := lookup(row, t.Field)
		id := missingKey
		if ok {
			id = filter.ToText(v)
		}

		i, seen := index[id]
		if !seen {
			i = len(buckets)
			index[id] = i
			buckets = append(buckets, Bucket{Key: v})
		}
		buckets[i].Rows = append(buckets[i].Rows, row)
	}

	return Frame{Buckets: buckets, GroupField: t.Field}
}
