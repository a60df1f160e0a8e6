// Package pipeline implements the ordered data-shaping stages applied to the
// rows that pass a condition set: sort, group, aggregate, calculate and format.
package pipeline

import (
	"github.com/crawlpulse/datafilters/pkg/filter"
)

// Kind identifies a transformation variant
type Kind string

// Transformation kinds
const (
	KindSort      Kind = "sort"
	KindGroup     Kind = "group"
	KindAggregate Kind = "aggregate"
	KindCalculate Kind = "calculate"
	KindFormat    Kind = "format"
)

// Kinds returns every transformation kind
func Kinds() []Kind {
	return []Kind{KindSort, KindGroup, KindAggregate, KindCalculate, KindFormat}
}

// Direction is a sort direction
type Direction string

// Sort directions
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// AggregateOp is an aggregate function
type AggregateOp string

// Aggregate functions
const (
	AggSum   AggregateOp = "sum"
	AggAvg   AggregateOp = "avg"
	AggCount AggregateOp = "count"
	AggMin   AggregateOp = "min"
	AggMax   AggregateOp = "max"
)

// AggregateOps returns the supported aggregate functions
func AggregateOps() []AggregateOp {
	return []AggregateOp{AggSum, AggAvg, AggCount, AggMin, AggMax}
}

// Transformation is one pipeline stage. Type selects the variant and only the
// attributes of that variant are meaningful:
//
//	sort:      field, direction
//	group:     field
//	aggregate: field, operation
//	calculate: outputField, expression
//	format:    field, formatter
type Transformation struct {
	ID          string      `json:"id,omitempty" yaml:"id,omitempty"`
	Type        Kind        `json:"type" yaml:"type"`
	Field       string      `json:"field,omitempty" yaml:"field,omitempty"`
	Direction   Direction   `json:"direction,omitempty" yaml:"direction,omitempty"`
	Operation   AggregateOp `json:"operation,omitempty" yaml:"operation,omitempty"`
	OutputField string      `json:"outputField,omitempty" yaml:"outputField,omitempty"`
	Expression  string      `json:"expression,omitempty" yaml:"expression,omitempty"`
	Formatter   string      `json:"formatter,omitempty" yaml:"formatter,omitempty"`
}

// NewSort creates a sort stage
func NewSort(field string, dir Direction) Transformation {
	return Transformation{Type: KindSort, Field: field, Direction: dir}
}

// NewGroup creates a group stage
func NewGroup(field string) Transformation {
	return Transformation{Type: KindGroup, Field: field}
}

// NewAggregate creates an aggregate stage. field is ignored for count.
func NewAggregate(field string, op AggregateOp) Transformation {
	return Transformation{Type: KindAggregate, Field: field, Operation: op}
}

// NewCalculate creates a calculate stage
func NewCalculate(outputField, expression string) Transformation {
	return Transformation{Type: KindCalculate, OutputField: outputField, Expression: expression}
}

// NewFormat creates a format stage
func NewFormat(field, formatter string) Transformation {
	return Transformation{Type: KindFormat, Field: field, Formatter: formatter}
}

// Target returns the field a stage writes or orders by
func (t Transformation) Target() string {
	if t.Type == KindCalculate {
		return t.OutputField
	}
	return t.Field
}

// Pipeline is an ordered list of transformations. Order is significant and is
// never changed by the engine.
type Pipeline []Transformation

// Clone returns a copy of the pipeline
func (p Pipeline) Clone() Pipeline {
	if p == nil {
		return nil
	}
	out := make(Pipeline, len(p))
	copy(out, p)
	return out
}

// Index returns the position of the stage with id, or -1
func (p Pipeline) Index(id string) int {
	for i, t := range p {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Bucket is one group produced by a group stage
type Bucket struct {
	Key  any             `json:"key"`
	Rows []filter.Record `json:"rows"`
}

// Frame is the data flowing between stages: either a flat row list or a
// list of buckets keyed by GroupField
type Frame struct {
	Rows       []filter.Record `json:"rows,omitempty"`
	Buckets    []Bucket        `json:"groups,omitempty"`
	GroupField string          `json:"groupField,omitempty"`
}

// NewFrame wraps rows in an ungrouped frame
func NewFrame(rows []filter.Record) Frame {
	return Frame{Rows: rows}
}

// Grouped reports whether the frame holds buckets
func (f Frame) Grouped() bool {
	return f.Buckets != nil
}

// Flatten returns every row in order, concatenating buckets
func (f Frame) Flatten() []filter.Record {
	if !f.Grouped() {
		return f.Rows
	}

	n := 0
	for _, b := range f.Buckets {
		n += len(b.Rows)
	}

	out := make([]filter.Record, 0, n)
	for _, b := range f.Buckets {
		out = append(out, b.Rows...)
	}
	return out
}

// Len returns the number of rows in the frame
func (f Frame) Len() int {
	if !f.Grouped() {
		return len(f.Rows)
	}
	n := 0
	for _, b := range f.Buckets {
		n += len(b.Rows)
	}
	return n
}

// mapRows applies fn to each row list, preserving the bucket layout
func (f Frame) mapRows(fn func([]filter.Record) []filter.Record) Frame {
	if !f.Grouped() {
		return Frame{Rows: fn(f.Rows)}
	}

	buckets := make([]Bucket, len(f.Buckets))
	for i, b := range f.Buckets {
		buckets[i] = Bucket{Key: b.Key, Rows: fn(b.Rows)}
	}
	return Frame{Buckets: buckets, GroupField: f.GroupField}
}

// Layout describes the fields available to a stage
type Layout struct {
	Fields filter.Fields
	// GroupField is set once a group stage has run
	GroupField string
	// AfterGroup is true when the previous stage was a group
	AfterGroup bool
	// Formatted maps fields rewritten by a format stage to their type before
	// formatting
	Formatted map[string]filter.FieldType
}

// Type returns the declared type of field, and whether it is known
func (l Layout) Type(field string) (filter.FieldType, bool) {
	f, ok := l.Fields.Lookup(field)
	if !ok {
		return "", false
	}
	return f.Type, true
}

// Declared returns the type of field before any format stage rewrote it
func (l Layout) Declared(field string) (filter.FieldType, bool) {
	if ft, ok := l.Formatted[field]; ok {
		return ft, true
	}
	return l.Type(field)
}

func (l Layout) with(f filter.Field) Layout {
	fields := make(filter.Fields, 0, len(l.Fields)+1)
	replaced := false
	for _, existing := range l.Fields {
		if existing.Name == f.Name {
			fields = append(fields, f)
			replaced = true
			continue
		}
		fields = append(fields, existing)
	}
	if !replaced {
		fields = append(fields, f)
	}

	var formatted map[string]filter.FieldType
	for name, ft := range l.Formatted {
		if name == f.Name {
			continue
		}
		if formatted == nil {
			formatted = make(map[string]filter.FieldType, len(l.Formatted))
		}
		formatted[name] = ft
	}

	return Layout{Fields: fields, GroupField: l.GroupField, AfterGroup: l.AfterGroup, Formatted: formatted}
}
