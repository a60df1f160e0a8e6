package filter

import (
	"errors"
	"sort"
)

// Warning is a row-level problem seen during evaluation. Warnings never abort a
// run; identical problems are folded together and counted.
type Warning struct {
	Source  string `json:"source"`
	Index   int    `json:"index"`
	ID      string `json:"id,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Rows    int    `json:"rows"`
}

// WarningMessage returns the message a row-level error is reported under.
// Coercion failures drop the offending value so that every bad row of one
// stage folds into a single warning.
func WarningMessage(err error) string {
	for _, class := range []error{ErrNotNumeric, ErrNotDate, ErrNotBoolean} {
		if errors.Is(err, class) {
			return class.Error()
		}
	}
	return err.Error()
}

type warningKey struct {
	source  string
	index   int
	message string
}

// WarningSet accumulates warnings for a single evaluation run. It is not safe
// for concurrent use.
type WarningSet struct {
	order []warningKey
	byKey map[warningKey]*Warning
}

// NewWarningSet creates an empty warning set
func NewWarningSet() *WarningSet {
	return &WarningSet{
		byKey: make(map[warningKey]*Warning),
	}
}

// Add records one occurrence of a warning
func (s *WarningSet) Add(w Warning) {
	key := warningKey{source: w.Source, index: w.Index, message: w.Message}
	if existing, ok := s.byKey[key]; ok {
		existing.Rows++
		return
	}

	w.Rows = 1
	s.byKey[key] = &w
	s.order = append(s.order, key)
}

// Len returns the number of distinct warnings
func (s *WarningSet) Len() int {
	return len(s.order)
}

// List returns the warnings ordered by source then index, first-seen order within
func (s *WarningSet) List() []Warning {
	out := make([]Warning, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, *s.byKey[key])
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source == SourceCondition
		}
		return out[i].Index < out[j].Index
	})

	return out
}
