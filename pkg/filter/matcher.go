package filter

import "time"

type compiledCondition struct {
	index int
	cond  Condition
	test  predicate
}

// Matcher is a condition set compiled for one evaluation run. Row-level
// problems are folded into warnings instead of being returned.
type Matcher struct {
	conds    []compiledCondition
	warnings *WarningSet
}

// NewMatcher compiles s against a fixed clock. Conditions whose index is in
// skip are left out of the run.
func NewMatcher(s ConditionSet, now time.Time, skip map[int]bool) *Matcher {
	m := &Matcher{
		conds:    make([]compiledCondition, 0, len(s)),
		warnings: NewWarningSet(),
	}

	for i, c := range s {
		if skip[i] {
			continue
		}
		m.conds = append(m.conds, compiledCondition{
			index: i,
			cond:  c,
			test:  compile(c, now),
		})
	}

	return m
}

// Match reports whether r passes every compiled condition. Evaluation stops
// at the first failing condition.
func (m *Matcher) Match(r Record) bool {
	for _, cc := range m.conds {
		ok, err := test(cc.test, cc.cond, r)
		if err != nil {
			m.warnings.Add(Warning{
				Source:  SourceCondition,
				Index:   cc.index,
				ID:      cc.cond.ID,
				Field:   cc.cond.Field,
				Message: WarningMessage(err),
			})
		}
		if !ok {
			return false
		}
	}
	return true
}

// Filter returns the records that pass, in input order
func (m *Matcher) Filter(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if m.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Warnings returns the row-level problems seen so far
func (m *Matcher) Warnings() *WarningSet {
	return m.warnings
}
