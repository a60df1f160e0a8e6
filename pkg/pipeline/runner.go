package pipeline

import (
	"time"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

// RunOptions configures a pipeline run
type RunOptions struct {
	// Fields is the dataset catalog the first stage sees
	Fields filter.Fields
	Now    time.Time
	// Skip holds indexes of stages that failed validation
	Skip     map[int]bool
	Warnings *filter.WarningSet
}

// Run applies p to rows left to right. Stages listed in opts.Skip or with an
// unregistered kind are not executed.
func (r *Registry) Run(p Pipeline, rows []filter.Record, opts RunOptions) Frame {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	warnings := opts.Warnings
	if warnings == nil {
		warnings = filter.NewWarningSet()
	}

	env := &Env{
		Now:      now,
		Layout:   Layout{Fields: opts.Fields},
		Warnings: warnings,
	}

	frame := NewFrame(rows)
	for i, t := range p {
		if opts.Skip[i] {
			continue
		}

		h, err := r.Handler(t.Type)
		if err != nil {
			continue
		}

		env.Index = i
		frame = h.Apply(env, t, frame)

		next := h.Layout(t, env.Layout)
		next.AfterGroup = t.Type == KindGroup
		env.Layout = next
	}

	return frame
}
