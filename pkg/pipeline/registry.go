package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

// Handler implements one transformation kind
type Handler interface {
	// Kind returns the transformation kind handled
	Kind() Kind

	// Validate checks a stage against the fields available to it
	Validate(t Transformation, in Layout) error

	// Layout returns the fields available after the stage runs
	Layout(t Transformation, in Layout) Layout

	// Apply runs the stage. Row-level problems are recorded on env and never
	// abort the stage.
	Apply(env *Env, t Transformation, in Frame) Frame
}

// Env carries per-run state into a stage
type Env struct {
	Now      time.Time
	Layout   Layout
	Index    int
	Warnings *filter.WarningSet
}

func (e *Env) warn(t Transformation, field string, err error) {
	if e.Warnings == nil {
		return
	}
	e.Warnings.Add(filter.Warning{
		Source:  filter.SourceTransformation,
		Index:   e.Index,
		ID:      t.ID,
		Field:   field,
		Message: filter.WarningMessage(err),
	})
}

// Registry is the dispatch table from transformation kind to handler
type Registry struct {
	mu          sync.RWMutex
	handlers    map[Kind]Handler
	expressions *Expressions
	formatters  *Formatters
}

// NewRegistry creates a registry with handlers for every kind
func NewRegistry() *Registry {
	templates := newTemplateEngine()
	r := &Registry{
		handlers:    make(map[Kind]Handler),
		expressions: newExpressions(templates),
		formatters:  newFormatters(templates),
	}

	r.Register(sortHandler{})
	r.Register(groupHandler{})
	r.Register(aggregateHandler{})
	r.Register(calculateHandler{expressions: r.expressions})
	r.Register(formatHandler{formatters: r.formatters})

	return r
}

// Register adds or replaces the handler for its kind
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Kind()] = h
}

// Handler returns the handler for kind
func (r *Registry) Handler(kind Kind) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return h, nil
}

// Expressions returns the calculate expression registry
func (r *Registry) Expressions() *Expressions {
	return r.expressions
}

// Formatters returns the formatter registry
func (r *Registry) Formatters() *Formatters {
	return r.formatters
}
