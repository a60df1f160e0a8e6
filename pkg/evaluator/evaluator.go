// Package evaluator runs a condition set and pipeline over a dataset and
// produces a capped result with counts, warnings and validation errors.
package evaluator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crawlpulse/datafilters/pkg/catalog"
	"github.com/crawlpulse/datafilters/pkg/filter"
	"github.com/crawlpulse/datafilters/pkg/observability"
	"github.com/crawlpulse/datafilters/pkg/pipeline"
)

// Evaluation status labels
const (
	StatusSuccess = "success"
	StatusInvalid = "invalid"
	StatusFailed  = "failed"
)

// Source provides the records of a dataset
type Source interface {
	// FetchRecords returns up to limit records; limit <= 0 means the source's maximum
	FetchRecords(ctx context.Context, datasetType string, limit int) ([]filter.Record, error)
}

// Request is one evaluation
type Request struct {
	DatasetType     string              `json:"datasetType"`
	Conditions      filter.ConditionSet `json:"conditions"`
	Transformations pipeline.Pipeline   `json:"transformations"`
	// MaxRows caps the returned rows; zero or less returns every row
	MaxRows int `json:"maxRows"`
}

// GroupSummary describes one bucket of a grouped result
type GroupSummary struct {
	Key   any `json:"key"`
	Count int `json:"count"`
}

// Result is the outcome of an evaluation
type Result struct {
	// Rows holds at most MaxRows output rows, buckets flattened in order
	Rows []filter.Record `json:"rows"`
	// TotalCount is the number of output rows before the cap
	TotalCount int `json:"totalCount"`
	// MatchedCount is the number of records that passed the conditions
	MatchedCount int  `json:"matchedCount"`
	Truncated    bool `json:"truncated"`

	GroupField string         `json:"groupField,omitempty"`
	Groups     []GroupSummary `json:"groups,omitempty"`

	Warnings         []filter.Warning        `json:"warnings"`
	Advisories       []filter.Warning        `json:"advisories"`
	ValidationErrors filter.ValidationErrors `json:"validationErrors"`
	// Fields is the field set of the output rows
	Fields filter.Fields `json:"fields"`
}

// Evaluator loads catalogs and records and evaluates requests against them
type Evaluator struct {
	log       logrus.FieldLogger
	catalog   catalog.Catalog
	source    Source
	operators *filter.Registry
	pipelines *pipeline.Registry
	now       func() time.Time
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithClock replaces the wall clock used for relative dates
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		e.now = now
	}
}

// WithOperators replaces the operator registry
func WithOperators(reg *filter.Registry) Option {
	return func(e *Evaluator) {
		e.operators = reg
	}
}

// WithPipelines replaces the transformation registry
func WithPipelines(reg *pipeline.Registry) Option {
	return func(e *Evaluator) {
		e.pipelines = reg
	}
}

// New creates an evaluator
func New(log logrus.FieldLogger, cat catalog.Catalog, source Source, opts ...Option) *Evaluator {
	e := &Evaluator{
		log:       log.WithField("service", "evaluator"),
		catalog:   cat,
		source:    source,
		operators: filter.DefaultRegistry(),
		pipelines: pipeline.NewRegistry(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Operators returns the operator registry in use
func (e *Evaluator) Operators() *filter.Registry {
	return e.operators
}

// Pipelines returns the transformation registry in use
func (e *Evaluator) Pipelines() *pipeline.Registry {
	return e.pipelines
}

// Run evaluates req against the live dataset. Only an unknown dataset, an
// empty catalog or a failed fetch is returned as an error; invalid conditions
// and stages are reported on the result and skipped.
func (e *Evaluator) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	log := e.log.WithField("dataset", req.DatasetType)

	fields, err := e.catalog.GetFields(ctx, req.DatasetType)
	if err != nil {
		observability.RecordEvaluation(req.DatasetType, StatusFailed, time.Since(start).Seconds(), 0, 0)
		return nil, err
	}
	if len(fields) == 0 {
		observability.RecordEvaluation(req.DatasetType, StatusFailed, time.Since(start).Seconds(), 0, 0)
		return nil, catalog.ErrEmptyCatalog
	}

	records, err := e.source.FetchRecords(ctx, req.DatasetType, 0)
	if err != nil {
		observability.RecordEvaluation(req.DatasetType, StatusFailed, time.Since(start).Seconds(), 0, 0)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		observability.RecordEvaluation(req.DatasetType, StatusFailed, time.Since(start).Seconds(), 0, 0)
		return nil, err
	}

	result := e.Evaluate(fields, records, req)

	status := StatusSuccess
	if len(result.ValidationErrors) > 0 {
		status = StatusInvalid
	}
	observability.RecordEvaluation(req.DatasetType, status, time.Since(start).Seconds(), result.MatchedCount, len(result.Warnings))

	log.WithFields(logrus.Fields{
		"records":  len(records),
		"matched":  result.MatchedCount,
		"rows":     result.TotalCount,
		"invalid":  len(result.ValidationErrors),
		"duration": time.Since(start),
	}).Debug("Evaluated filter")

	if len(result.Warnings) > 0 {
		log.WithField("warnings", len(result.Warnings)).Info("Evaluation produced warnings")
	}

	return result, nil
}

// Evaluate runs req over records with fields as the catalog. It does not
// touch the catalog or the source and never fails.
func (e *Evaluator) Evaluate(fields filter.Fields, records []filter.Record, req Request) *Result {
	now := e.now()

	condErrs := filter.Validate(req.Conditions, fields, e.operators)
	report := e.pipelines.Validate(req.Transformations, fields)

	matcher := filter.NewMatcher(req.Conditions, now, condErrs.Invalid(filter.SourceCondition))
	matched := matcher.Filter(records)

	warnings := matcher.Warnings()
	frame := e.pipelines.Run(req.Transformations, matched, pipeline.RunOptions{
		Fields:   fields,
		Now:      now,
		Skip:     report.Errors.Invalid(filter.SourceTransformation),
		Warnings: warnings,
	})

	result := &Result{
		MatchedCount:     len(matched),
		Warnings:         warnings.List(),
		Advisories:       report.Advisories,
		ValidationErrors: append(condErrs, report.Errors...),
		Fields:           report.Layout.Fields,
	}

	if frame.Grouped() {
		result.GroupField = frame.GroupField
		result.Groups = make([]GroupSummary, len(frame.Buckets))
		for i, b := range frame.Buckets {
			result.Groups[i] = GroupSummary{Key: b.Key, Count: len(b.Rows)}
		}
	}

	rows := frame.Flatten()
	result.TotalCount = len(rows)
	result.Rows, result.Truncated = capRows(rows, req.MaxRows)

	return result
}

func capRows(rows []filter.Record, maxRows int) ([]filter.Record, bool) {
	if rows == nil {
		rows = []filter.Record{}
	}
	if maxRows <= 0 || len(rows) <= maxRows {
		return rows, false
	}
	return rows[:maxRows], true
}
