// Package export builds export and recurring-report requests from a filter
// definition and hands them to the report generator over an asynq queue.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/crawlpulse/datafilters/pkg/editor"
	"github.com/crawlpulse/datafilters/pkg/filter"
	"github.com/crawlpulse/datafilters/pkg/pipeline"
)

var (
	// ErrDatasetRequired is returned when a request names no dataset type
	ErrDatasetRequired = errors.New("dataset type is required")
	// ErrUnsupportedFormat is returned for an unknown output format
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrInvalidSchedule is returned when the schedule is not a cron expression
	ErrInvalidSchedule = errors.New("invalid cron expression")
	// ErrInvalidDefinition is returned when conditions or stages fail validation
	ErrInvalidDefinition = errors.New("filter definition is invalid")
)

// Format is an export output format
type Format string

// Output formats understood by the report generator
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// Formats returns the supported output formats
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatXLSX, FormatPDF}
}

// IsValid reports whether f is a supported format
func (f Format) IsValid() bool {
	switch f {
	case FormatCSV, FormatJSON, FormatXLSX, FormatPDF:
		return true
	}
	return false
}

// Filters wraps the condition set on the wire
type Filters struct {
	Conditions filter.ConditionSet `json:"conditions" yaml:"conditions"`
}

// Request is an export or, with a schedule, a recurring report
type Request struct {
	ID              string            `json:"id"`
	DatasetType     string            `json:"datasetType"`
	Format          Format            `json:"format"`
	Name            string            `json:"name,omitempty"`
	Schedule        string            `json:"schedule,omitempty"`
	Filters         Filters           `json:"filters"`
	Transformations pipeline.Pipeline `json:"transformations"`
	RequestedAt     time.Time         `json:"requestedAt"`
}

// FromState builds a request from the editor's current definition
func FromState(datasetType string, state editor.State, format Format) Request {
	snap := state.Snapshot()

	return Request{
		DatasetType:     datasetType,
		Format:          format,
		Filters:         Filters{Conditions: snap.Conditions},
		Transformations: snap.Transformations,
	}
}

// Recurring reports whether the request has a schedule
func (r Request) Recurring() bool {
	return strings.TrimSpace(r.Schedule) != ""
}

// NextRun returns the first scheduled run after now
func (r Request) NextRun(now time.Time) (time.Time, error) {
	sched, err := ParseSchedule(r.Schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(now), nil
}

// ParseSchedule parses a standard five-field cron expression or descriptor
func ParseSchedule(schedule string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}
	return sched, nil
}

// Validate checks the request shape and its definition against fields. The
// returned error wraps ErrInvalidDefinition and the filter.ValidationErrors
// when conditions or stages are invalid.
func Validate(r Request, fields filter.Fields, ops *filter.Registry, pipes *pipeline.Registry) error {
	if r.DatasetType == "" {
		return ErrDatasetRequired
	}

	if !r.Format.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, r.Format)
	}

	if r.Recurring() {
		if _, err := ParseSchedule(r.Schedule); err != nil {
			return err
		}
	}

	errs := filter.Validate(r.Filters.Conditions, fields, ops)
	errs = append(errs, pipes.Validate(r.Transformations, fields).Errors...)
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, errs)
	}

	return nil
}
