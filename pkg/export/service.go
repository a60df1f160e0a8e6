package export

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/crawlpulse/datafilters/pkg/catalog"
	"github.com/crawlpulse/datafilters/pkg/filter"
	"github.com/crawlpulse/datafilters/pkg/observability"
	"github.com/crawlpulse/datafilters/pkg/pipeline"
)

// Receipt acknowledges an accepted export
type Receipt struct {
	ID      string     `json:"id"`
	Queue   string     `json:"queue"`
	Format  Format     `json:"format"`
	NextRun *time.Time `json:"nextRun,omitempty"`
}

// Service validates export requests against the catalog and enqueues them
type Service struct {
	log       logrus.FieldLogger
	catalog   catalog.Catalog
	operators *filter.Registry
	pipelines *pipeline.Registry
	queue     *Queue
	now       func() time.Time
}

// NewService creates an export service
func NewService(log logrus.FieldLogger, cat catalog.Catalog, ops *filter.Registry, pipes *pipeline.Registry, queue *Queue) *Service {
	return &Service{
		log:       log.WithField("service", "export"),
		catalog:   cat,
		operators: ops,
		pipelines: pipes,
		queue:     queue,
		now:       time.Now,
	}
}

// Submit validates req, fills in its id and timestamp and enqueues it
func (s *Service) Submit(ctx context.Context, req Request) (*Receipt, error) {
	if req.DatasetType == "" {
		return nil, ErrDatasetRequired
	}

	fields, err := s.catalog.GetFields(ctx, req.DatasetType)
	if err != nil {
		return nil, err
	}

	if err := Validate(req, fields, s.operators, s.pipelines); err != nil {
		return nil, err
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Name == "" {
		req.Name = req.DatasetType + " export"
	}
	req.RequestedAt = s.now().UTC()

	info, err := s.queue.Enqueue(ctx, req)
	if err != nil {
		return nil, err
	}

	observability.RecordExportEnqueued(string(req.Format))

	receipt := &Receipt{ID: req.ID, Queue: info.Queue, Format: req.Format}
	if req.Recurring() {
		next, err := req.NextRun(req.RequestedAt)
		if err == nil {
			receipt.NextRun = &next
		}
	}

	s.log.WithFields(logrus.Fields{
		"id":        req.ID,
		"dataset":   req.DatasetType,
		"format":    req.Format,
		"recurring": req.Recurring(),
	}).Info("Enqueued export")

	return receipt, nil
}
