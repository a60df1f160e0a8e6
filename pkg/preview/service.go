package preview

import (
	"context"

	"github.com/crawlpulse/datafilters/pkg/evaluator"
)

// Service evaluates a preview request
type Service interface {
	Evaluate(ctx context.Context, req evaluator.Request) (*evaluator.Result, error)
}

// LocalService runs previews in process with a row cap
type LocalService struct {
	eval    *evaluator.Evaluator
	maxRows int
}

// NewLocalService creates a preview service backed by eval
func NewLocalService(eval *evaluator.Evaluator, cfg *Config) *LocalService {
	return &LocalService{
		eval:    eval,
		maxRows: cfg.MaxRows,
	}
}

// Evaluate runs req with MaxRows clamped to the configured cap
func (s *LocalService) Evaluate(ctx context.Context, req evaluator.Request) (*evaluator.Result, error) {
	if req.MaxRows <= 0 || req.MaxRows > s.maxRows {
		req.MaxRows = s.maxRows
	}
	return s.eval.Run(ctx, req)
}
