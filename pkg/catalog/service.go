package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crawlpulse/datafilters/pkg/filter"
	"github.com/crawlpulse/datafilters/pkg/observability"
)

// Config holds catalog caching settings
type Config struct {
	TTL time.Duration `yaml:"ttl" default:"30m"`
}

// Service is a read-through catalog: cached entries are served from Redis and
// misses are fetched from the source and stored
type Service struct {
	log    logrus.FieldLogger
	source Catalog
	cache  *Cache
	ttl    time.Duration
}

// NewService creates a catalog service. cache may be nil to disable caching.
func NewService(log logrus.FieldLogger, source Catalog, cache *Cache, cfg *Config) *Service {
	return &Service{
		log:    log.WithField("service", "catalog"),
		source: source,
		cache:  cache,
		ttl:    cfg.TTL,
	}
}

// GetFields returns the catalog for datasetType
func (s *Service) GetFields(ctx context.Context, datasetType string) (filter.Fields, error) {
	if datasetType == "" {
		return nil, ErrDatasetRequired
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, datasetType)
		if err != nil {
			s.log.WithError(err).WithField("dataset", datasetType).Warn("Failed to read catalog cache")
		} else if cached != nil && len(cached.Fields) > 0 {
			observability.RecordCatalogLookup("hit")
			return cached.Fields, nil
		}
	}

	fields, err := s.source.GetFields(ctx, datasetType)
	if err != nil {
		observability.RecordCatalogLookup("error")

		var fetchErr *FetchError
		if errors.Is(err, ErrUnknownDataset) || errors.Is(err, ErrEmptyCatalog) || errors.As(err, &fetchErr) {
			return nil, err
		}
		return nil, &FetchError{DatasetType: datasetType, Err: err}
	}

	if len(fields) == 0 {
		observability.RecordCatalogLookup("error")
		return nil, fmt.Errorf("%w: %s", ErrEmptyCatalog, datasetType)
	}

	observability.RecordCatalogLookup("miss")

	if s.cache != nil {
		err := s.cache.Set(ctx, CachedCatalog{
			DatasetType: datasetType,
			Fields:      fields,
			UpdatedAt:   time.Now(),
			TTL:         s.ttl,
		})
		if err != nil {
			s.log.WithError(err).WithField("dataset", datasetType).Warn("Failed to write catalog cache")
		}
	}

	s.log.WithFields(logrus.Fields{
		"dataset": datasetType,
		"fields":  len(fields),
	}).Debug("Loaded field catalog")

	return fields, nil
}

// Invalidate drops the cached catalog so the next lookup refetches it
func (s *Service) Invalidate(ctx context.Context, datasetType string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, datasetType)
}
