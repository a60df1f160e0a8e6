package backend

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crawlpulse/datafilters/pkg/catalog"
	"github.com/crawlpulse/datafilters/pkg/filter"
)

// Dataset is a catalog and its records held in memory
type Dataset struct {
	Fields  filter.Fields   `yaml:"fields"`
	Records []filter.Record `yaml:"records"`
}

// Memory serves datasets from memory. It is used for offline evaluation and
// tests.
type Memory struct {
	Datasets map[string]Dataset `yaml:"datasets"`
}

// LoadFile reads datasets from a YAML or JSON file
func LoadFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var m Memory
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse dataset file: %w", err)
	}

	return &m, nil
}

// GetFields returns the field list of datasetType
func (m *Memory) GetFields(_ context.Context, datasetType string) (filter.Fields, error) {
	ds, ok := m.Datasets[datasetType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownDataset, datasetType)
	}

	out := make(filter.Fields, len(ds.Fields))
	copy(out, ds.Fields)
	return out, nil
}

// FetchRecords returns copies of up to limit records
func (m *Memory) FetchRecords(_ context.Context, datasetType string, limit int) ([]filter.Record, error) {
	ds, ok := m.Datasets[datasetType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownDataset, datasetType)
	}

	n := len(ds.Records)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]filter.Record, n)
	for i := 0; i < n; i++ {
		out[i] = ds.Records[i].Clone()
	}
	return out, nil
}
