package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crawlpulse/datafilters/internal/testutil"
	"github.com/crawlpulse/datafilters/pkg/evaluator"
	"github.com/crawlpulse/datafilters/pkg/filter"
	"github.com/crawlpulse/datafilters/pkg/pipeline"
)

func TestLoadDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "definition.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
conditions:
  - id: c1
    field: score
    type: number
    operator: greater_than
    value: 400
transformations:
  - type: sort
    field: score
    direction: desc
`), 0o600))

	snap, err := loadDefinition(path)
	require.NoError(t, err)
	require.Len(t, snap.Conditions, 1)
	assert.Equal(t, filter.OpGreaterThan, snap.Conditions[0].Operator)
	require.Len(t, snap.Transformations, 1)
	assert.Equal(t, pipeline.KindSort, snap.Transformations[0].Type)
	assert.Equal(t, pipeline.Descending, snap.Transformations[0].Direction)

	_, err = loadDefinition(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCLIConfig_Validate(t *testing.T) {
	cfg, err := LoadCLIConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging)
	assert.ErrorIs(t, cfg.Validate(), ErrSourceRequired)

	cfg.DatasetFile = "datasets.yaml"
	assert.NoError(t, cfg.Validate())
}

func TestPrintResult(t *testing.T) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})

	ds := testutil.Dataset()
	eval := evaluator.New(log, ds, ds, evaluator.WithClock(testutil.Clock))

	res, err := eval.Run(context.Background(), evaluator.Request{
		DatasetType: "posts",
		Conditions: filter.ConditionSet{
			{ID: "c1", Field: "score", Type: filter.FieldTypeNumber, Operator: filter.OpGreaterThan, Value: 400},
		},
		Transformations: pipeline.Pipeline{pipeline.NewSort("score", pipeline.Descending)},
		MaxRows:         2,
	})
	require.NoError(t, err)

	var out bytes.Buffer
	printResult(&out, res)

	text := out.String()
	assert.Contains(t, text, "title")
	assert.Contains(t, text, "Rust vs Go")
	assert.NotContains(t, text, "New GPU benchmarks")
	assert.Contains(t, text, "rows: 2 (truncated) of 3, matched: 3")
}
