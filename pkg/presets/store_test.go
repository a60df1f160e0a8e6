package presets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crawlpulse/datafilters/pkg/catalog"
	"github.com/crawlpulse/datafilters/pkg/editor"
	"github.com/crawlpulse/datafilters/pkg/filter"
	"github.com/crawlpulse/datafilters/pkg/pipeline"
)

func TestBuiltin(t *testing.T) {
	store, err := Builtin()
	require.NoError(t, err)

	assert.Equal(t, []string{"high_engagement", "popular_this_month", "recent_tech", "subreddit_summary"}, store.IDs())

	p, err := store.Get("high_engagement")
	require.NoError(t, err)
	assert.Equal(t, "High engagement", p.Name)
	require.Len(t, p.Conditions, 2)
	assert.Equal(t, filter.OpGreaterThan, p.Conditions[0].Operator)
	assert.Equal(t, 100, p.Conditions[0].Value)
	assert.Equal(t, pipeline.NewSort("score", pipeline.Descending).Type, p.Transformations[0].Type)
}

func TestBuiltin_ValidAgainstPostsCatalog(t *testing.T) {
	store, err := Builtin()
	require.NoError(t, err)

	fields := catalog.Builtin()["posts"]
	reg := pipeline.NewRegistry()

	for _, p := range store.List() {
		t.Run(p.ID, func(t *testing.T) {
			assert.Empty(t, filter.Validate(p.Conditions, fields, filter.NewRegistry()))
			report := reg.Validate(p.Transformations, fields)
			assert.Empty(t, report.Errors)
		})
	}
}

func TestApply_ReplacesWholeState(t *testing.T) {
	store, err := Builtin()
	require.NoError(t, err)

	reg := filter.NewRegistry()
	state, _ := editor.State{}.AddCondition(filter.Field{Name: "title", Type: filter.FieldTypeText}, reg)
	state, _ = state.AddTransformation(pipeline.NewGroup("author"))

	p1, err := store.Apply(state, "high_engagement")
	require.NoError(t, err)

	want1, _ := store.Get("high_engagement")
	assert.Equal(t, want1.Conditions, p1.Conditions())
	assert.Equal(t, want1.Transformations, p1.Pipeline())

	p2, err := store.Apply(p1, "subreddit_summary")
	require.NoError(t, err)

	want2, _ := store.Get("subreddit_summary")
	assert.Equal(t, want2.Conditions, p2.Conditions())
	assert.Equal(t, want2.Transformations, p2.Pipeline())
	for _, c := range p2.Conditions() {
		assert.Equal(t, -1, want1.Conditions.Index(c.ID), "condition %s leaked from the first preset", c.ID)
	}
	for _, tr := range p2.Pipeline() {
		assert.Equal(t, -1, want1.Transformations.Index(tr.ID), "stage %s leaked from the first preset", tr.ID)
	}
}

func TestApply_UnknownPresetKeepsState(t *testing.T) {
	store, err := Builtin()
	require.NoError(t, err)

	state, _ := editor.State{}.AddTransformation(pipeline.NewGroup("author"))
	next, err := store.Apply(state, "nope")
	assert.ErrorIs(t, err, ErrPresetNotFound)
	assert.Equal(t, state.Snapshot(), next.Snapshot())
}

func TestApply_EditsDoNotReachTheCatalog(t *testing.T) {
	store, err := Builtin()
	require.NoError(t, err)

	state, err := store.Apply(editor.State{}, "high_engagement")
	require.NoError(t, err)

	id := state.Conditions()[0].ID
	_, err = state.SetValue(id, 5000)
	require.NoError(t, err)

	got, _ := store.Get("high_engagement")
	assert.Equal(t, 100, got.Conditions[0].Value)
}

func TestClear(t *testing.T) {
	store, err := Builtin()
	require.NoError(t, err)

	state, err := store.Apply(editor.State{}, "recent_tech")
	require.NoError(t, err)

	cleared := store.Clear(state)
	assert.Empty(t, cleared.Conditions())
	assert.Empty(t, cleared.Pipeline())
}

func TestNewStore_Errors(t *testing.T) {
	_, err := NewStore([]Preset{{Name: "anonymous"}})
	assert.ErrorIs(t, err, ErrPresetIDRequired)

	_, err = NewStore([]Preset{{ID: "a"}, {ID: "a"}})
	assert.ErrorIs(t, err, ErrDuplicatePreset)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"presets":[{"id":"mine","name":"Mine","description":"Only mine","conditions":[{"id":"c1","field":"author","type":"text","operator":"equals","value":"me"}],"transformations":[]}]}`), 0o600))

	store, err := Load(&Config{File: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, store.IDs())

	builtin, err := Load(&Config{})
	require.NoError(t, err)
	assert.Len(t, builtin.List(), 4)

	_, err = Load(&Config{File: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
