// Package presets provides the read-only catalog of named filter definitions.
// Applying a preset replaces the whole editor state.
package presets

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/crawlpulse/datafilters/pkg/editor"
	"github.com/crawlpulse/datafilters/pkg/filter"
	"github.com/crawlpulse/datafilters/pkg/pipeline"
)

//go:embed presets.yaml
var builtinYAML []byte

var (
	// ErrPresetNotFound is returned when no preset has the given id
	ErrPresetNotFound = errors.New("preset not found")
	// ErrPresetIDRequired is returned when a preset has no id
	ErrPresetIDRequired = errors.New("preset id is required")
	// ErrDuplicatePreset is returned when two presets share an id
	ErrDuplicatePreset = errors.New("duplicate preset id")
)

// Preset is a named condition set and pipeline
type Preset struct {
	ID              string              `json:"id" yaml:"id"`
	Name            string              `json:"name" yaml:"name"`
	Description     string              `json:"description" yaml:"description"`
	Conditions      filter.ConditionSet `json:"conditions" yaml:"conditions"`
	Transformations pipeline.Pipeline   `json:"transformations" yaml:"transformations"`
}

func (p Preset) clone() Preset {
	p.Conditions = p.Conditions.Clone()
	p.Transformations = p.Transformations.Clone()
	return p
}

// Config selects the preset source
type Config struct {
	// File overrides the built-in presets when set
	File string `yaml:"file"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// Store is an immutable preset catalog loaded once
type Store struct {
	presets []Preset
	byID    map[string]int
}

// NewStore creates a store from presets, keeping their order
func NewStore(presets []Preset) (*Store, error) {
	s := &Store{
		presets: make([]Preset, 0, len(presets)),
		byID:    make(map[string]int, len(presets)),
	}

	for _, p := range presets {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: %q", ErrPresetIDRequired, p.Name)
		}
		if _, exists := s.byID[p.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePreset, p.ID)
		}
		s.byID[p.ID] = len(s.presets)
		s.presets = append(s.presets, p.clone())
	}

	return s, nil
}

// Parse reads presets from YAML or JSON
func Parse(data []byte) (*Store, error) {
	var f presetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}
	return NewStore(f.Presets)
}

// Builtin returns the store of built-in presets
func Builtin() (*Store, error) {
	return Parse(builtinYAML)
}

// Load returns the presets named by cfg, or the built-in list
func Load(cfg *Config) (*Store, error) {
	if cfg == nil || cfg.File == "" {
		return Builtin()
	}

	data, err := os.ReadFile(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}
	return Parse(data)
}

// List returns copies of every preset in catalog order
func (s *Store) List() []Preset {
	out := make([]Preset, len(s.presets))
	for i, p := range s.presets {
		out[i] = p.clone()
	}
	return out
}

// IDs returns the preset ids sorted
func (s *Store) IDs() []string {
	out := make([]string, 0, len(s.presets))
	for _, p := range s.presets {
		out = append(out, p.ID)
	}
	sort.Strings(out)
	return out
}

// Get returns a copy of the preset with id
func (s *Store) Get(id string) (Preset, error) {
	i, ok := s.byID[id]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", ErrPresetNotFound, id)
	}
	return s.presets[i].clone(), nil
}

// Apply replaces state with the preset's conditions and pipeline. Nothing of
// the previous state survives.
func (s *Store) Apply(state editor.State, id string) (editor.State, error) {
	p, err := s.Get(id)
	if err != nil {
		return state, err
	}
	return state.Replace(p.Conditions, p.Transformations), nil
}

// Clear empties both the conditions and the pipeline
func (s *Store) Clear(state editor.State) editor.State {
	return state.Clear()
}
