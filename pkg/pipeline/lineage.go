package pipeline

import (
	"fmt"
	"sort"

	"github.com/heimdalr/dag"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

// lineageNode is the vertex value for one field
type lineageNode struct {
	Name    string
	Derived bool
}

// Lineage is the field dependency graph of a pipeline: catalog fields are
// roots and every calculated or aggregated field has edges from its inputs
type Lineage struct {
	dag *dag.DAG
}

// NewLineage creates a graph holding the catalog fields
func NewLineage(fields filter.Fields) (*Lineage, error) {
	l := &Lineage{dag: dag.NewDAG()}
	for _, f := range fields {
		if err := l.dag.AddVertexByID(f.Name, lineageNode{Name: f.Name}); err != nil {
			return nil, fmt.Errorf("failed to add field %s: %w", f.Name, err)
		}
	}
	return l, nil
}

// Derive records output as computed from inputs. Inputs missing from the graph
// are added as roots.
func (l *Lineage) Derive(output string, inputs []string) error {
	if _, err := l.dag.GetVertex(output); err == nil {
		return fmt.Errorf("%w: %s", ErrFieldExists, output)
	}

	if err := l.dag.AddVertexByID(output, lineageNode{Name: output, Derived: true}); err != nil {
		return fmt.Errorf("failed to add field %s: %w", output, err)
	}

	linked := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if linked[in] {
			continue
		}
		linked[in] = true

		if _, err := l.dag.GetVertex(in); err != nil {
			if err := l.dag.AddVertexByID(in, lineageNode{Name: in}); err != nil {
				return fmt.Errorf("failed to add field %s: %w", in, err)
			}
		}
		if err := l.dag.AddEdge(in, output); err != nil {
			return fmt.Errorf("failed to link %s to %s: %w", in, output, err)
		}
	}

	return nil
}

// Has reports whether field is in the graph
func (l *Lineage) Has(field string) bool {
	_, err := l.dag.GetVertex(field)
	return err == nil
}

// Inputs returns the direct inputs of field, sorted
func (l *Lineage) Inputs(field string) []string {
	parents, err := l.dag.GetParents(field)
	if err != nil {
		return nil
	}
	return sortedKeys(parents)
}

// Sources returns the catalog fields field ultimately depends on, sorted. A
// catalog field is its own source.
func (l *Lineage) Sources(field string) []string {
	v, err := l.dag.GetVertex(field)
	if err != nil {
		return nil
	}
	if node, ok := v.(lineageNode); ok && !node.Derived {
		return []string{field}
	}

	ancestors, err := l.dag.GetAncestors(field)
	if err != nil {
		return nil
	}

	roots := make(map[string]interface{})
	for id, av := range ancestors {
		if node, ok := av.(lineageNode); ok && !node.Derived {
			roots[id] = av
		}
	}
	return sortedKeys(roots)
}

// Derived returns every derived field with its direct inputs
func (l *Lineage) Derived() map[string][]string {
	out := make(map[string][]string)
	for id, v := range l.dag.GetVertices() {
		if node, ok := v.(lineageNode); ok && node.Derived {
			out[id] = l.Inputs(id)
		}
	}
	return out
}

func sortedKeys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
