package pipeline

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"
	"text/template/parse"

	"github.com/Masterminds/sprig/v3"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

// isTemplate reports whether an expression or formatter uses template syntax
func isTemplate(s string) bool {
	return strings.Contains(s, "{{")
}

// templateEngine compiles and caches row templates with Sprig functions
type templateEngine struct {
	funcMap template.FuncMap
	mu      sync.Mutex
	cache   map[string]*template.Template
}

func newTemplateEngine() *templateEngine {
	return &templateEngine{
		funcMap: sprig.TxtFuncMap(),
		cache:   make(map[string]*template.Template),
	}
}

// compile parses content once. Missing keys are errors so rows lacking an
// input are reported instead of rendering "<no value>".
func (e *templateEngine) compile(content string) (*template.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.cache[content]; ok {
		return tmpl, nil
	}

	tmpl, err := template.New("row").Funcs(e.funcMap).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}

	e.cache[content] = tmpl
	return tmpl, nil
}

// render executes content with the row's fields as template data
func (e *templateEngine) render(content string, row filter.Record) (string, error) {
	tmpl, err := e.compile(content)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any(row)); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// fields returns the row fields a template reads, in sorted order
func (e *templateEngine) fields(content string) ([]string, error) {
	tmpl, err := e.compile(content)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var walk func(node parse.Node)
	walk = func(node parse.Node) {
		switch n := node.(type) {
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, child := range n.Nodes {
				walk(child)
			}
		case *parse.ActionNode:
			walk(n.Pipe)
		case *parse.PipeNode:
			if n == nil {
				return
			}
			for _, cmd := range n.Cmds {
				walk(cmd)
			}
		case *parse.CommandNode:
			for _, arg := range n.Args {
				walk(arg)
			}
		case *parse.FieldNode:
			seen[strings.Join(n.Ident, ".")] = true
		case *parse.IfNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.RangeNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.WithNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		}
	}
	if tmpl.Tree != nil {
		walk(tmpl.Tree.Root)
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
