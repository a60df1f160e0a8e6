package pipeline

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

// popularScore is the score at which is_popular turns true
const popularScore = 1000

//nolint:gochecknoglobals // compiled once
var callPattern = regexp.MustCompile(`^\s*([a-z_][a-z0-9_]*)\s*(?:\((.*)\))?\s*$`)

// ExprFunc computes a derived value from the expression's input values
type ExprFunc func(args []any, now time.Time) (any, error)

// Expression is a named derived-field function. Inputs are the default input
// fields; a call such as word_count(body) substitutes its own.
type Expression struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Inputs      []string         `json:"inputs"`
	Output      filter.FieldType `json:"output"`
	Fn          ExprFunc         `json:"-"`
}

// compiledExpr is an expression bound to concrete input fields
type compiledExpr struct {
	inputs []string
	output filter.FieldType
	eval   func(r filter.Record, now time.Time) (any, error)
}

// Expressions is the registry of calculate expressions
type Expressions struct {
	mu        sync.RWMutex
	exprs     map[string]Expression
	templates *templateEngine
}

// newExpressions creates a registry holding the built-in expressions
func newExpressions(templates *templateEngine) *Expressions {
	e := &Expressions{
		exprs:     make(map[string]Expression),
		templates: templates,
	}

	for _, x := range builtinExpressions() {
		e.Register(x)
	}

	return e
}

// Register adds or replaces an expression
func (e *Expressions) Register(x Expression) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exprs[x.Name] = x
}

// List returns the registered expressions sorted by name
func (e *Expressions) List() []Expression {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Expression, 0, len(e.exprs))
	for _, x := range e.exprs {
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (e *Expressions) compile(expr string) (compiledExpr, error) {
	if strings.TrimSpace(expr) == "" {
		return compiledExpr{}, ErrExpressionRequired
	}

	if isTemplate(expr) {
		inputs, err := e.templates.fields(expr)
		if err != nil {
			return compiledExpr{}, err
		}
		return compiledExpr{
			inputs: inputs,
			output: filter.FieldTypeText,
			eval: func(r filter.Record, _ time.Time) (any, error) {
				return e.templates.render(expr, r)
			},
		}, nil
	}

	m := callPattern.FindStringSubmatch(expr)
	if m == nil {
		return compiledExpr{}, fmt.Errorf("%w: %q", ErrUnknownExpression, expr)
	}

	e.mu.RLock()
	x, ok := e.exprs[m[1]]
	e.mu.RUnlock()
	if !ok {
		return compiledExpr{}, fmt.Errorf("%w: %q", ErrUnknownExpression, m[1])
	}

	inputs := x.Inputs
	if strings.TrimSpace(m[2]) != "" {
		parts := strings.Split(m[2], ",")
		inputs = make([]string, len(parts))
		for i, p := range parts {
			inputs[i] = strings.TrimSpace(p)
		}
		if len(inputs) != len(x.Inputs) {
			return compiledExpr{}, fmt.Errorf("%w: %s takes %d, got %d", ErrExpressionArity, x.Name, len(x.Inputs), len(inputs))
		}
	}

	return compiledExpr{
		inputs: inputs,
		output: x.Output,
		eval: func(r filter.Record, now time.Time) (any, error) {
			args := make([]any, len(inputs))
			for i, name := range inputs {
				v, ok := lookup(r, name)
				if !ok {
					return nil, fmt.Errorf("%w: %s", ErrMissingInput, name)
				}
				args[i] = v
			}
			return x.Fn(args, now)
		},
	}, nil
}

func builtinExpressions() []Expression {
	return []Expression{
		{
			Name:        "title_length",
			Description: "Number of characters in the text",
			Inputs:      []string{"title"},
			Output:      filter.FieldTypeNumber,
			Fn: func(args []any, _ time.Time) (any, error) {
				return utf8.RuneCountInString(filter.ToText(args[0])), nil
			},
		},
		{
			Name:        "word_count",
			Description: "Number of whitespace separated words in the text",
			Inputs:      []string{"title"},
			Output:      filter.FieldTypeNumber,
			Fn: func(args []any, _ time.Time) (any, error) {
				return len(strings.Fields(filter.ToText(args[0]))), nil
			},
		},
		{
			Name:        "engagement_ratio",
			Description: "Comments per point of score",
			Inputs:      []string{"num_comments", "score"},
			Output:      filter.FieldTypeNumber,
			Fn: func(args []any, _ time.Time) (any, error) {
				return ratio(args[0], args[1], false)
			},
		},
		{
			Name:        "comment_ratio",
			Description: "Share of comments in comments plus score",
			Inputs:      []string{"num_comments", "score"},
			Output:      filter.FieldTypeNumber,
			Fn: func(args []any, _ time.Time) (any, error) {
				return ratio(args[0], args[1], true)
			},
		},
		{
			Name:        "age_days",
			Description: "Whole days elapsed since the date",
			Inputs:      []string{"created_at"},
			Output:      filter.FieldTypeNumber,
			Fn: func(args []any, now time.Time) (any, error) {
				return age(args[0], now, 24*time.Hour)
			},
		},
		{
			Name:        "age_hours",
			Description: "Whole hours elapsed since the date",
			Inputs:      []string{"created_at"},
			Output:      filter.FieldTypeNumber,
			Fn: func(args []any, now time.Time) (any, error) {
				return age(args[0], now, time.Hour)
			},
		},
		{
			Name:        "is_popular",
			Description: fmt.Sprintf("Whether the score is at least %d", popularScore),
			Inputs:      []string{"score"},
			Output:      filter.FieldTypeBoolean,
			Fn: func(args []any, _ time.Time) (any, error) {
				n, err := filter.ToNumber(args[0])
				if err != nil {
					return nil, err
				}
				return n >= popularScore, nil
			},
		},
		{
			Name:        "domain",
			Description: "Host name of the URL without a leading www.",
			Inputs:      []string{"url"},
			Output:      filter.FieldTypeText,
			Fn: func(args []any, _ time.Time) (any, error) {
				u, err := url.Parse(strings.TrimSpace(filter.ToText(args[0])))
				if err != nil {
					return nil, err
				}
				if u.Hostname() == "" {
					return nil, fmt.Errorf("no host in %q", filter.ToText(args[0]))
				}
				return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."), nil
			},
		},
	}
}

// ratio returns a/b, or a/(a+b) when share is set, rounded to four places
func ratio(a, b any, share bool) (any, error) {
	x, err := filter.ToNumber(a)
	if err != nil {
		return nil, err
	}
	y, err := filter.ToNumber(b)
	if err != nil {
		return nil, err
	}

	num := decimal.NewFromFloat(x)
	den := decimal.NewFromFloat(y)
	if share {
		den = num.Add(den)
	}
	if den.IsZero() {
		return nil, ErrDivisionByZero
	}

	out, _ := num.Div(den).Round(4).Float64()
	return out, nil
}

func age(v any, now time.Time, unit time.Duration) (any, error) {
	t, err := filter.ToDate(v)
	if err != nil {
		return nil, err
	}
	return int(math.Floor(float64(now.Sub(t)) / float64(unit))), nil
}
