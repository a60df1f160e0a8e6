package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

// Layouts used by the date formatters
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

// FormatFunc renders a value for display. arg is the text after the first
// colon of the formatter name, if any.
type FormatFunc func(v any, arg string, now time.Time) (any, error)

// Formatter is a named display formatter
type Formatter struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Arg         string     `json:"arg,omitempty"`
	Fn          FormatFunc `json:"-"`
	// CheckArg validates the argument before any row is formatted
	CheckArg func(arg string) error `json:"-"`
}

// Formatters is the registry of format stage formatters
type Formatters struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
	templates  *templateEngine
}

func newFormatters(templates *templateEngine) *Formatters {
	f := &Formatters{
		formatters: make(map[string]Formatter),
		templates:  templates,
	}

	for _, x := range builtinFormatters(templates) {
		f.Register(x)
	}

	return f
}

// Register adds or replaces a formatter
func (f *Formatters) Register(x Formatter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.formatters[x.Name] = x
}

// List returns the registered formatters sorted by name
func (f *Formatters) List() []Formatter {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Formatter, 0, len(f.formatters))
	for _, x := range f.formatters {
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type compiledFormat func(v any, row filter.Record, now time.Time) (any, error)

func (f *Formatters) compile(formatter string) (compiledFormat, error) {
	if strings.TrimSpace(formatter) == "" {
		return nil, ErrFormatterRequired
	}

	if isTemplate(formatter) {
		if _, err := f.templates.compile(formatter); err != nil {
			return nil, err
		}
		return func(_ any, row filter.Record, _ time.Time) (any, error) {
			return f.templates.render(formatter, row)
		}, nil
	}

	name, arg, _ := strings.Cut(formatter, ":")
	name = strings.TrimSpace(name)

	f.mu.RLock()
	x, ok := f.formatters[name]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormatter, name)
	}

	if x.CheckArg != nil {
		if err := x.CheckArg(arg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFormatterArg, name, err)
		}
	}

	return func(v any, _ filter.Record, now time.Time) (any, error) {
		return x.Fn(v, arg, now)
	}, nil
}

func builtinFormatters(templates *templateEngine) []Formatter {
	text := func(fn func(string) string) FormatFunc {
		return func(v any, _ string, _ time.Time) (any, error) {
			return fn(filter.ToText(v)), nil
		}
	}

	return []Formatter{
		{Name: "uppercase", Description: "Upper-case text", Fn: text(strings.ToUpper)},
		{Name: "lowercase", Description: "Lower-case text", Fn: text(strings.ToLower)},
		{Name: "trim", Description: "Strip surrounding whitespace", Fn: text(strings.TrimSpace)},
		{
			Name:        "titlecase",
			Description: "Capitalise each word",
			Fn: func(v any, _ string, _ time.Time) (any, error) {
				return templates.render(`{{ .v | lower | title }}`, filter.Record{"v": filter.ToText(v)})
			},
		},
		{
			Name:        "truncate",
			Description: "Cut text to N characters, marking the cut with an ellipsis",
			Arg:         "N",
			CheckArg:    positiveInt,
			Fn: func(v any, arg string, _ time.Time) (any, error) {
				n, _ := strconv.Atoi(strings.TrimSpace(arg))
				r := []rune(filter.ToText(v))
				if len(r) <= n {
					return string(r), nil
				}
				return string(r[:n]) + "…", nil
			},
		},
		{
			Name:        "number",
			Description: "Group thousands, optionally with N decimal places",
			Arg:         "N",
			CheckArg:    optionalPlaces,
			Fn: func(v any, arg string, _ time.Time) (any, error) {
				places, _ := places(arg)
				d, err := toDecimal(v)
				if err != nil {
					return nil, err
				}
				return groupThousands(d.StringFixed(places)), nil
			},
		},
		{
			Name:        "percent",
			Description: "Render a ratio as a percentage with one decimal place",
			Fn: func(v any, _ string, _ time.Time) (any, error) {
				d, err := toDecimal(v)
				if err != nil {
					return nil, err
				}
				return d.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%", nil
			},
		},
		{
			Name:        "currency",
			Description: "Render an amount in a currency, USD unless a code is given",
			Arg:         "CODE",
			CheckArg:    currencyCode,
			Fn:          formatCurrency,
		},
		{
			Name:        "date",
			Description: "Render a date, optionally with a Go layout",
			Arg:         "LAYOUT",
			Fn:          dateFormatter(DateLayout),
		},
		{
			Name:        "datetime",
			Description: "Render a date and time",
			Arg:         "LAYOUT",
			Fn:          dateFormatter(DateTimeLayout),
		},
		{
			Name:        "relative",
			Description: "Render a date relative to now, e.g. 3 days ago",
			Fn: func(v any, _ string, now time.Time) (any, error) {
				t, err := filter.ToDate(v)
				if err != nil {
					return nil, err
				}
				return relative(now.Sub(t)), nil
			},
		},
		{
			Name:        "yesno",
			Description: "Render a boolean as Yes or No",
			Fn: func(v any, _ string, _ time.Time) (any, error) {
				b, err := filter.ToBool(v)
				if err != nil {
					return nil, err
				}
				if b {
					return "Yes", nil
				}
				return "No", nil
			},
		},
	}
}

func positiveInt(arg string) error {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("must be positive, got %d", n)
	}
	return nil
}

func places(arg string) (int32, error) {
	if strings.TrimSpace(arg) == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 10 {
		return 0, fmt.Errorf("decimal places must be 0-10, got %d", n)
	}
	return int32(n), nil //nolint:gosec // bounded above
}

func optionalPlaces(arg string) error {
	_, err := places(arg)
	return err
}

//nolint:gochecknoglobals // lookup table
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

func currencyCode(arg string) error {
	code := strings.TrimSpace(arg)
	if code == "" {
		return nil
	}
	if len(code) != 3 || strings.ToUpper(code) != code {
		return fmt.Errorf("expected a three letter upper-case code, got %q", code)
	}
	return nil
}

func formatCurrency(v any, arg string, _ time.Time) (any, error) {
	d, err := toDecimal(v)
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(arg)
	if code == "" {
		code = "USD"
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	amount := groupThousands(d.StringFixed(2))
	if sym, ok := currencySymbols[code]; ok {
		return sign + sym + amount, nil
	}
	return sign + code + " " + amount, nil
}

func dateFormatter(layout string) FormatFunc {
	return func(v any, arg string, _ time.Time) (any, error) {
		t, err := filter.ToDate(v)
		if err != nil {
			return nil, err
		}
		if arg != "" {
			return t.UTC().Format(arg), nil
		}
		return t.UTC().Format(layout), nil
	}
}

func toDecimal(v any) (decimal.Decimal, error) {
	if s, ok := v.(string); ok {
		return decimal.NewFromString(strings.TrimSpace(s))
	}
	f, err := filter.ToNumber(v)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(f), nil
}

// groupThousands inserts commas into the integer part of a decimal string
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	if hasFrac {
		return sign + b.String() + "." + frac
	}
	return sign + b.String()
}

func relative(d time.Duration) string {
	future := d < 0
	if future {
		d = -d
	}

	if d < time.Minute {
		return "just now"
	}

	units := []struct {
		name string
		size time.Duration
	}{
		{"year", 365 * 24 * time.Hour},
		{"month", 30 * 24 * time.Hour},
		{"day", 24 * time.Hour},
		{"hour", time.Hour},
		{"minute", time.Minute},
	}

	for _, u := range units {
		if d < u.size {
			continue
		}
		n := int(math.Floor(float64(d) / float64(u.size)))
		label := u.name
		if n != 1 {
			label += "s"
		}
		if future {
			return fmt.Sprintf("in %d %s", n, label)
		}
		return fmt.Sprintf("%d %s ago", n, label)
	}

	return "just now"
}
