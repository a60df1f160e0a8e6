package filter

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func TestEvaluate_Text(t *testing.T) {
	record := Record{"title": "Technology News"}

	tests := []struct {
		name  string
		op    Operator
		value any
		want  bool
	}{
		{name: "contains is case-insensitive", op: OpContains, value: "tech", want: true},
		{name: "contains misses", op: OpContains, value: "sports", want: false},
		{name: "not_contains", op: OpNotContains, value: "sports", want: true},
		{name: "equals ignores case", op: OpEquals, value: "technology news", want: true},
		{name: "not_equals", op: OpNotEquals, value: "technology", want: true},
		{name: "starts_with", op: OpStartsWith, value: "TECH", want: true},
		{name: "ends_with", op: OpEndsWith, value: "news", want: true},
		{name: "ends_with misses", op: OpEndsWith, value: "tech", want: false},
		{name: "regex matches", op: OpRegex, value: "^Tech.*News$", want: true},
		{name: "regex is case-sensitive", op: OpRegex, value: "^tech", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Condition{Field: "title", Type: FieldTypeText, Operator: tt.op, Value: tt.value}
			got, err := Evaluate(c, record, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_NumberBetweenInclusive(t *testing.T) {
	c := Condition{Field: "score", Type: FieldTypeNumber, Operator: OpBetween, Value: Range(10, 20)}

	tests := []struct {
		score any
		want  bool
	}{
		{score: 10, want: true},
		{score: 20, want: true},
		{score: 15.5, want: true},
		{score: "12", want: true},
		{score: 9, want: false},
		{score: 21, want: false},
	}

	for _, tt := range tests {
		got, err := Evaluate(c, Record{"score": tt.score}, testNow)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "score=%v", tt.score)
	}
}

func TestEvaluate_NumberComparisons(t *testing.T) {
	record := Record{"score": 150}

	tests := []struct {
		op    Operator
		value any
		want  bool
	}{
		{op: OpEquals, value: 150, want: true},
		{op: OpNotEquals, value: 150, want: false},
		{op: OpGreaterThan, value: 100, want: true},
		{op: OpGreaterThan, value: 150, want: false},
		{op: OpGreaterEqual, value: 150, want: true},
		{op: OpLessThan, value: "200", want: true},
		{op: OpLessEqual, value: 149, want: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			c := Condition{Field: "score", Type: FieldTypeNumber, Operator: tt.op, Value: tt.value}
			got, err := Evaluate(c, record, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_LastDaysWindow(t *testing.T) {
	c := Condition{Field: "created_at", Type: FieldTypeDate, Operator: OpLastDays, Value: 7}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "six days ago", at: testNow.AddDate(0, 0, -6), want: true},
		{name: "eight days ago", at: testNow.AddDate(0, 0, -8), want: false},
		{name: "lower bound is inclusive", at: testNow.AddDate(0, 0, -7), want: true},
		{name: "now is excluded", at: testNow, want: false},
		{name: "future is excluded", at: testNow.Add(time.Hour), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(c, Record{"created_at": tt.at.Format(time.RFC3339)}, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_DateOperators(t *testing.T) {
	record := Record{"created_at": "2026-10-10T08:30:00Z"}

	tests := []struct {
		name  string
		op    Operator
		value any
		want  bool
	}{
		{name: "equals same day", op: OpEquals, value: "2026-10-10", want: true},
		{name: "equals other day", op: OpEquals, value: "2026-10-11", want: false},
		{name: "before", op: OpBefore, value: "2026-10-11", want: true},
		{name: "after", op: OpAfter, value: "2026-10-11", want: false},
		{name: "between covers end day", op: OpBetween, value: DateRange("2026-10-01", "2026-10-10"), want: true},
		{name: "between excludes later", op: OpBetween, value: DateRange("2026-10-11", "2026-10-20"), want: false},
		{name: "last_weeks", op: OpLastWeeks, value: 1, want: true},
		{name: "last_months", op: OpLastMonths, value: "1", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Condition{Field: "created_at", Type: FieldTypeDate, Operator: tt.op, Value: tt.value}
			got, err := Evaluate(c, record, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_Boolean(t *testing.T) {
	isTrue := Condition{Field: "is_nsfw", Type: FieldTypeBoolean, Operator: OpIsTrue, Value: "ignored"}
	isFalse := Condition{Field: "is_nsfw", Type: FieldTypeBoolean, Operator: OpIsFalse}

	got, err := Evaluate(isTrue, Record{"is_nsfw": true}, testNow)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = Evaluate(isFalse, Record{"is_nsfw": "false"}, testNow)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluate_FailsClosed(t *testing.T) {
	t.Run("missing field", func(t *testing.T) {
		c := Condition{Field: "score", Type: FieldTypeNumber, Operator: OpLessThan, Value: 10}
		got, err := Evaluate(c, Record{"title": "x"}, testNow)
		require.NoError(t, err)
		assert.False(t, got)
	})

	t.Run("invalid regex", func(t *testing.T) {
		c := Condition{Field: "title", Type: FieldTypeText, Operator: OpRegex, Value: "([a-z"}
		got, err := Evaluate(c, Record{"title": "abc"}, testNow)
		require.Error(t, err)
		assert.False(t, got)
	})

	t.Run("non-numeric field value", func(t *testing.T) {
		c := Condition{Field: "score", Type: FieldTypeNumber, Operator: OpGreaterThan, Value: 1}
		got, err := Evaluate(c, Record{"score": "lots"}, testNow)
		require.ErrorIs(t, err, ErrNotNumeric)
		assert.False(t, got)
	})

	for _, v := range []any{"NaN", "Inf", "-Infinity", math.NaN(), math.Inf(1)} {
		t.Run(fmt.Sprintf("non-finite %v", v), func(t *testing.T) {
			c := Condition{Field: "score", Type: FieldTypeNumber, Operator: OpLessThan, Value: 1e9}
			got, err := Evaluate(c, Record{"score": v}, testNow)
			require.ErrorIs(t, err, ErrNotNumeric)
			assert.False(t, got)
		})
	}
}

func TestToNumber_RejectsNonFinite(t *testing.T) {
	for _, v := range []any{"NaN", "nan", " Inf ", "Infinity", "-Inf", math.NaN(), math.Inf(-1)} {
		_, err := ToNumber(v)
		assert.ErrorIs(t, err, ErrNotNumeric, "%v", v)
	}

	n, err := ToNumber(" 12.5 ")
	require.NoError(t, err)
	assert.InDelta(t, 12.5, n, 0)
}

func TestEvaluate_NestedField(t *testing.T) {
	record := Record{"author": map[string]any{"name": "Ada", "karma": 900}}

	c := Condition{Field: "author.karma", Type: FieldTypeNumber, Operator: OpGreaterThan, Value: 500}
	got, err := Evaluate(c, record, testNow)
	require.NoError(t, err)
	assert.True(t, got)

	c = Condition{Field: "author.missing", Type: FieldTypeText, Operator: OpContains, Value: "a"}
	got, err = Evaluate(c, record, testNow)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestMatches_Compositional(t *testing.T) {
	set := ConditionSet{
		{Field: "title", Type: FieldTypeText, Operator: OpContains, Value: "ai"},
		{Field: "score", Type: FieldTypeNumber, Operator: OpGreaterThan, Value: 100},
		{Field: "subreddit", Type: FieldTypeText, Operator: OpEquals, Value: "technology"},
	}

	records := []Record{
		{"title": "AI breakthrough", "score": 150, "subreddit": "technology"},
		{"title": "AI breakthrough", "score": 50, "subreddit": "technology"},
		{"title": "gaming review", "score": 400, "subreddit": "gaming"},
		{"title": "Paint", "subreddit": "technology"},
		{},
	}

	for i, r := range records {
		want := true
		for _, c := range set {
			ok, _ := Evaluate(c, r, testNow)
			want = want && ok
		}
		assert.Equal(t, want, Matches(set, r, testNow), "record %d", i)
	}

	assert.True(t, Matches(nil, Record{"anything": 1}, testNow), "empty set matches everything")
}

func TestMatcher_AggregatesWarnings(t *testing.T) {
	set := ConditionSet{
		{ID: "c1", Field: "title", Type: FieldTypeText, Operator: OpRegex, Value: "(unclosed"},
	}
	records := []Record{{"title": "a"}, {"title": "b"}, {"title": "c"}, {"score": 1}}

	m := NewMatcher(set, testNow, nil)
	assert.Empty(t, m.Filter(records))

	warnings := m.Warnings().List()
	require.Len(t, warnings, 1)
	assert.Equal(t, "c1", warnings[0].ID)
	assert.Equal(t, SourceCondition, warnings[0].Source)
	assert.Equal(t, 3, warnings[0].Rows, "record without the field fails closed without a warning")
}

func TestMatcher_FoldsBadValuesPerCondition(t *testing.T) {
	set := ConditionSet{
		{ID: "c1", Field: "score", Type: FieldTypeNumber, Operator: OpGreaterThan, Value: 1},
		{ID: "c2", Field: "created_at", Type: FieldTypeDate, Operator: OpBefore, Value: "2026-10-01"},
	}
	records := []Record{
		{"score": "lots", "created_at": "2026-09-01"},
		{"score": "NaN", "created_at": "2026-09-01"},
		{"score": 5, "created_at": "soon"},
		{"score": 6, "created_at": "later"},
		{"score": 7, "created_at": "2026-09-01"},
	}

	m := NewMatcher(set, testNow, nil)
	got := m.Filter(records)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0]["score"])

	warnings := m.Warnings().List()
	require.Len(t, warnings, 2)
	assert.Equal(t, "c1", warnings[0].ID)
	assert.Equal(t, ErrNotNumeric.Error(), warnings[0].Message)
	assert.Equal(t, 2, warnings[0].Rows)
	assert.Equal(t, "c2", warnings[1].ID)
	assert.Equal(t, ErrNotDate.Error(), warnings[1].Message)
	assert.Equal(t, 2, warnings[1].Rows)
}

func TestWarningMessage(t *testing.T) {
	_, err := ToNumber("abc")
	assert.Equal(t, ErrNotNumeric.Error(), WarningMessage(err))

	_, err = ToBool("maybe")
	assert.Equal(t, ErrNotBoolean.Error(), WarningMessage(err))

	other := errors.New("no host in \"\"")
	assert.Equal(t, other.Error(), WarningMessage(other))
}

func TestMatcher_SkipsInvalidConditions(t *testing.T) {
	set := ConditionSet{
		{Field: "score", Type: FieldTypeNumber, Operator: OpBetween, Value: map[string]any{"min": 1}},
		{Field: "score", Type: FieldTypeNumber, Operator: OpGreaterThan, Value: 5},
	}

	m := NewMatcher(set, testNow, map[int]bool{0: true})
	got := m.Filter([]Record{{"score": 3}, {"score": 9}})
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0]["score"])
}
