package pipeline

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

var postFields = filter.Fields{
	{Name: "id", Label: "ID", Type: filter.FieldTypeText},
	{Name: "title", Label: "Title", Type: filter.FieldTypeText},
	{Name: "subreddit", Label: "Subreddit", Type: filter.FieldTypeText},
	{Name: "score", Label: "Score", Type: filter.FieldTypeNumber},
	{Name: "num_comments", Label: "Comments", Type: filter.FieldTypeNumber},
	{Name: "created_at", Label: "Created", Type: filter.FieldTypeDate},
	{Name: "url", Label: "URL", Type: filter.FieldTypeText},
	{Name: "is_self", Label: "Self Post", Type: filter.FieldTypeBoolean},
}

func posts() []filter.Record {
	return []filter.Record{
		{"id": "p1", "title": "Go 1.25 released", "subreddit": "golang", "score": 450, "num_comments": 120, "created_at": "2026-10-15T09:00:00Z", "url": "https://go.dev/blog/go1.25", "is_self": false},
		{"id": "p2", "title": "Ask: best ORM?", "subreddit": "golang", "score": 12, "num_comments": 40, "created_at": "2026-10-14T12:00:00Z", "url": "https://www.reddit.com/r/golang/p2", "is_self": true},
		{"id": "p3", "title": "Rust vs Go", "subreddit": "programming", "score": 1200, "num_comments": 800, "created_at": "2026-10-10T12:00:00Z", "url": "https://example.com/rust-go", "is_self": false},
		{"id": "p4", "title": "New GPU benchmarks", "subreddit": "hardware", "score": 450, "num_comments": 35, "created_at": "2026-10-16T06:00:00Z", "url": "https://www.anandtech.com/gpu", "is_self": false},
		{"id": "p5", "title": "weekly thread", "subreddit": "programming", "score": 3, "num_comments": 0, "created_at": "2026-09-30T12:00:00Z", "url": "", "is_self": true},
	}
}

func ids(rows []filter.Record) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i], _ = r["id"].(string)
	}
	return out
}

func run(t *testing.T, p Pipeline, rows []filter.Record) (Frame, *filter.WarningSet) {
	t.Helper()
	warnings := filter.NewWarningSet()
	frame := NewRegistry().Run(p, rows, RunOptions{Fields: postFields, Now: testNow, Warnings: warnings})
	return frame, warnings
}

func TestSort_StableNumeric(t *testing.T) {
	frame, _ := run(t, Pipeline{NewSort("score", Descending)}, posts())
	assert.Equal(t, []string{"p3", "p1", "p4", "p2", "p5"}, ids(frame.Rows))

	frame, _ = run(t, Pipeline{NewSort("score", Ascending)}, posts())
	assert.Equal(t, []string{"p5", "p2", "p1", "p4", "p3"}, ids(frame.Rows))
}

func TestSort_DefaultsToAscending(t *testing.T) {
	frame, _ := run(t, Pipeline{NewSort("score", "")}, posts())
	assert.Equal(t, []string{"p5", "p2", "p1", "p4", "p3"}, ids(frame.Rows))
}

func TestSort_Chronological(t *testing.T) {
	frame, _ := run(t, Pipeline{NewSort("created_at", Descending)}, posts())
	assert.Equal(t, []string{"p4", "p1", "p2", "p3", "p5"}, ids(frame.Rows))
}

func TestSort_TextIsCaseInsensitive(t *testing.T) {
	frame, _ := run(t, Pipeline{NewSort("title", Ascending)}, posts())
	assert.Equal(t, []string{"p2", "p1", "p4", "p3", "p5"}, ids(frame.Rows))
}

func TestSort_MissingValuesLast(t *testing.T) {
	rows := posts()
	delete(rows[2], "score")
	rows[0]["score"] = nil

	for _, dir := range []Direction{Ascending, Descending} {
		frame, _ := run(t, Pipeline{NewSort("score", dir)}, rows)
		got := ids(frame.Rows)
		assert.ElementsMatch(t, []string{"p1", "p3"}, got[3:], dir)
	}
}

func TestGroup_FirstAppearanceOrder(t *testing.T) {
	frame, _ := run(t, Pipeline{NewGroup("subreddit")}, posts())

	require.True(t, frame.Grouped())
	require.Len(t, frame.Buckets, 3)
	assert.Equal(t, "subreddit", frame.GroupField)
	assert.Equal(t, "golang", frame.Buckets[0].Key)
	assert.Equal(t, []string{"p1", "p2"}, ids(frame.Buckets[0].Rows))
	assert.Equal(t, "programming", frame.Buckets[1].Key)
	assert.Equal(t, []string{"p3", "p5"}, ids(frame.Buckets[1].Rows))
	assert.Equal(t, "hardware", frame.Buckets[2].Key)
	assert.Equal(t, 5, frame.Len())
	assert.Equal(t, []string{"p1", "p2", "p3", "p5", "p4"}, ids(frame.Flatten()))
}

func TestGroupCount_OneRowPerDistinctValue(t *testing.T) {
	frame, _ := run(t, Pipeline{NewGroup("subreddit"), NewAggregate("", AggCount)}, posts())

	want := []filter.Record{
		{"subreddit": "golang", "count": 2},
		{"subreddit": "programming", "count": 2},
		{"subreddit": "hardware", "count": 1},
	}
	if diff := cmp.Diff(want, frame.Rows); diff != "" {
		t.Errorf("grouped count mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, frame.Grouped())
}

func TestGroup_MissingValuesShareABucket(t *testing.T) {
	rows := posts()
	delete(rows[0], "subreddit")
	delete(rows[3], "subreddit")

	frame, _ := run(t, Pipeline{NewGroup("subreddit"), NewAggregate("", AggCount)}, rows)

	want := []filter.Record{
		{"subreddit": nil, "count": 2},
		{"subreddit": "golang", "count": 1},
		{"subreddit": "programming", "count": 2},
	}
	if diff := cmp.Diff(want, frame.Rows); diff != "" {
		t.Errorf("grouped count mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_PerGroup(t *testing.T) {
	frame, _ := run(t, Pipeline{NewGroup("subreddit"), NewAggregate("score", AggSum)}, posts())

	want := []filter.Record{
		{"subreddit": "golang", "sum_score": 462.0},
		{"subreddit": "programming", "sum_score": 1203.0},
		{"subreddit": "hardware", "sum_score": 450.0},
	}
	if diff := cmp.Diff(want, frame.Rows); diff != "" {
		t.Errorf("grouped sum mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_WholeSet(t *testing.T) {
	tests := []struct {
		op   AggregateOp
		col  string
		want any
	}{
		{op: AggSum, col: "sum_score", want: 2115.0},
		{op: AggAvg, col: "avg_score", want: 423.0},
		{op: AggCount, col: "count", want: 5},
		{op: AggMin, col: "min_score", want: 3},
		{op: AggMax, col: "max_score", want: 1200},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			frame, _ := run(t, Pipeline{NewAggregate("score", tt.op)}, posts())
			require.Len(t, frame.Rows, 1)
			assert.Equal(t, filter.Record{tt.col: tt.want}, frame.Rows[0])
		})
	}
}

func TestAggregate_MinMaxDates(t *testing.T) {
	frame, _ := run(t, Pipeline{NewAggregate("created_at", AggMin)}, posts())
	assert.Equal(t, "2026-09-30T12:00:00Z", frame.Rows[0]["min_created_at"])

	frame, _ = run(t, Pipeline{NewAggregate("created_at", AggMax)}, posts())
	assert.Equal(t, "2026-10-16T06:00:00Z", frame.Rows[0]["max_created_at"])
}

func TestAggregate_NotDirectlyAfterGroupReducesWholeSet(t *testing.T) {
	frame, _ := run(t, Pipeline{
		NewGroup("subreddit"),
		NewSort("score", Descending),
		NewAggregate("", AggCount),
	}, posts())

	assert.Equal(t, []filter.Record{{"count": 5}}, frame.Rows)
}

func TestAggregate_AvgOfNothingIsNil(t *testing.T) {
	frame, _ := run(t, Pipeline{NewAggregate("score", AggAvg)}, nil)
	assert.Equal(t, []filter.Record{{"avg_score": nil}}, frame.Rows)
}

func TestAggregate_NonNumericValuesWarn(t *testing.T) {
	rows := posts()
	rows[1]["score"] = "lots"

	frame, warnings := run(t, Pipeline{NewAggregate("score", AggSum)}, rows)
	assert.Equal(t, 2103.0, frame.Rows[0]["sum_score"])
	require.Equal(t, 1, warnings.Len())
	assert.Equal(t, filter.SourceTransformation, warnings.List()[0].Source)
}

func TestAggregate_NonFiniteValuesWarn(t *testing.T) {
	rows := posts()
	rows[1]["score"] = "NaN"
	rows[4]["score"] = "Inf"

	frame, warnings := run(t, Pipeline{NewAggregate("score", AggSum)}, rows)
	assert.Equal(t, 2100.0, frame.Rows[0]["sum_score"])
	require.Equal(t, 1, warnings.Len())
	assert.Equal(t, 2, warnings.List()[0].Rows)
	assert.Equal(t, filter.ErrNotNumeric.Error(), warnings.List()[0].Message)

	frame, _ = run(t, Pipeline{NewAggregate("score", AggAvg)}, rows)
	assert.InDelta(t, 700.0, frame.Rows[0]["avg_score"], 1e-9)
}

func TestAggregate_AfterFormatRunsOverFormattedValues(t *testing.T) {
	frame, warnings := run(t, Pipeline{
		NewFormat("score", "number"),
		NewGroup("subreddit"),
		NewAggregate("score", AggSum),
	}, posts())

	want := []filter.Record{
		{"subreddit": "golang", "sum_score": 462.0},
		{"subreddit": "programming", "sum_score": 3.0},
		{"subreddit": "hardware", "sum_score": 450.0},
	}
	if diff := cmp.Diff(want, frame.Rows); diff != "" {
		t.Errorf("aggregate rows mismatch (-want +got):\n%s", diff)
	}

	// "1,200" no longer reads as a number
	require.Equal(t, 1, warnings.Len())
	w := warnings.List()[0]
	assert.Equal(t, 2, w.Index)
	assert.Equal(t, 1, w.Rows)
}

func TestSort_WithinGroups(t *testing.T) {
	frame, _ := run(t, Pipeline{NewGroup("subreddit"), NewSort("score", Ascending)}, posts())

	require.True(t, frame.Grouped())
	assert.Equal(t, []string{"p2", "p1"}, ids(frame.Buckets[0].Rows))
	assert.Equal(t, []string{"p5", "p3"}, ids(frame.Buckets[1].Rows))
}

func TestCalculate_NamedExpressions(t *testing.T) {
	frame, warnings := run(t, Pipeline{
		NewCalculate("title_len", "title_length"),
		NewCalculate("words", "word_count"),
		NewCalculate("engagement", "engagement_ratio"),
		NewCalculate("age", "age_days"),
		NewCalculate("popular", "is_popular"),
		NewCalculate("site", "domain"),
	}, posts())

	rows := frame.Rows
	assert.Equal(t, 16, rows[0]["title_len"])
	assert.Equal(t, 3, rows[0]["words"])
	assert.InDelta(t, 0.2667, rows[0]["engagement"], 1e-9)
	assert.Equal(t, 1, rows[0]["age"])
	assert.Equal(t, false, rows[0]["popular"])
	assert.Equal(t, "go.dev", rows[0]["site"])

	assert.Equal(t, "reddit.com", rows[1]["site"])
	assert.Equal(t, true, rows[2]["popular"])

	// p5 has no url host
	assert.Nil(t, rows[4]["site"])
	assert.Contains(t, rows[4], "site")
	require.Equal(t, 1, warnings.Len())
	w := warnings.List()[0]
	assert.Equal(t, 5, w.Index)
	assert.Equal(t, "site", w.Field)
}

func TestCalculate_NonFiniteInputWarns(t *testing.T) {
	rows := posts()
	rows[0]["score"] = "NaN"
	rows[1]["score"] = "Infinity"

	frame, warnings := run(t, Pipeline{NewCalculate("engagement", "engagement_ratio")}, rows)
	assert.Nil(t, frame.Rows[0]["engagement"])
	assert.Nil(t, frame.Rows[1]["engagement"])
	assert.InDelta(t, 0.6667, frame.Rows[2]["engagement"], 1e-9)
	require.Equal(t, 1, warnings.Len())
	assert.Equal(t, 2, warnings.List()[0].Rows)
}

func TestCalculate_CallSyntaxOverridesInputs(t *testing.T) {
	frame, _ := run(t, Pipeline{NewCalculate("sub_words", "word_count(subreddit)")}, posts())
	assert.Equal(t, 1, frame.Rows[0]["sub_words"])
}

func TestCalculate_Template(t *testing.T) {
	frame, _ := run(t, Pipeline{NewCalculate("slug", `{{ .subreddit | upper }}-{{ .id }}`)}, posts())
	assert.Equal(t, "GOLANG-p1", frame.Rows[0]["slug"])
}

func TestCalculate_MissingInputWarns(t *testing.T) {
	rows := posts()
	delete(rows[0], "score")
	delete(rows[1], "score")

	frame, warnings := run(t, Pipeline{NewCalculate("popular", "is_popular")}, rows)
	assert.Nil(t, frame.Rows[0]["popular"])
	require.Equal(t, 1, warnings.Len())
	assert.Equal(t, 2, warnings.List()[0].Rows)
}

func TestCalculate_DivisionByZeroWarns(t *testing.T) {
	frame, warnings := run(t, Pipeline{NewCalculate("share", "comment_ratio")}, []filter.Record{
		{"id": "z", "score": 0, "num_comments": 0},
	})
	assert.Nil(t, frame.Rows[0]["share"])
	require.Equal(t, 1, warnings.Len())
	assert.Contains(t, warnings.List()[0].Message, ErrDivisionByZero.Error())
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	rows := posts()
	_, _ = run(t, Pipeline{
		NewCalculate("site", "domain"),
		NewFormat("score", "number"),
		NewSort("score", Descending),
	}, rows)

	assert.Equal(t, posts(), rows)
}

func TestRun_SkipsListedStages(t *testing.T) {
	reg := NewRegistry()
	frame := reg.Run(Pipeline{
		NewSort("score", Descending),
		NewGroup("subreddit"),
	}, posts(), RunOptions{Fields: postFields, Now: testNow, Skip: map[int]bool{1: true}})

	assert.False(t, frame.Grouped())
	assert.Equal(t, []string{"p3", "p1", "p4", "p2", "p5"}, ids(frame.Rows))
}

func TestRun_FormatThenSortSeesText(t *testing.T) {
	frame, _ := run(t, Pipeline{
		NewFormat("score", "number"),
		NewSort("score", Ascending),
	}, posts())

	// "1,200" < "12" < "3" < "450" lexicographically
	assert.Equal(t, []string{"p3", "p2", "p5", "p1", "p4"}, ids(frame.Rows))
}

func TestRegistry_Handlers(t *testing.T) {
	reg := NewRegistry()
	for _, k := range Kinds() {
		h, err := reg.Handler(k)
		require.NoError(t, err)
		assert.Equal(t, k, h.Kind())
	}

	_, err := reg.Handler("pivot")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
