package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

type countingSource struct {
	calls  int
	fields filter.Fields
	err    error
}

func (c *countingSource) GetFields(_ context.Context, _ string) (filter.Fields, error) {
	c.calls++
	return c.fields, c.err
}

func newTestLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestService_ReadThrough(t *testing.T) {
	_, client := setupTestRedis(t)
	source := &countingSource{fields: Builtin()["posts"]}
	svc := NewService(newTestLogger(), source, NewCache(client, "c:"), &Config{})
	ctx := context.Background()

	first, err := svc.GetFields(ctx, "posts")
	require.NoError(t, err)
	second, err := svc.GetFields(ctx, "posts")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls)

	require.NoError(t, svc.Invalidate(ctx, "posts"))
	_, err = svc.GetFields(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestService_WithoutCache(t *testing.T) {
	source := &countingSource{fields: Builtin()["posts"]}
	svc := NewService(newTestLogger(), source, nil, &Config{})

	_, err := svc.GetFields(context.Background(), "posts")
	require.NoError(t, err)
	_, err = svc.GetFields(context.Background(), "posts")
	require.NoError(t, err)

	assert.Equal(t, 2, source.calls)
	assert.NoError(t, svc.Invalidate(context.Background(), "posts"))
}

func TestService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("transport failure becomes FetchError", func(t *testing.T) {
		svc := NewService(newTestLogger(), &countingSource{err: errors.New("connection refused")}, nil, &Config{})

		_, err := svc.GetFields(ctx, "posts")
		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, "posts", fetchErr.DatasetType)
	})

	t.Run("unknown dataset passes through", func(t *testing.T) {
		svc := NewService(newTestLogger(), Builtin(), nil, &Config{})

		_, err := svc.GetFields(ctx, "videos")
		assert.ErrorIs(t, err, ErrUnknownDataset)
		var fetchErr *FetchError
		assert.False(t, errors.As(err, &fetchErr))
	})

	t.Run("empty catalog", func(t *testing.T) {
		svc := NewService(newTestLogger(), &countingSource{}, nil, &Config{})

		_, err := svc.GetFields(ctx, "posts")
		assert.ErrorIs(t, err, ErrEmptyCatalog)
	})

	t.Run("dataset required", func(t *testing.T) {
		svc := NewService(newTestLogger(), Builtin(), nil, &Config{})

		_, err := svc.GetFields(ctx, "")
		assert.ErrorIs(t, err, ErrDatasetRequired)
	})
}

func TestStatic_GetFieldsReturnsCopy(t *testing.T) {
	cat := Builtin()
	fields, err := cat.GetFields(context.Background(), "posts")
	require.NoError(t, err)

	fields[0].Name = "changed"
	again, err := cat.GetFields(context.Background(), "posts")
	require.NoError(t, err)
	assert.Equal(t, "id", again[0].Name)

	assert.Equal(t, []string{"comments", "posts", "subreddits"}, cat.DatasetTypes())
}
