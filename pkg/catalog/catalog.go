// Package catalog provides the per-dataset field catalogs that drive which
// fields and operators are available to conditions and transformations.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/crawlpulse/datafilters/pkg/filter"
)

var (
	// ErrUnknownDataset is returned when a dataset type has no catalog
	ErrUnknownDataset = errors.New("unknown dataset type")
	// ErrEmptyCatalog is returned when a dataset type resolves to no fields
	ErrEmptyCatalog = errors.New("field catalog is empty")
	// ErrDatasetRequired is returned when no dataset type is given
	ErrDatasetRequired = errors.New("dataset type is required")
)

// Catalog exposes the field list of a dataset type
type Catalog interface {
	GetFields(ctx context.Context, datasetType string) (filter.Fields, error)
}

// FetchError wraps a failed catalog or preview fetch from the backend. There is
// no retry; callers re-trigger on the next edit.
type FetchError struct {
	DatasetType string
	Err         error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.DatasetType, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Static is an in-memory catalog keyed by dataset type
type Static map[string]filter.Fields

// GetFields returns a copy of the field list for datasetType
func (s Static) GetFields(_ context.Context, datasetType string) (filter.Fields, error) {
	if datasetType == "" {
		return nil, ErrDatasetRequired
	}

	fields, ok := s[datasetType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, datasetType)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCatalog, datasetType)
	}

	out := make(filter.Fields, len(fields))
	copy(out, fields)
	return out, nil
}

// DatasetTypes returns the known dataset types sorted by name
func (s Static) DatasetTypes() []string {
	types := make([]string, 0, len(s))
	for t := range s {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Builtin returns the catalogs of the crawler's own dataset types
func Builtin() Static {
	return Static{
		"posts": {
			{Name: "id", Label: "ID", Type: filter.FieldTypeText},
			{Name: "title", Label: "Title", Type: filter.FieldTypeText},
			{Name: "subreddit", Label: "Subreddit", Type: filter.FieldTypeText},
			{Name: "author", Label: "Author", Type: filter.FieldTypeText},
			{Name: "url", Label: "URL", Type: filter.FieldTypeText},
			{Name: "score", Label: "Score", Type: filter.FieldTypeNumber},
			{Name: "num_comments", Label: "Comments", Type: filter.FieldTypeNumber},
			{Name: "upvote_ratio", Label: "Upvote Ratio", Type: filter.FieldTypeNumber},
			{Name: "created_at", Label: "Created", Type: filter.FieldTypeDate},
			{Name: "scraped_at", Label: "Scraped", Type: filter.FieldTypeDate},
			{Name: "is_self", Label: "Self Post", Type: filter.FieldTypeBoolean},
			{Name: "is_nsfw", Label: "NSFW", Type: filter.FieldTypeBoolean},
		},
		"comments": {
			{Name: "id", Label: "ID", Type: filter.FieldTypeText},
			{Name: "post_id", Label: "Post ID", Type: filter.FieldTypeText},
			{Name: "author", Label: "Author", Type: filter.FieldTypeText},
			{Name: "body", Label: "Body", Type: filter.FieldTypeText},
			{Name: "subreddit", Label: "Subreddit", Type: filter.FieldTypeText},
			{Name: "score", Label: "Score", Type: filter.FieldTypeNumber},
			{Name: "depth", Label: "Depth", Type: filter.FieldTypeNumber},
			{Name: "created_at", Label: "Created", Type: filter.FieldTypeDate},
			{Name: "is_submitter", Label: "By OP", Type: filter.FieldTypeBoolean},
		},
		"subreddits": {
			{Name: "name", Label: "Name", Type: filter.FieldTypeText},
			{Name: "description", Label: "Description", Type: filter.FieldTypeText},
			{Name: "subscribers", Label: "Subscribers", Type: filter.FieldTypeNumber},
			{Name: "active_users", Label: "Active Users", Type: filter.FieldTypeNumber},
			{Name: "created_at", Label: "Created", Type: filter.FieldTypeDate},
			{Name: "last_scraped", Label: "Last Scraped", Type: filter.FieldTypeDate},
			{Name: "is_nsfw", Label: "NSFW", Type: filter.FieldTypeBoolean},
		},
	}
}
