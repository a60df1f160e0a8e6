package testutil

import (
	"time"

	"github.com/crawlpulse/datafilters/pkg/backend"
	"github.com/crawlpulse/datafilters/pkg/catalog"
	"github.com/crawlpulse/datafilters/pkg/filter"
)

// Now is the fixed evaluation clock the fixtures are written against
//
//nolint:gochecknoglobals // test clock
var Now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

// Clock returns Now, for services that take a clock function
func Clock() time.Time {
	return Now
}

// PostFields returns the catalog of the posts dataset
func PostFields() filter.Fields {
	return catalog.Builtin()["posts"]
}

// Posts returns a fresh copy of the post fixtures. Scores, comment counts and
// dates are chosen so that every built-in preset selects a different subset.
func Posts() []filter.Record {
	return []filter.Record{
		{"id": "p1", "title": "Go 1.25 released", "subreddit": "golang", "author": "gopher", "url": "https://go.dev/blog/go1.25", "score": 450, "num_comments": 120, "upvote_ratio": 0.97, "created_at": "2026-10-15T09:00:00Z", "is_self": false, "is_nsfw": false},
		{"id": "p2", "title": "Ask: best ORM?", "subreddit": "golang", "author": "newbie", "url": "https://www.reddit.com/r/golang/p2", "score": 12, "num_comments": 40, "upvote_ratio": 0.61, "created_at": "2026-10-14T12:00:00Z", "is_self": true, "is_nsfw": false},
		{"id": "p3", "title": "Rust vs Go", "subreddit": "programming", "author": "crab", "url": "https://example.com/rust-go", "score": 1200, "num_comments": 800, "upvote_ratio": 0.74, "created_at": "2026-10-10T12:00:00Z", "is_self": false, "is_nsfw": false},
		{"id": "p4", "title": "New GPU benchmarks", "subreddit": "hardware", "author": "benchmarker", "url": "https://www.anandtech.com/gpu", "score": 450, "num_comments": 35, "upvote_ratio": 0.93, "created_at": "2026-10-16T06:00:00Z", "is_self": false, "is_nsfw": false},
		{"id": "p5", "title": "weekly thread", "subreddit": "programming", "author": "AutoModerator", "url": "", "score": 3, "num_comments": 0, "upvote_ratio": 0.5, "created_at": "2026-09-30T12:00:00Z", "is_self": true, "is_nsfw": false},
		{"id": "p6", "title": "Spicy memes", "subreddit": "memes", "author": "lurker", "url": "https://i.imgur.com/x.png", "score": 101, "num_comments": 64, "upvote_ratio": 0.88, "created_at": "2026-10-12T18:30:00Z", "is_self": false, "is_nsfw": true},
		{"id": "p7", "title": "Technology roundup", "subreddit": "technology", "author": "editor", "url": "https://news.example.org/roundup", "score": 100, "num_comments": 55, "upvote_ratio": 0.9, "created_at": "2026-10-13T08:00:00Z", "is_self": false, "is_nsfw": false},
	}
}

// Dataset returns an in-memory source holding the posts fixtures
func Dataset() *backend.Memory {
	return &backend.Memory{
		Datasets: map[string]backend.Dataset{
			"posts": {Fields: PostFields(), Records: Posts()},
		},
	}
}

// IDs returns the "id" field of each row
func IDs(rows []filter.Record) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i], _ = r["id"].(string)
	}
	return out
}
