// Package source fetches raw items from the external platforms the team
// publishes on: the YouTube channel and the blog's RSS feed.
package source

import (
	"context"
	"fmt"
	"time"
)

// Type classifies where an item came from.
type Type string

const (
	TypeVideo Type = "video"
	TypeBlog  Type = "blog"
)

// Item is one raw record as returned by an external source, before
// normalization.
type Item struct {
	// ExternalID is the platform's identifier for the item (video ID,
	// feed entry GUID). Empty when the platform returned a degenerate
	// entry.
	ExternalID string

	Source     Type
	SourceName string

	Title       string
	Description string
	URL         string
	Author      string

	// Published is zero when the platform did not report a timestamp.
	Published time.Time
}

// Fetcher pulls recent items from one configured source.
type Fetcher interface {
	// Name is the registry name the fetcher was configured under
	// (route parameter of POST /ingest/:source).
	Name() string
	Type() Type
	Fetch(ctx context.Context) ([]Item, error)
}

// FetchError reports a failed call to an external platform. Handlers map it
// to 502 to distinguish upstream failures from our own.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
