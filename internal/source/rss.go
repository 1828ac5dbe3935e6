package source

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"
)

const feedUserAgent = "pitwall/1.0 (+https://github.com/ovalline/pitwall)"

// Feed fetches entries from an RSS/Atom feed, for blogs the team does not
// control the platform of.
type Feed struct {
	name     string
	url      string
	maxItems int
	client   *http.Client
	parser   *gofeed.Parser
}

func NewFeed(name, feedURL string, maxItems int) *Feed {
	if maxItems <= 0 {
		maxItems = 50
	}
	return &Feed{
		name:     name,
		url:      feedURL,
		maxItems: maxItems,
		client:   &http.Client{Timeout: 15 * time.Second},
		parser:   gofeed.NewParser(),
	}
}

func (f *Feed) Name() string { return f.name }

func (f *Feed) Type() Type { return TypeBlog }

// Fetch returns the feed's entries, most recent first, capped at maxItems.
// Entries without any usable identifier keep an empty ExternalID; the
// normalizer skips and counts those.
func (f *Feed) Fetch(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &FetchError{Source: f.name, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", feedUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: f.name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Source: f.name, Err: fmt.Errorf("feed returned %d %s", resp.StatusCode, resp.Status)}
	}

	feed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, &FetchError{Source: f.name, Err: fmt.Errorf("parse feed: %w", err)}
	}

	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		items = append(items, f.convert(entry))
	}

	// most recent first; entries without timestamps sink to the end
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Published.After(items[j].Published)
	})
	if len(items) > f.maxItems {
		items = items[:f.maxItems]
	}
	return items, nil
}

func (f *Feed) convert(entry *gofeed.Item) Item {
	id := entry.GUID
	if id == "" {
		id = entry.Link
	}

	var published time.Time
	if entry.PublishedParsed != nil {
		published = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		published = *entry.UpdatedParsed
	}

	author := ""
	if entry.Author != nil {
		author = entry.Author.Name
	}

	return Item{
		ExternalID:  id,
		Source:      TypeBlog,
		SourceName:  f.name,
		Title:       entry.Title,
		Description: entry.Description,
		URL:         entry.Link,
		Author:      author,
		Published:   published,
	}
}
