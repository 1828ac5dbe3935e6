package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ovalline/pitwall/internal/content"
	"github.com/ovalline/pitwall/internal/source"
)

// ErrMissingExternalID marks an item the platform returned without a usable
// identifier. Such items are skipped and counted, never fatal.
var ErrMissingExternalID = errors.New("item has no external id")

// NormalizeItem maps a raw source item onto the canonical record schema.
// Items without an external ID are rejected; items without a published
// timestamp get now (in UTC) so every record carries a usable time.
func NormalizeItem(it source.Item, now time.Time) (*content.Record, error) {
	id := strings.TrimSpace(it.ExternalID)
	if id == "" {
		return nil, fmt.Errorf("%w: %q", ErrMissingExternalID, it.Title)
	}

	published := it.Published
	if published.IsZero() {
		published = now
	}

	return &content.Record{
		Source:      it.Source,
		ExternalID:  id,
		Title:       strings.TrimSpace(it.Title),
		URL:         strings.TrimSpace(it.URL),
		Author:      strings.TrimSpace(it.Author),
		PublishedAt: published.UTC(),
	}, nil
}
