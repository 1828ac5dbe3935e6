// Package content holds the canonical record schema every ingested item is
// normalized into, plus its persistence.
package content

import (
	"context"
	"time"

	"github.com/ovalline/pitwall/internal/source"
)

// Record is one synced item in its canonical form. Records are keyed by
// (Source, ExternalID); re-ingesting the same item must never produce a
// second document.
type Record struct {
	Source     source.Type `bson:"source" json:"source"`
	ExternalID string      `bson:"externalId" json:"externalId"`

	Title  string `bson:"title" json:"title"`
	URL    string `bson:"url" json:"url"`
	Author string `bson:"author,omitempty" json:"author,omitempty"`

	PublishedAt time.Time `bson:"publishedAt" json:"publishedAt"`

	// FirstSyncedAt is set once when the record is first written;
	// LastSyncedAt advances on every sync, changed content or not.
	FirstSyncedAt time.Time `bson:"firstSyncedAt" json:"firstSyncedAt"`
	LastSyncedAt  time.Time `bson:"lastSyncedAt" json:"lastSyncedAt"`
}

// Outcome reports what an upsert did to the stored record.
type Outcome int

const (
	// OutcomeInserted means no record existed for the key.
	OutcomeInserted Outcome = iota
	// OutcomeUpdated means a record existed and its content fields changed.
	OutcomeUpdated
	// OutcomeUnchanged means a record existed and only LastSyncedAt moved.
	OutcomeUnchanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	}
	return "unknown"
}

// Repository persists canonical records.
type Repository interface {
	// Upsert writes rec under its (Source, ExternalID) key and reports
	// whether that inserted a new record, changed an existing one, or
	// found it already up to date. The write stamps FirstSyncedAt /
	// LastSyncedAt on rec.
	Upsert(ctx context.Context, rec *Record) (Outcome, error)
}

// sameContent compares the fields callers control; sync timestamps are
// excluded. Times are compared at millisecond precision because that is all
// Mongo stores.
func sameContent(a, b *Record) bool {
	return a.Title == b.Title &&
		a.URL == b.URL &&
		a.Author == b.Author &&
		a.PublishedAt.Truncate(time.Millisecond).Equal(b.PublishedAt.Truncate(time.Millisecond))
}
