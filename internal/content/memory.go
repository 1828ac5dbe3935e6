package content

import (
	"context"
	"sync"
	"time"

	"github.com/ovalline/pitwall/internal/source"
)

type recordKey struct {
	src source.Type
	id  string
}

// MemoryRepository keeps records in a map with the same upsert semantics as
// the Mongo repository. Used by unit tests and local runs without a database.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[recordKey]*Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[recordKey]*Record)}
}

func (m *MemoryRepository) Upsert(ctx context.Context, rec *Record) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	rec.LastSyncedAt = now

	key := recordKey{src: rec.Source, id: rec.ExternalID}
	prev, ok := m.store[key]
	if !ok {
		rec.FirstSyncedAt = now
		stored := *rec
		m.store[key] = &stored
		return OutcomeInserted, nil
	}

	rec.FirstSyncedAt = prev.FirstSyncedAt
	outcome := OutcomeUpdated
	if sameContent(prev, rec) {
		outcome = OutcomeUnchanged
	}
	stored := *rec
	m.store[key] = &stored
	return outcome, nil
}

// Get returns a copy of the stored record, or nil when absent. Test helper.
func (m *MemoryRepository) Get(src source.Type, externalID string) *Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.store[recordKey{src: src, id: externalID}]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

// Len reports the number of stored records. Test helper.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}
