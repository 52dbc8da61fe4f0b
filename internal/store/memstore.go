package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"radar/internal/core"
)

// MemStore is an in-memory Store used by tests and dry runs. It provides the
// same first-write-wins semantics as the SQLite store but no durability.
type MemStore struct {
	mu      sync.Mutex
	records map[string]core.DedupRecord
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory dedup store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]core.DedupRecord)}
}

// HasAlerted reports whether the fingerprint has an alerted record.
func (m *MemStore) HasAlerted(fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[fingerprint]
	return ok && record.AlertedAt != nil, nil
}

// MarkAlerted stores the record unless the fingerprint already exists.
func (m *MemStore) MarkAlerted(record core.DedupRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[record.Fingerprint]; exists {
		return false, nil
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.FirstSeenAt.IsZero() {
		record.FirstSeenAt = time.Now().UTC()
	}
	if record.AlertedAt == nil {
		now := time.Now().UTC()
		record.AlertedAt = &now
	}
	m.records[record.Fingerprint] = record
	return true, nil
}

// Record returns the stored record for a fingerprint, or nil.
func (m *MemStore) Record(fingerprint string) (*core.DedupRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record, ok := m.records[fingerprint]; ok {
		return &record, nil
	}
	return nil, nil
}

// List returns up to limit records, most recently alerted first.
func (m *MemStore) List(limit int) ([]core.DedupRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]core.DedupRecord, 0, len(m.records))
	for _, record := range m.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		var ti, tj time.Time
		if records[i].AlertedAt != nil {
			ti = *records[i].AlertedAt
		}
		if records[j].AlertedAt != nil {
			tj = *records[j].AlertedAt
		}
		return ti.After(tj)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Stats summarizes the record set.
func (m *MemStore) Stats() (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{ByCategory: make(map[string]int)}
	for _, record := range m.records {
		stats.ByCategory[string(record.Category)]++
		stats.Total++
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
