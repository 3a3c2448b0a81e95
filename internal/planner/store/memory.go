package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// MemoryRepository keeps records in-process. It backs tests and the
// "memory" store driver, and mirrors the optimistic revision semantics of the
// real drivers.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: map[string][]byte{}}
}

func (m *MemoryRepository) Find(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, ok := m.records[id]
	if !ok {
		return nil, notFoundErr()
	}
	return decodeRecord(raw)
}

func (m *MemoryRepository) List(_ context.Context) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Record, 0, len(m.records))
	for _, raw := range m.records {
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) Create(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	m.records[rec.ID] = raw
	return nil
}

func (m *MemoryRepository) Update(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.records[rec.ID]
	if !ok {
		return notFoundErr()
	}
	stored, err := decodeRecord(raw)
	if err != nil {
		return err
	}
	if stored.Revision != rec.Revision {
		return conflictErr()
	}

	rec.Revision++
	next, err := json.Marshal(rec)
	if err != nil {
		rec.Revision--
		return err
	}
	m.records[rec.ID] = next
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return notFoundErr()
	}
	delete(m.records, id)
	return nil
}

func decodeRecord(raw []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

var _ Repository = (*MemoryRepository)(nil)
