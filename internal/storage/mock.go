package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/lorekeep/motif-engine/pkg/motif"
)

// MockRepository is an in-memory Repository implementation for testing
type MockRepository struct {
	mu        sync.RWMutex
	motifs    map[string]*motif.Motif
	sequences map[string]*motif.Sequence
	entities  map[string]*motif.EntityState
	worldlog  []motif.WorldEvent // newest first
	regions   map[string]struct{}
	pingError error
	saveError error
}

// Ensure MockRepository implements Repository interface
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{
		motifs:    make(map[string]*motif.Motif),
		sequences: make(map[string]*motif.Sequence),
		entities:  make(map[string]*motif.EntityState),
		regions:   make(map[string]struct{}),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockRepository) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on mutating calls
func (m *MockRepository) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// Ping mocks a connection check
func (m *MockRepository) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks closing the store
func (m *MockRepository) Close() error {
	return nil
}

// WaitForConnection mocks connection startup
func (m *MockRepository) WaitForConnection(ctx context.Context) error {
	return m.Ping(ctx)
}

// SaveMotif stores a motif in memory
func (m *MockRepository) SaveMotif(ctx context.Context, mt *motif.Motif) error {
	if mt == nil {
		return errors.New("motif cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	cp := *mt
	m.motifs[mt.ID] = &cp
	if region := mt.RegionID(); region != "" {
		m.regions[region] = struct{}{}
	}
	return nil
}

// GetMotif returns a stored motif, or nil when absent
func (m *MockRepository) GetMotif(ctx context.Context, id string) (*motif.Motif, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mt, exists := m.motifs[id]
	if !exists {
		return nil, nil // Return nil for not found
	}
	cp := *mt
	return &cp, nil
}

// DeleteMotif removes a motif, reporting whether it existed
func (m *MockRepository) DeleteMotif(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return false, m.saveError
	}
	_, exists := m.motifs[id]
	delete(m.motifs, id)
	return exists, nil
}

// ListMotifs returns all stored motifs
func (m *MockRepository) ListMotifs(ctx context.Context) ([]*motif.Motif, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*motif.Motif, 0, len(m.motifs))
	for _, mt := range m.motifs {
		cp := *mt
		result = append(result, &cp)
	}
	return result, nil
}

// SaveSequence stores a sequence record
func (m *MockRepository) SaveSequence(ctx context.Context, seq *motif.Sequence) error {
	if seq == nil {
		return errors.New("sequence cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	cp := *seq
	m.sequences[seq.ID] = &cp
	return nil
}

// GetSequence returns a stored sequence, or nil when absent
func (m *MockRepository) GetSequence(ctx context.Context, id string) (*motif.Sequence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seq, exists := m.sequences[id]
	if !exists {
		return nil, nil
	}
	cp := *seq
	return &cp, nil
}

// ListSequences returns all stored sequences
func (m *MockRepository) ListSequences(ctx context.Context) ([]*motif.Sequence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*motif.Sequence, 0, len(m.sequences))
	for _, seq := range m.sequences {
		cp := *seq
		result = append(result, &cp)
	}
	return result, nil
}

// GetEntityState returns a stored entity state, or nil when absent
func (m *MockRepository) GetEntityState(ctx context.Context, entityID string) (*motif.EntityState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, exists := m.entities[entityID]
	if !exists {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

// SaveEntityState stores an entity state
func (m *MockRepository) SaveEntityState(ctx context.Context, entityID string, st *motif.EntityState) error {
	if st == nil {
		return errors.New("entity state cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	cp := *st
	m.entities[entityID] = &cp
	return nil
}

// AppendWorldEvent prepends an event to the in-memory world log
func (m *MockRepository) AppendWorldEvent(ctx context.Context, ev motif.WorldEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.worldlog = append([]motif.WorldEvent{ev}, m.worldlog...)
	return nil
}

// WorldEvents returns a newest-first page of the world log
func (m *MockRepository) WorldEvents(ctx context.Context, limit, offset int) ([]motif.WorldEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 10
	}
	if offset >= len(m.worldlog) {
		return []motif.WorldEvent{}, nil
	}
	end := offset + limit
	if end > len(m.worldlog) {
		end = len(m.worldlog)
	}
	page := make([]motif.WorldEvent, end-offset)
	copy(page, m.worldlog[offset:end])
	return page, nil
}

// WorldEventsByType returns the newest-first events of one type
func (m *MockRepository) WorldEventsByType(ctx context.Context, eventType string, limit int) ([]motif.WorldEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 10
	}
	events := make([]motif.WorldEvent, 0, limit)
	for _, ev := range m.worldlog {
		if ev.Type != eventType {
			continue
		}
		events = append(events, ev)
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

// RegisterRegion records a region identifier
func (m *MockRepository) RegisterRegion(ctx context.Context, regionID string) error {
	if regionID == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regions[regionID] = struct{}{}
	return nil
}

// ListRegions returns all known region identifiers
func (m *MockRepository) ListRegions(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]string, 0, len(m.regions))
	for id := range m.regions {
		result = append(result, id)
	}
	return result, nil
}
