package character

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// It is suitable for single-session use and testing.
type MemStore struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		defs: make(map[string]Definition),
	}
}

// Create implements [Store.Create].
func (s *MemStore) Create(ctx context.Context, def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.defs[def.ID]; exists {
		return fmt.Errorf("character: character with id %q already exists", def.ID)
	}

	now := time.Now()
	def.CreatedAt = now
	def.UpdatedAt = now
	s.defs[def.ID] = *def
	return nil
}

// Get implements [Store.Get].
func (s *MemStore) Get(ctx context.Context, id string) (*Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.defs[id]
	if !ok {
		return nil, nil
	}
	return &def, nil
}

// Update implements [Store.Update].
func (s *MemStore) Update(ctx context.Context, def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.defs[def.ID]
	if !ok {
		return fmt.Errorf("character: character with id %q not found", def.ID)
	}

	def.CreatedAt = existing.CreatedAt
	def.UpdatedAt = time.Now()
	s.defs[def.ID] = *def
	return nil
}

// Delete implements [Store.Delete].
func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.defs, id)
	return nil
}

// List implements [Store.List]. Results are ordered by name.
func (s *MemStore) List(ctx context.Context, troupeID string) ([]Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var defs []Definition
	for _, def := range s.defs {
		if troupeID != "" && def.TroupeID != troupeID {
			continue
		}
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

// Upsert implements [Store.Upsert].
func (s *MemStore) Upsert(ctx context.Context, def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.defs[def.ID]; ok {
		def.CreatedAt = existing.CreatedAt
	} else {
		def.CreatedAt = now
	}
	def.UpdatedAt = now
	s.defs[def.ID] = *def
	return nil
}
