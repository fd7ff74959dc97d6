package memory

import (
	"context"
	"sync"

	"github.com/limen-app/limen/internal/domain"
)

// ReflectionStore is an in-memory implementation of domain.ReflectionStore.
// It is NOT persistent and is only suitable for development and tests.
type ReflectionStore struct {
	mu          sync.RWMutex
	reflections []domain.Reflection // newest first
	saveCalls   int
	failSave    error
}

// NewReflectionStore creates an empty in-memory store.
func NewReflectionStore() *ReflectionStore {
	return &ReflectionStore{}
}

func (s *ReflectionStore) List(ctx context.Context) ([]domain.Reflection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Reflection, len(s.reflections))
	copy(out, s.reflections)
	return out, nil
}

// Save prepends r, or replaces the reflection with the same id in place.
func (s *ReflectionStore) Save(ctx context.Context, r domain.Reflection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saveCalls++
	if s.failSave != nil {
		err := s.failSave
		s.failSave = nil
		return err
	}

	for i := range s.reflections {
		if s.reflections[i].ID == r.ID {
			s.reflections[i] = r
			return nil
		}
	}
	s.reflections = append([]domain.Reflection{r}, s.reflections...)
	return nil
}

func (s *ReflectionStore) Delete(ctx context.Context, id domain.ReflectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.reflections[:0]
	for _, r := range s.reflections {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.reflections = kept
	return nil
}

func (s *ReflectionStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reflections = nil
	return nil
}

// SaveCalls reports how many times Save was called, failed calls included.
func (s *ReflectionStore) SaveCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveCalls
}

// FailNextSave makes the next Save return err without storing anything.
func (s *ReflectionStore) FailNextSave(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = err
}

// Resolver hands out one in-memory store per owner.
type Resolver struct {
	mu     sync.Mutex
	stores map[domain.Owner]*ReflectionStore
}

func NewResolver() *Resolver {
	return &Resolver{stores: make(map[domain.Owner]*ReflectionStore)}
}

func (r *Resolver) StoreFor(owner domain.Owner) (domain.ReflectionStore, error) {
	return r.Store(owner), nil
}

// Store returns the concrete store of owner, creating it on first use.
func (r *Resolver) Store(owner domain.Owner) *ReflectionStore {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stores[owner]
	if !ok {
		s = NewReflectionStore()
		r.stores[owner] = s
	}
	return s
}
