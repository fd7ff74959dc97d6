package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/limen-app/limen/internal/domain"
)

var (
	ErrFlowExists   = errors.New("flow already exists")
	ErrFlowNotFound = errors.New("flow not found")
)

type flowEntry[T any] struct {
	value     T
	owner     domain.Owner
	touchedAt time.Time
}

// FlowStore keeps live flows in memory, keyed by id.
type FlowStore[T any] struct {
	mu    sync.RWMutex
	flows map[domain.FlowID]*flowEntry[T]
	now   func() time.Time
}

func NewFlowStore[T any]() *FlowStore[T] {
	return &FlowStore[T]{
		flows: make(map[domain.FlowID]*flowEntry[T]),
		now:   time.Now,
	}
}

func (s *FlowStore[T]) Create(id domain.FlowID, owner domain.Owner, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.flows[id]; exists {
		return ErrFlowExists
	}

	s.flows[id] = &flowEntry[T]{value: v, owner: owner, touchedAt: s.now()}
	return nil
}

// Get returns the flow and its owner, and marks it as recently used.
func (s *FlowStore[T]) Get(id domain.FlowID) (T, domain.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.flows[id]
	if !ok {
		var zero T
		return zero, domain.Owner{}, ErrFlowNotFound
	}

	e.touchedAt = s.now()
	return e.value, e.owner, nil
}

func (s *FlowStore[T]) Delete(id domain.FlowID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, id)
}

// Prune drops flows untouched for longer than idle and returns how many.
func (s *FlowStore[T]) Prune(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	n := 0
	for id, e := range s.flows {
		if e.touchedAt.Before(cutoff) {
			delete(s.flows, id)
			n++
		}
	}
	return n
}

func (s *FlowStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flows)
}
