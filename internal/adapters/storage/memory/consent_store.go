package memory

import (
	"sync"

	"github.com/limen-app/limen/internal/domain"
)

// ConsentStore keeps consent decisions for the lifetime of the process.
type ConsentStore struct {
	mu        sync.RWMutex
	consented map[domain.Owner]bool
}

func NewConsentStore() *ConsentStore {
	return &ConsentStore{consented: make(map[domain.Owner]bool)}
}

func (s *ConsentStore) Consented(owner domain.Owner) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.consented[owner]
}

// SetConsent grants or revokes. Revoking forgets the owner entirely.
func (s *ConsentStore) SetConsent(owner domain.Owner, consented bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if consented {
		s.consented[owner] = true
		return
	}
	delete(s.consented, owner)
}
