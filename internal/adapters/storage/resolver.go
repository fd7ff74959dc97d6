// Package storage picks the reflection store for an owner: the device's
// local record when anonymous, the remote account store when signed in.
// The two are disjoint; nothing is migrated between them.
package storage

import (
	"github.com/limen-app/limen/internal/adapters/storage/localfile"
	"github.com/limen-app/limen/internal/domain"
)

// AccountStores returns the remote store of one account.
type AccountStores func(account domain.AccountID) domain.ReflectionStore

type Resolver struct {
	local  *localfile.Resolver
	remote AccountStores
}

// NewResolver combines both backends. remote may be nil when no remote
// store is configured; signed-in owners then get domain.ErrNoRemoteStore.
func NewResolver(local *localfile.Resolver, remote AccountStores) *Resolver {
	return &Resolver{local: local, remote: remote}
}

func (r *Resolver) StoreFor(owner domain.Owner) (domain.ReflectionStore, error) {
	if owner.Authenticated() {
		if r.remote == nil {
			return nil, domain.ErrNoRemoteStore
		}
		return r.remote(owner.Account), nil
	}
	s, err := r.local.ForDevice(owner.Device)
	if err != nil {
		return nil, err
	}
	return s, nil
}
