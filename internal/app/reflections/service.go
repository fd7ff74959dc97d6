package reflections

import (
	"context"
	"fmt"

	"github.com/limen-app/limen/internal/domain"
	"github.com/limen-app/limen/internal/observability"
)

const defaultLimit = 20

// Service holds the logic of reading and deleting saved reflections.
type Service struct {
	stores domain.StoreResolver
}

// NewService creates a reflections service on top of the owner stores.
func NewService(stores domain.StoreResolver) *Service {
	return &Service{stores: stores}
}

// Query narrows a listing. A zero Mood matches every mood.
// If Limit <= 0, a reasonable default value is used.
type Query struct {
	Mood  domain.Mood
	Limit int
}

// List returns the newest reflections of owner that match q.
func (s *Service) List(ctx context.Context, owner domain.Owner, q Query) ([]domain.Reflection, error) {
	store, err := s.stores.StoreFor(owner)
	if err != nil {
		return nil, err
	}

	all, err := store.List(ctx)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list reflections", "owner", owner.String(), "error", err)
		return nil, fmt.Errorf("listing reflections: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	out := make([]domain.Reflection, 0, min(limit, len(all)))
	for _, r := range all {
		if q.Mood != "" && r.Mood != q.Mood {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Delete removes one reflection of owner. Unknown ids are not an error.
func (s *Service) Delete(ctx context.Context, owner domain.Owner, id domain.ReflectionID) error {
	store, err := s.stores.StoreFor(owner)
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting reflection %s: %w", id, err)
	}
	observability.LoggerFromContext(ctx).Info("reflection deleted", "owner", owner.String(), "reflection_id", id)
	return nil
}

// DeleteAll removes every reflection of owner.
func (s *Service) DeleteAll(ctx context.Context, owner domain.Owner) error {
	store, err := s.stores.StoreFor(owner)
	if err != nil {
		return err
	}
	if err := store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("deleting all reflections: %w", err)
	}
	observability.LoggerFromContext(ctx).Info("all reflections deleted", "owner", owner.String())
	return nil
}
