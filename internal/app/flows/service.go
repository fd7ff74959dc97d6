// Package flows keeps the live reflection flows of many clients, one
// controller per flow, each bound to the store of its owner.
package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/limen-app/limen/internal/adapters/storage/memory"
	"github.com/limen-app/limen/internal/app/flow"
	"github.com/limen-app/limen/internal/domain"
	"github.com/limen-app/limen/internal/observability"
)

// ErrNotFound is returned for unknown flows and for flows of another owner.
var ErrNotFound = errors.New("flow not found")

// Flow is a live controller and the owner it saves for.
type Flow struct {
	ID         domain.FlowID
	Owner      domain.Owner
	Controller *flow.Controller
}

type Options struct {
	Stores    domain.StoreResolver
	Generator domain.ReflectionGenerator
	Timeout   time.Duration

	// Consent gates every flow of an owner; defaults to an in-memory store.
	Consent domain.ConsentStore

	// GeneratedQuestions asks the generator for guiding questions instead
	// of drawing them from the mood pool.
	GeneratedQuestions bool
}

type Service struct {
	flows     *memory.FlowStore[*flow.Controller]
	stores    domain.StoreResolver
	generator domain.ReflectionGenerator
	timeout   time.Duration
	questions flow.QuestionSource
	consent   domain.ConsentStore
	newID     func() domain.FlowID
}

func NewService(opts Options) *Service {
	s := &Service{
		flows:     memory.NewFlowStore[*flow.Controller](),
		stores:    opts.Stores,
		generator: opts.Generator,
		timeout:   opts.Timeout,
		consent:   opts.Consent,
		newID: func() domain.FlowID {
			return domain.FlowID(uuid.NewString())
		},
	}
	if s.consent == nil {
		s.consent = memory.NewConsentStore()
	}
	if opts.GeneratedQuestions {
		s.questions = flow.NewGeneratedQuestions(flow.NewGeneration(opts.Generator, opts.Timeout))
	}
	return s
}

// Start opens a new flow at the landing step for owner.
func (s *Service) Start(ctx context.Context, owner domain.Owner) (*Flow, error) {
	log := observability.LoggerFromContext(ctx).With("owner", owner.String())

	store, err := s.stores.StoreFor(owner)
	if err != nil {
		log.Error("failed to resolve reflection store", "error", err)
		return nil, fmt.Errorf("resolving store: %w", err)
	}

	c, err := flow.NewController(flow.Options{
		Store:     store,
		Generator: s.generator,
		Questions: s.questions,
		Timeout:   s.timeout,
		Consented: func() bool {
			return s.consent.Consented(owner)
		},
	})
	if err != nil {
		return nil, err
	}

	id := s.newID()
	if err := s.flows.Create(id, owner, c); err != nil {
		log.Error("failed to register flow", "error", err)
		return nil, err
	}

	log.Info("flow started", "flow_id", id)
	return &Flow{ID: id, Owner: owner, Controller: c}, nil
}

// Get returns the flow if it exists and belongs to owner.
func (s *Service) Get(ctx context.Context, id domain.FlowID, owner domain.Owner) (*Flow, error) {
	c, got, err := s.flows.Get(id)
	if err != nil {
		if errors.Is(err, memory.ErrFlowNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if got != owner {
		observability.LoggerFromContext(ctx).Warn("flow requested by another owner", "flow_id", id)
		return nil, ErrNotFound
	}
	return &Flow{ID: id, Owner: got, Controller: c}, nil
}

// Close abandons the flow and forgets it.
func (s *Service) Close(ctx context.Context, id domain.FlowID, owner domain.Owner) error {
	f, err := s.Get(ctx, id, owner)
	if err != nil {
		return err
	}
	f.Controller.Abandon()
	s.flows.Delete(id)
	return nil
}

// Consented reports whether owner may begin a reflection.
func (s *Service) Consented(owner domain.Owner) bool {
	return s.consent.Consented(owner)
}

// GrantConsent lets owner's flows leave the landing step.
func (s *Service) GrantConsent(ctx context.Context, owner domain.Owner) {
	s.consent.SetConsent(owner, true)
	observability.LoggerFromContext(ctx).Info("consent granted", "owner", owner.String())
}

// RevokeConsent blocks owner's flows at landing again. Flows already past
// landing finish normally.
func (s *Service) RevokeConsent(ctx context.Context, owner domain.Owner) {
	s.consent.SetConsent(owner, false)
	observability.LoggerFromContext(ctx).Info("consent revoked", "owner", owner.String())
}

// Len reports how many flows are live.
func (s *Service) Len() int {
	return s.flows.Len()
}

// Prune forgets flows untouched for longer than idle.
func (s *Service) Prune(idle time.Duration) int {
	return s.flows.Prune(idle)
}

// RunJanitor prunes idle flows every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, every, idle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Prune(idle); n > 0 {
				observability.Logger().Info("pruned idle flows", "count", n)
			}
		}
	}
}
