package domain

import "context"

// ReflectionGenerator produces text from an external language model.
// Implementations make a single attempt; timeouts and fallbacks belong
// to the caller.
type ReflectionGenerator interface {
	GuidingQuestion(ctx context.Context, mood Mood) (string, error)
	EmpathicResponse(ctx context.Context, mood Mood, text string) (string, error)
}

// ReflectionStore holds the saved reflections of a single owner.
type ReflectionStore interface {
	// List returns reflections newest-first, or an empty slice.
	List(ctx context.Context) ([]Reflection, error)
	// Save stores r. Saving an id that already exists never duplicates it.
	Save(ctx context.Context, r Reflection) error
	// Delete removes one reflection. Unknown ids are not an error.
	Delete(ctx context.Context, id ReflectionID) error
	// DeleteAll clears every reflection of the owner.
	DeleteAll(ctx context.Context) error
}

// StoreResolver returns the reflection store scoped to an owner.
type StoreResolver interface {
	StoreFor(owner Owner) (ReflectionStore, error)
}

// ConsentStore records whether an owner has agreed to the terms of
// reflecting. A flow cannot leave the landing step without it.
type ConsentStore interface {
	Consented(owner Owner) bool
	SetConsent(owner Owner, consented bool)
}
