package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/limen-app/limen/internal/domain"
)

// ErrForeignReflection is returned when a save targets an id owned by
// another account.
var ErrForeignReflection = errors.New("reflection id belongs to another account")

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store for the given project.
// FIRESTORE_EMULATOR_HOST is honoured by the client library.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ForUser scopes the store to one account.
func (s *Store) ForUser(account domain.AccountID) *UserStore {
	return &UserStore{client: s.client, user: string(account)}
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func reflectionsCol(c *firestore.Client) *firestore.CollectionRef {
	return c.Collection("reflections")
}

type reflectionDoc struct {
	UserID          string    `firestore:"user_id"`
	Mood            string    `firestore:"mood"`
	GuidingQuestion string    `firestore:"guiding_question"`
	Text            string    `firestore:"text"`
	AIResponse      *string   `firestore:"ai_response"`
	CreatedAt       time.Time `firestore:"created_at"`
	IsSaved         bool      `firestore:"is_saved"`
}

func toDomain(id string, doc reflectionDoc) domain.Reflection {
	return domain.Reflection{
		ID:                domain.ReflectionID(id),
		CreatedAt:         doc.CreatedAt.UTC(),
		Mood:              domain.Mood(doc.Mood),
		GuidingQuestion:   doc.GuidingQuestion,
		WrittenText:       doc.Text,
		GeneratedResponse: doc.AIResponse,
	}
}

// ─────────────────────────────────────────
// ReflectionStore implementation
// ─────────────────────────────────────────

// UserStore is the reflections of one account. Saving an existing id
// overwrites that document; ids owned by another account are rejected.
type UserStore struct {
	client *firestore.Client
	user   string
}

func (u *UserStore) List(ctx context.Context) ([]domain.Reflection, error) {
	q := reflectionsCol(u.client).
		Where("user_id", "==", u.user).
		Where("is_saved", "==", true).
		OrderBy("created_at", firestore.Desc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []domain.Reflection{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, classify("list", err)
		}

		var doc reflectionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, classify("list decode", err)
		}
		out = append(out, toDomain(snap.Ref.ID, doc))
	}
	return out, nil
}

func (u *UserStore) Save(ctx context.Context, r domain.Reflection) error {
	ref := reflectionsCol(u.client).Doc(string(r.ID))
	doc := reflectionDoc{
		UserID:          u.user,
		Mood:            string(r.Mood),
		GuidingQuestion: r.GuidingQuestion,
		Text:            r.WrittenText,
		AIResponse:      r.GeneratedResponse,
		CreatedAt:       r.CreatedAt,
		IsSaved:         true,
	}

	err := u.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			var existing reflectionDoc
			if err := snap.DataTo(&existing); err != nil {
				return err
			}
			if existing.UserID != u.user {
				return ErrForeignReflection
			}
			// keep the original creation time on update
			doc.CreatedAt = existing.CreatedAt
		}
		return tx.Set(ref, doc)
	})
	if errors.Is(err, ErrForeignReflection) {
		return &domain.StorageError{Kind: domain.KindAuth, Op: "firestore save", Err: err}
	}
	return classify("save", err)
}

func (u *UserStore) Delete(ctx context.Context, id domain.ReflectionID) error {
	ref := reflectionsCol(u.client).Doc(string(id))

	err := u.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return nil
		}
		if err != nil {
			return err
		}
		var existing reflectionDoc
		if err := snap.DataTo(&existing); err != nil {
			return err
		}
		if existing.UserID != u.user {
			// someone else's document: nothing of ours to delete
			return nil
		}
		return tx.Delete(ref)
	})
	return classify("delete", err)
}

func (u *UserStore) DeleteAll(ctx context.Context) error {
	iter := reflectionsCol(u.client).Where("user_id", "==", u.user).Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				return nil
			}
			return classify("delete all", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return classify("delete all", err)
		}
	}
}

// classify maps gRPC status codes onto domain.StorageError kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	kind := domain.KindServer
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		kind = domain.KindAuth
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		kind = domain.KindNetwork
	default:
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			kind = domain.KindNetwork
		}
	}

	return &domain.StorageError{Kind: kind, Op: "firestore " + op, Err: err}
}
