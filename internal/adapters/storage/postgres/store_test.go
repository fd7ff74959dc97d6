package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limen-app/limen/internal/adapters/storage/storetest"
	"github.com/limen-app/limen/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.StorageErrorKind
	}{
		{"bad password", &pq.Error{Code: "28P01"}, domain.KindAuth},
		{"no privilege", &pq.Error{Code: "42501"}, domain.KindAuth},
		{"connection failure", &pq.Error{Code: "08006"}, domain.KindNetwork},
		{"admin shutdown", &pq.Error{Code: "57P01"}, domain.KindNetwork},
		{"unique violation", &pq.Error{Code: "23505"}, domain.KindServer},
		{"bad conn", fmt.Errorf("exec: %w", driver.ErrBadConn), domain.KindNetwork},
		{"deadline", context.DeadlineExceeded, domain.KindNetwork},
		{"other", errors.New("boom"), domain.KindServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("save", tt.err)
			se, ok := domain.AsStorageError(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, se.Kind)
			assert.Equal(t, "postgres save", se.Op)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, classify("save", nil))
}

// Integration tests run only against a real database:
// LIMEN_TEST_POSTGRES_DSN="postgres://localhost/limen_test?sslmode=disable"
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("LIMEN_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LIMEN_TEST_POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUserStoreContract(t *testing.T) {
	s := openTestStore(t)
	storetest.Run(t, func(t *testing.T) domain.ReflectionStore {
		u := s.ForUser(domain.AccountID("test-" + uuid.NewString()))
		t.Cleanup(func() { u.DeleteAll(context.Background()) })
		return u
	})
}

func TestSaveRejectsForeignID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	alice := s.ForUser(domain.AccountID("alice-" + uuid.NewString()))
	bob := s.ForUser(domain.AccountID("bob-" + uuid.NewString()))
	t.Cleanup(func() {
		alice.DeleteAll(ctx)
		bob.DeleteAll(ctx)
	})

	r := storetest.NewReflection(time.Now(), domain.MoodFree, "mine")
	require.NoError(t, alice.Save(ctx, r))

	err := bob.Save(ctx, r)
	assert.ErrorIs(t, err, ErrForeignReflection)

	got, err := bob.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
