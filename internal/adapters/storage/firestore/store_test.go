package firestore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/limen-app/limen/internal/adapters/storage/storetest"
	"github.com/limen-app/limen/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want domain.StorageErrorKind
	}{
		{status.Error(codes.Unauthenticated, "no token"), domain.KindAuth},
		{status.Error(codes.PermissionDenied, "rules"), domain.KindAuth},
		{status.Error(codes.Unavailable, "down"), domain.KindNetwork},
		{status.Error(codes.DeadlineExceeded, "slow"), domain.KindNetwork},
		{context.DeadlineExceeded, domain.KindNetwork},
		{status.Error(codes.Internal, "oops"), domain.KindServer},
		{errors.New("decode"), domain.KindServer},
	}

	for _, tt := range tests {
		se, ok := domain.AsStorageError(classify("list", tt.err))
		require.True(t, ok)
		assert.Equal(t, tt.want, se.Kind, tt.err.Error())
	}
}

// Runs against the emulator only: FIRESTORE_EMULATOR_HOST=localhost:8200
func TestUserStoreContract(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	s, err := NewStore(ctx, "limen-test")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	storetest.Run(t, func(t *testing.T) domain.ReflectionStore {
		u := s.ForUser(domain.AccountID("test-" + uuid.NewString()))
		t.Cleanup(func() { u.DeleteAll(context.Background()) })
		return u
	})
}
