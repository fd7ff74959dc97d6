// Package storetest holds the behaviour every domain.ReflectionStore must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limen-app/limen/internal/domain"
)

// NewReflection builds a valid reflection created at t.
func NewReflection(t time.Time, mood domain.Mood, text string) domain.Reflection {
	resp := "A mirror for: " + text
	return domain.Reflection{
		ID:                domain.NewReflectionID(t),
		CreatedAt:         t.UTC().Truncate(time.Millisecond),
		Mood:              mood,
		GuidingQuestion:   "What is present for you right now?",
		WrittenText:       text,
		GeneratedResponse: &resp,
	}
}

// Run exercises the store contract. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) domain.ReflectionStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("empty list", func(t *testing.T) {
		s := newStore(t)
		got, err := s.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("newest first", func(t *testing.T) {
		s := newStore(t)
		older := NewReflection(base, domain.MoodAnxiety, "first")
		newer := NewReflection(base.Add(time.Minute), domain.MoodFree, "second")
		require.NoError(t, s.Save(ctx, older))
		require.NoError(t, s.Save(ctx, newer))

		got, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, newer.ID, got[0].ID)
		assert.Equal(t, older.ID, got[1].ID)
		assert.Equal(t, "second", got[0].WrittenText)
		assert.Equal(t, domain.MoodFree, got[0].Mood)
		require.NotNil(t, got[0].GeneratedResponse)
		assert.Equal(t, *newer.GeneratedResponse, *got[0].GeneratedResponse)
	})

	t.Run("save same id twice", func(t *testing.T) {
		s := newStore(t)
		r := NewReflection(base, domain.MoodOverwhelm, "heavy")
		require.NoError(t, s.Save(ctx, r))
		require.NoError(t, s.Save(ctx, r))

		got, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("absent response", func(t *testing.T) {
		s := newStore(t)
		r := NewReflection(base, domain.MoodConfusion, "foggy")
		r.GeneratedResponse = nil
		require.NoError(t, s.Save(ctx, r))

		got, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Nil(t, got[0].GeneratedResponse)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)
		keep := NewReflection(base, domain.MoodAnxiety, "keep")
		drop := NewReflection(base.Add(time.Second), domain.MoodAnxiety, "drop")
		require.NoError(t, s.Save(ctx, keep))
		require.NoError(t, s.Save(ctx, drop))

		require.NoError(t, s.Delete(ctx, drop.ID))
		after, err := s.List(ctx)
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, drop.ID))
		again, err := s.List(ctx)
		require.NoError(t, err)

		require.Len(t, after, 1)
		assert.Equal(t, keep.ID, after[0].ID)
		assert.Equal(t, after, again)
	})

	t.Run("delete unknown id", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Delete(ctx, "does-not-exist"))
	})

	t.Run("delete all", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 3; i++ {
			require.NoError(t, s.Save(ctx, NewReflection(base.Add(time.Duration(i)*time.Second), domain.MoodFree, "x")))
		}
		require.NoError(t, s.DeleteAll(ctx))

		got, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)

		assert.NoError(t, s.DeleteAll(ctx))
	})
}
