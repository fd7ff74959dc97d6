package domain

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReflectionValidate(t *testing.T) {
	ok := Reflection{ID: "1", Mood: MoodFree, WrittenText: "hello"}
	assert.NoError(t, ok.Validate())

	noMood := ok
	noMood.Mood = ""
	assert.ErrorIs(t, noMood.Validate(), ErrMissingMood)

	blank := ok
	blank.WrittenText = " \n "
	assert.ErrorIs(t, blank.Validate(), ErrEmptyText)

	noID := ok
	noID.ID = ""
	assert.Error(t, noID.Validate())
}

func TestNewReflectionID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	pattern := regexp.MustCompile(`^1700000000123-[0-9a-f]{10}$`)

	seen := make(map[ReflectionID]bool)
	for i := 0; i < 100; i++ {
		id := NewReflectionID(now)
		assert.Regexp(t, pattern, string(id))
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("saving: %w", &StorageError{Kind: KindNetwork, Op: "save", Err: cause})

	se, ok := AsStorageError(err)
	assert.True(t, ok)
	assert.True(t, se.Retryable())
	assert.ErrorIs(t, err, cause)

	auth := &StorageError{Kind: KindAuth, Op: "list", Err: cause}
	assert.False(t, auth.Retryable())

	_, ok = AsStorageError(ErrLocalStorage)
	assert.False(t, ok)
}

func TestSessionClone(t *testing.T) {
	resp := "mirror"
	s := Session{Step: StepReflectionShown, GeneratedResponse: &resp}
	c := s.Clone()
	*c.GeneratedResponse = "changed"
	assert.Equal(t, "mirror", *s.GeneratedResponse)
	assert.Equal(t, "reflection-shown", s.Step.String())
	assert.Equal(t, "unknown", Step(42).String())
}
