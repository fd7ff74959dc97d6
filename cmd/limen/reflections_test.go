package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limen-app/limen/internal/adapters/storage/localfile"
	"github.com/limen-app/limen/internal/app/reflections"
	"github.com/limen-app/limen/internal/config"
	"github.com/limen-app/limen/internal/domain"
)

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("  short  ", 10))
	assert.Equal(t, "first", preview("first\nsecond", 10))
	assert.Equal(t, "abcd…", preview("abcdefgh", 5))
}

func TestDeviceServiceReadsLocalRecord(t *testing.T) {
	dir := t.TempDir()
	store, err := localfile.NewResolver(dir).ForDevice("laptop")
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), domain.Reflection{
		ID: "r1", CreatedAt: time.Now(), Mood: domain.MoodFree, WrittenText: "hello",
	}))

	svc := newDeviceService(&config.Config{Storage: config.StorageConfig{LocalDir: dir}})
	list, err := svc.List(context.Background(), domain.Owner{Device: "laptop"}, reflections.Query{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.ReflectionID("r1"), list[0].ID)
}
