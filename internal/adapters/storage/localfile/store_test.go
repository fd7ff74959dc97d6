package localfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limen-app/limen/internal/adapters/storage/storetest"
	"github.com/limen-app/limen/internal/domain"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.ReflectionStore {
		return NewStore(filepath.Join(t.TempDir(), "device.json"))
	})
}

func TestListCorruptRecordReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	got, err := NewStore(path).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveMovesCorruptRecordAside(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "device.json")
	require.NoError(t, os.WriteFile(path, []byte("[{]"), 0600))

	s := NewStore(path)
	r := storetest.NewReflection(time.Now(), domain.MoodAnxiety, "still here")
	require.NoError(t, s.Save(ctx, r))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r.ID, got[0].ID)

	kept, err := os.ReadFile(path + ".corrupt")
	require.NoError(t, err)
	assert.Equal(t, "[{]", string(kept))
}

func TestSaveReportsWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	// The parent "directory" is a regular file, so the write cannot happen.
	s := NewStore(filepath.Join(blocker, "device.json"))
	err := s.Save(context.Background(), storetest.NewReflection(time.Now(), domain.MoodFree, "x"))
	assert.ErrorIs(t, err, domain.ErrLocalStorage)

	got, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecordIsPlainJSONArray(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "device.json")
	s := NewStore(path)
	require.NoError(t, s.Save(ctx, storetest.NewReflection(time.Now(), domain.MoodFree, "x")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mood": "free"`)
	assert.Equal(t, byte('['), data[0])

	require.NoError(t, s.DeleteAll(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestUnreadableRecordIsNeverOverwritten(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "device.json")

	// A directory where the record should be cannot be read as a file.
	require.NoError(t, os.Mkdir(path, 0700))
	s := NewStore(path)

	err := s.Save(ctx, storetest.NewReflection(time.Now(), domain.MoodFree, "x"))
	assert.ErrorIs(t, err, domain.ErrLocalStorage)

	err = s.Delete(ctx, "any")
	assert.ErrorIs(t, err, domain.ErrLocalStorage)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	_, err = os.Stat(path + ".corrupt")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveKeepsEarlierReflectionsWhenRecordUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file modes do not restrict root")
	}
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "device.json")
	s := NewStore(path)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Save(ctx, storetest.NewReflection(time.Now(), domain.MoodAnxiety, "entry")))
	}
	require.NoError(t, os.Chmod(path, 0200))

	err := s.Save(ctx, storetest.NewReflection(time.Now(), domain.MoodFree, "one more"))
	assert.ErrorIs(t, err, domain.ErrLocalStorage)

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "unreadable record lists as empty")

	require.NoError(t, os.Chmod(path, 0600))
	got, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestResolverRejectsUnsafeDeviceIDs(t *testing.T) {
	r := NewResolver(t.TempDir())

	_, err := r.ForDevice("../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidDevice)

	a, err := r.ForDevice("browser-123")
	require.NoError(t, err)
	b, err := r.ForDevice("browser-123")
	require.NoError(t, err)
	assert.Equal(t, a.path, b.path)
	assert.Same(t, a.mu, b.mu)
}

func TestResolverSharesRecordAcrossLookups(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(t.TempDir())

	a, err := r.ForDevice("tablet")
	require.NoError(t, err)
	require.NoError(t, a.Save(ctx, storetest.NewReflection(time.Now(), domain.MoodFree, "first")))

	b, err := r.ForDevice("tablet")
	require.NoError(t, err)
	got, err := b.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
