package index_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ignitedb/ignite/internal/index"
	stderrors "github.com/ignitedb/ignite/pkg/errors"
)

func newIndex(t *testing.T) *index.Index {
	t.Helper()
	idx, err := index.New(&index.Config{Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestUpsertAndGet(t *testing.T) {
	idx := newIndex(t)
	entry := index.Entry{Timestamp: 10, FileID: 1, Offset: 0, EntrySize: 32}

	require.NoError(t, idx.Upsert("k1", entry))

	got, err := idx.Get("k1")
	require.NoError(t, err)
	require.Equal(t, entry, got)
	require.Equal(t, 1, idx.Len())
}

func TestGetMissingKeyReturnsIndexError(t *testing.T) {
	idx := newIndex(t)

	_, err := idx.Get("missing")
	require.Error(t, err)
	require.ErrorIs(t, err, stderrors.ErrKeyNotFound)

	ie, ok := stderrors.AsIndexError(err)
	require.True(t, ok)
	require.Equal(t, "missing", ie.Key())
}

func TestUpsertOverwritesExistingEntry(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Upsert("k", index.Entry{Timestamp: 1, FileID: 1, Offset: 0}))
	require.NoError(t, idx.Upsert("k", index.Entry{Timestamp: 2, FileID: 2, Offset: 64}))

	got, err := idx.Get("k")
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Timestamp)
	require.Equal(t, uint64(2), got.FileID)
}

func TestRemove(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Upsert("k", index.Entry{Timestamp: 1, FileID: 1}))
	require.NoError(t, idx.Remove("k"))

	_, err := idx.Get("k")
	require.ErrorIs(t, err, stderrors.ErrKeyNotFound)
	require.Equal(t, 0, idx.Len())

	// Removing an absent key is not an error.
	require.NoError(t, idx.Remove("nope"))
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Upsert("a", index.Entry{Timestamp: 1}))

	snap := idx.Snapshot()
	require.Len(t, snap, 1)

	require.NoError(t, idx.Upsert("b", index.Entry{Timestamp: 2}))
	require.Len(t, snap, 1)
	require.Equal(t, 2, idx.Len())
}

func TestWriteHintAndLoadHintRoundTrip(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Upsert("alpha", index.Entry{Timestamp: 100, FileID: 1, Offset: 0, EntrySize: 40}))
	require.NoError(t, idx.Upsert("beta", index.Entry{Timestamp: 200, FileID: 2, Offset: 128, EntrySize: 50}))

	hintPath := filepath.Join(t.TempDir(), "hint-1.log")
	require.NoError(t, idx.WriteHint(hintPath))

	reloaded, err := index.New(&index.Config{Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reloaded.Close() })

	require.NoError(t, reloaded.LoadHint(hintPath))
	require.Equal(t, 2, reloaded.Len())

	got, err := reloaded.Get("beta")
	require.NoError(t, err)
	require.Equal(t, int64(200), got.Timestamp)
	require.Equal(t, uint64(2), got.FileID)
	require.Equal(t, int64(128), got.Offset)
	require.Equal(t, int64(50), got.EntrySize)
}

func TestLoadHintEmptyFile(t *testing.T) {
	idx := newIndex(t)
	hintPath := filepath.Join(t.TempDir(), "hint-0.log")
	require.NoError(t, idx.WriteHint(hintPath))

	reloaded, err := index.New(&index.Config{Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)
	require.NoError(t, reloaded.LoadHint(hintPath))
	require.Equal(t, 0, reloaded.Len())
}

func TestClosedIndexRejectsOperations(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Close())

	_, err := idx.Get("k")
	require.ErrorIs(t, err, index.ErrIndexClosed)

	require.ErrorIs(t, idx.Upsert("k", index.Entry{}), index.ErrIndexClosed)
	require.ErrorIs(t, idx.Remove("k"), index.ErrIndexClosed)

	err = idx.Close()
	require.ErrorIs(t, err, index.ErrIndexClosed)
}
