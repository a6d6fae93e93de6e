package engine_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ignitedb/ignite/internal/engine"
	stderrors "github.com/ignitedb/ignite/pkg/errors"
	"github.com/ignitedb/ignite/pkg/options"
)

func newEngine(t *testing.T, dir string, segmentSize uint64) *engine.Engine {
	t.Helper()
	e, err := engine.New(&engine.Config{
		Options: &options.Options{
			DataDir:         dir,
			SegmentSize:     segmentSize,
			HandleCacheSize: 8,
			FsyncOnWrite:    true,
		},
		Logger: zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	return e
}

// Scenario 1: empty key rejected, only the empty active segment exists.
func TestEmptyKeyRejected(t *testing.T) {
	dir := t.TempDir()
	e := newEngine(t, dir, 1<<20)
	defer e.Close()

	err := e.Put([]byte(""), []byte("v"))
	require.ErrorIs(t, err, stderrors.ErrInvalidKey)

	segments, err := filepath.Glob(filepath.Join(dir, "log-file-*"))
	require.NoError(t, err)
	require.Len(t, segments, 1)
	info, err := os.Stat(segments[0])
	require.NoError(t, err)
	require.Zero(t, info.Size())
}

// Scenario 2 / P1 / P3: round-trip then tombstone masks history.
func TestRoundTripThenDelete(t *testing.T) {
	e := newEngine(t, t.TempDir(), 1<<20)
	defer e.Close()

	require.NoError(t, e.Put([]byte("k1"), []byte("v1")))
	got, err := e.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), got)

	require.NoError(t, e.Delete([]byte("k1")))
	_, err = e.Get([]byte("k1"))
	require.ErrorIs(t, err, stderrors.ErrKeyNotFound)

	err = e.Delete([]byte("k1"))
	require.ErrorIs(t, err, stderrors.ErrKeyNotFound)
}

// Scenario 3 / P2 / P5: overwrite then compact preserves the latest value.
func TestOverwriteThenCompact(t *testing.T) {
	e := newEngine(t, t.TempDir(), 1<<20)
	defer e.Close()

	require.NoError(t, e.Put([]byte("k"), []byte("a")))
	require.NoError(t, e.Put([]byte("k"), []byte("b")))
	require.NoError(t, e.Put([]byte("k"), []byte("c")))

	got, err := e.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("c"), got)

	_, err = e.Compact(context.Background())
	require.NoError(t, err)

	got, err = e.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("c"), got)
}

// Scenario 4 / P8: rotation with a small threshold produces multiple
// segments and keeps every key readable.
func TestRotationKeepsAllKeysReadable(t *testing.T) {
	dir := t.TempDir()
	e := newEngine(t, dir, 64)
	defer e.Close()

	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("key-%d", i)
		val := fmt.Sprintf("val-%d", i)
		require.NoError(t, e.Put([]byte(key), []byte(val)))
	}

	segments, err := filepath.Glob(filepath.Join(dir, "log-file-*"))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(segments), 2)

	got, err := e.Get([]byte("key-7"))
	require.NoError(t, err)
	require.Equal(t, []byte("val-7"), got)

	for i := 0; i < 10; i++ {
		got, err := e.Get([]byte(fmt.Sprintf("key-%d", i)))
		require.NoError(t, err)
		require.Equal(t, []byte(fmt.Sprintf("val-%d", i)), got)
	}
}

// Scenario 5 / P4 / P7: close and reopen reconstructs identical state.
func TestRecoveryAfterReopen(t *testing.T) {
	dir := t.TempDir()
	e := newEngine(t, dir, 1<<20)

	for i := 1; i <= 400; i++ {
		key := fmt.Sprintf("123:%d", i)
		val := fmt.Sprintf("age:%d", i)
		require.NoError(t, e.Put([]byte(key), []byte(val)))
	}
	require.NoError(t, e.Close())

	reopened := newEngine(t, dir, 1<<20)
	defer reopened.Close()

	for i := 1; i <= 400; i++ {
		key := fmt.Sprintf("123:%d", i)
		want := fmt.Sprintf("age:%d", i)
		got, err := reopened.Get([]byte(key))
		require.NoError(t, err)
		require.Equal(t, []byte(want), got)
	}
}

// Scenario 6: compaction after deletes keeps exactly the live half.
func TestCompactionAfterDeletes(t *testing.T) {
	e := newEngine(t, t.TempDir(), 256)
	defer e.Close()

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("k%d", i)
		require.NoError(t, e.Put([]byte(key), []byte("v")))
	}
	for i := 0; i < 100; i += 2 {
		key := fmt.Sprintf("k%d", i)
		require.NoError(t, e.Delete([]byte(key)))
	}

	_, err := e.Compact(context.Background())
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("k%d", i)
		got, err := e.Get([]byte(key))
		if i%2 == 0 {
			require.ErrorIs(t, err, stderrors.ErrKeyNotFound)
		} else {
			require.NoError(t, err)
			require.Equal(t, []byte("v"), got)
		}
	}
}

// P2: last-write-wins across a sequence of puts and updates.
func TestUpdateRejectsMissingKey(t *testing.T) {
	e := newEngine(t, t.TempDir(), 1<<20)
	defer e.Close()

	err := e.Update([]byte("absent"), []byte("v"))
	require.ErrorIs(t, err, stderrors.ErrKeyNotFound)

	require.NoError(t, e.Put([]byte("present"), []byte("v1")))
	require.NoError(t, e.Update([]byte("present"), []byte("v2")))

	got, err := e.Get([]byte("present"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)
}

func TestClosedEngineRejectsOperations(t *testing.T) {
	e := newEngine(t, t.TempDir(), 1<<20)
	require.NoError(t, e.Close())

	require.ErrorIs(t, e.Put([]byte("k"), []byte("v")), stderrors.ErrEngineClosed)
	_, err := e.Get([]byte("k"))
	require.ErrorIs(t, err, stderrors.ErrEngineClosed)
	require.ErrorIs(t, e.Close(), stderrors.ErrEngineClosed)
}
