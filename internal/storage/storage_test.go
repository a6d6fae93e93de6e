package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ignitedb/ignite/internal/record"
	"github.com/ignitedb/ignite/internal/storage"
	"github.com/ignitedb/ignite/pkg/options"
)

func newStorage(t *testing.T, segmentSize uint64) *storage.Storage {
	t.Helper()
	dir := t.TempDir()
	s, err := storage.New(&storage.Config{
		Options: &options.Options{
			DataDir:         dir,
			SegmentSize:     segmentSize,
			HandleCacheSize: 4,
			FsyncOnWrite:    true,
		},
		Logger: zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewStartsFreshSegmentOne(t *testing.T) {
	s := newStorage(t, 1<<20)
	require.Equal(t, uint64(1), s.ActiveSegmentID())

	ids, err := s.SegmentIDs()
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, ids)
}

func TestNewAlwaysStartsFreshSegmentEvenWithExistingOnes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "log-file-1"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "log-file-2"), []byte("y"), 0o644))

	s, err := storage.New(&storage.Config{
		Options: &options.Options{DataDir: dir, SegmentSize: 1 << 20, HandleCacheSize: 4, FsyncOnWrite: true},
		Logger:  zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, uint64(3), s.ActiveSegmentID())
	ids, err := s.SegmentIDs()
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, ids)
}

func TestAppendActiveAndReadBack(t *testing.T) {
	s := newStorage(t, 1<<20)
	data := record.Encode(42, []byte("k"), []byte("v"))

	fileID, offset, err := s.AppendActive(data)
	require.NoError(t, err)
	require.Equal(t, uint64(1), fileID)
	require.Equal(t, int64(0), offset)

	rec, err := s.ReadRecordAt(fileID, offset)
	require.NoError(t, err)
	require.Equal(t, []byte("k"), rec.Key)
	require.Equal(t, []byte("v"), rec.Value)
	require.Equal(t, int64(42), rec.Timestamp)
}

// TestAppendActiveRotatesOnThreshold exercises the write-then-check
// rotation ordering: the record that first pushes a segment over its
// threshold always finishes landing in that segment - rotation is decided
// only after the write (and any fsync) have completed - and the segment
// after it starts fresh at offset 0.
func TestAppendActiveRotatesOnThreshold(t *testing.T) {
	rec := record.Encode(1, []byte("key"), []byte("value"))
	s := newStorage(t, uint64(len(rec)))

	fileID1, offset1, err := s.AppendActive(rec)
	require.NoError(t, err)
	require.Equal(t, uint64(1), fileID1)
	require.Equal(t, int64(0), offset1)
	require.Equal(t, uint64(1), s.ActiveSegmentID(), "a segment exactly at threshold is not rotated until it is exceeded")

	fileID2, offset2, err := s.AppendActive(rec)
	require.NoError(t, err)
	require.Equal(t, uint64(1), fileID2, "the write that pushes the segment over threshold still lands in it")
	require.Equal(t, int64(len(rec)), offset2)
	require.Equal(t, uint64(2), s.ActiveSegmentID(), "rotation happens only after that write completes")

	fileID3, offset3, err := s.AppendActive(rec)
	require.NoError(t, err)
	require.Equal(t, uint64(2), fileID3)
	require.Equal(t, int64(0), offset3)

	got1, err := s.ReadRecordAt(fileID1, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("key"), got1.Key)

	got2, err := s.ReadRecordAt(fileID2, offset2)
	require.NoError(t, err)
	require.Equal(t, []byte("key"), got2.Key)
}

func TestDeleteActiveSegmentRejected(t *testing.T) {
	s := newStorage(t, 1<<20)
	err := s.DeleteSegment(s.ActiveSegmentID())
	require.Error(t, err)
}

func TestFinalizeCompactionInstallsAndCleansUp(t *testing.T) {
	rec := record.Encode(1, []byte("k"), []byte("v"))
	s := newStorage(t, uint64(len(rec)))

	fileID1, _, err := s.AppendActive(rec)
	require.NoError(t, err)
	_, _, err = s.AppendActive(rec)
	require.NoError(t, err)

	tempPath := s.TempPath(999)
	require.NoError(t, os.WriteFile(tempPath, rec, 0o644))

	const compactedID = 100
	require.NoError(t, s.FinalizeCompaction(tempPath, compactedID, []uint64{fileID1}))

	ids, err := s.SegmentIDs()
	require.NoError(t, err)
	require.NotContains(t, ids, fileID1)
	require.Contains(t, ids, uint64(compactedID))

	got, err := s.ReadRecordAt(compactedID, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("k"), got.Key)
}
