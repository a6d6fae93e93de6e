package record_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ignitedb/ignite/internal/record"
	stderrors "github.com/ignitedb/ignite/pkg/errors"
)

func writeTemp(t *testing.T, data []byte) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seg")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	buf := record.Encode(1234, []byte("hello"), []byte("world"))
	f := writeTemp(t, buf)

	info, err := f.Stat()
	require.NoError(t, err)

	got, next, err := record.DecodeAt(f, 0, info.Size())
	require.NoError(t, err)
	require.Equal(t, info.Size(), next)

	want := &record.Record{Timestamp: 1234, Key: []byte("hello"), Value: []byte("world")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded record mismatch (-want +got):\n%s", diff)
	}
	require.False(t, got.IsTombstone())
}

func TestEncodeDecodeTombstone(t *testing.T) {
	buf := record.Encode(1, []byte("k"), nil)
	f := writeTemp(t, buf)
	info, err := f.Stat()
	require.NoError(t, err)

	got, _, err := record.DecodeAt(f, 0, info.Size())
	require.NoError(t, err)
	require.True(t, got.IsTombstone())
	require.Equal(t, []byte("k"), got.Key)
}

func TestDecodeAtSequence(t *testing.T) {
	var all []byte
	all = append(all, record.Encode(1, []byte("a"), []byte("1"))...)
	all = append(all, record.Encode(2, []byte("b"), []byte("2"))...)
	f := writeTemp(t, all)
	info, err := f.Stat()
	require.NoError(t, err)

	rec1, off1, err := record.DecodeAt(f, 0, info.Size())
	require.NoError(t, err)
	require.Equal(t, []byte("a"), rec1.Key)

	rec2, off2, err := record.DecodeAt(f, off1, info.Size())
	require.NoError(t, err)
	require.Equal(t, []byte("b"), rec2.Key)
	require.Equal(t, info.Size(), off2)
}

func TestDecodeAtRejectsOverrunHeader(t *testing.T) {
	buf := record.Encode(1, []byte("k"), []byte("v"))
	// Corrupt the claimed value size so it overruns the file.
	buf[16] = 0xFF
	f := writeTemp(t, buf)
	info, err := f.Stat()
	require.NoError(t, err)

	_, _, err = record.DecodeAt(f, 0, info.Size())
	require.Error(t, err)
	require.ErrorIs(t, err, stderrors.ErrCorruptRecord)
}

func TestDecodeAtRejectsShortHeader(t *testing.T) {
	f := writeTemp(t, []byte{1, 2, 3})
	_, _, err := record.DecodeAt(f, 0, 3)
	require.Error(t, err)
	require.ErrorIs(t, err, stderrors.ErrCorruptRecord)
}

func TestEncodeTombstoneHasZeroValueSize(t *testing.T) {
	buf := record.Encode(0, []byte("k"), []byte{})
	require.Len(t, buf, record.HeaderSize+1)
}
