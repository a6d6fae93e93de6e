// Package index implements the in-memory key directory: a hash table
// mapping every live key to the (segment, offset, size) where its most
// recent value lives on disk. It also knows how to serialize that table to
// a hint file and reload it, which gives recovery a warm start before its
// full segment rescan.
package index

import (
	"bufio"
	"bytes"
	"encoding/binary"
	stdErrors "errors"
	"io"
	"os"

	fileatomic "github.com/natefinch/atomic"

	"github.com/ignitedb/ignite/internal/fsutil"
	"github.com/ignitedb/ignite/pkg/errors"
)

// ErrIndexClosed is the cause wrapped into the IndexError returned by every
// operation attempted against a closed index.
var ErrIndexClosed = stdErrors.New("operation failed: index is closed")

// New creates an empty Index ready for concurrent use.
func New(config *Config) (*Index, error) {
	if config == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "index configuration is required",
		).WithField("config").WithRule("required")
	}

	return &Index{
		log: config.Logger,
		m:   make(map[string]Entry, 1024),
	}, nil
}

// Get returns the entry for key, or a not-found IndexError.
func (idx *Index) Get(key string) (Entry, error) {
	if idx.closed.Load() {
		return Entry{}, errors.NewIndexError(ErrIndexClosed, errors.ErrorCodeIndexClosed, "index is closed").
			WithKey(key).WithOperation("Get")
	}

	idx.mu.RLock()
	entry, ok := idx.m[key]
	idx.mu.RUnlock()

	if !ok {
		return Entry{}, errors.NewKeyNotFoundError(key, "Get")
	}
	return entry, nil
}

// Upsert records (or replaces) the entry for key. The caller decides
// whether a write is newer than what is already indexed; Upsert does not
// compare timestamps itself since the engine already serializes that
// decision under its write lock.
func (idx *Index) Upsert(key string, entry Entry) error {
	if idx.closed.Load() {
		return errors.NewIndexError(ErrIndexClosed, errors.ErrorCodeIndexClosed, "index is closed").
			WithKey(key).WithOperation("Upsert")
	}

	idx.mu.Lock()
	idx.m[key] = entry
	idx.mu.Unlock()
	return nil
}

// Remove deletes key's entry, if any. Removing a key with no entry is not
// an error.
func (idx *Index) Remove(key string) error {
	if idx.closed.Load() {
		return errors.NewIndexError(ErrIndexClosed, errors.ErrorCodeIndexClosed, "index is closed").
			WithKey(key).WithOperation("Remove")
	}

	idx.mu.Lock()
	delete(idx.m, key)
	idx.mu.Unlock()
	return nil
}

// Len returns the number of live keys currently tracked.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.m)
}

// Snapshot returns a point-in-time copy of every key and its entry. Used by
// WriteHint, which needs a stable view to serialize while the engine keeps
// serving reads and writes against the live map.
func (idx *Index) Snapshot() map[string]Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make(map[string]Entry, len(idx.m))
	for k, v := range idx.m {
		out[k] = v
	}
	return out
}

// Replace atomically swaps the entire index contents. LoadHint calls this
// once it has parsed the whole hint file, so readers never observe a
// partially-loaded index.
func (idx *Index) Replace(entries map[string]Entry) {
	idx.mu.Lock()
	idx.m = entries
	idx.mu.Unlock()
}

// Close releases the index's memory. Further Get, Upsert, Remove and Close
// calls return ErrIndexClosed; Len, Snapshot, WriteHint and LoadHint do not
// check whether the index is closed.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return errors.NewIndexError(ErrIndexClosed, errors.ErrorCodeIndexClosed, "index already closed")
	}

	idx.mu.Lock()
	clear(idx.m)
	idx.m = nil
	idx.mu.Unlock()

	idx.log.Debugw("index closed")
	return nil
}

// Hint file record layout, all little-endian, repeated for every live key:
//
//	key_size   uint64
//	key        key_size bytes
//	timestamp  int64
//	file_id    uint64
//	offset     int64
//	entry_size int64

// WriteHint serializes the index's current contents to path using an
// atomic rename, so a crash mid-write never leaves a half-written hint
// file for recovery to trip over.
func (idx *Index) WriteHint(path string) error {
	snapshot := idx.Snapshot()

	var buf bytes.Buffer
	header := make([]byte, 8)
	fields := make([]byte, 32)

	for key, entry := range snapshot {
		binary.LittleEndian.PutUint64(header, uint64(len(key)))
		buf.Write(header)
		buf.WriteString(key)

		binary.LittleEndian.PutUint64(fields[0:8], uint64(entry.Timestamp))
		binary.LittleEndian.PutUint64(fields[8:16], entry.FileID)
		binary.LittleEndian.PutUint64(fields[16:24], uint64(entry.Offset))
		binary.LittleEndian.PutUint64(fields[24:32], uint64(entry.EntrySize))
		buf.Write(fields)
	}

	if err := fileatomic.WriteFile(path, &buf); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write hint file").WithPath(path)
	}

	dir := dirOf(path)
	if err := fsutil.SyncDir(dir); err != nil {
		idx.log.Warnw("failed to fsync directory after hint write", "dir", dir, "error", err)
	}
	return nil
}

// LoadHint replaces the index's contents with the entries recorded in the
// hint file at path. Callers (internal/recovery) must still follow this
// with a full segment rescan, since the hint only reflects state as of the
// compaction that produced it.
func (idx *Index) LoadHint(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open hint file").WithPath(path)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	entries := make(map[string]Entry, 1024)

	header := make([]byte, 8)
	fields := make([]byte, 32)
	for {
		if _, err := io.ReadFull(reader, header); err != nil {
			if err == io.EOF {
				break
			}
			return errors.NewHintParseError(path, err)
		}
		keySize := binary.LittleEndian.Uint64(header)

		key := make([]byte, keySize)
		if _, err := io.ReadFull(reader, key); err != nil {
			return errors.NewHintParseError(path, err)
		}

		if _, err := io.ReadFull(reader, fields); err != nil {
			return errors.NewHintParseError(path, err)
		}

		entries[string(key)] = Entry{
			Timestamp: int64(binary.LittleEndian.Uint64(fields[0:8])),
			FileID:    binary.LittleEndian.Uint64(fields[8:16]),
			Offset:    int64(binary.LittleEndian.Uint64(fields[16:24])),
			EntrySize: int64(binary.LittleEndian.Uint64(fields[24:32])),
		}
	}

	idx.Replace(entries)
	return nil
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
