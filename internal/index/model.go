package index

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Entry is the in-memory pointer to where a key's most recent value lives on
// disk. It never points at a tombstone: Remove deletes the map entry instead
// of recording one.
type Entry struct {
	// Timestamp is the write time recorded in the record header. It is
	// informational: recovery and compaction decide which write for a key
	// is the most recent by on-disk order, not by comparing timestamps.
	Timestamp int64

	// Offset is the byte position of the record's header within FileID's
	// segment.
	Offset int64

	// EntrySize is the total on-disk size of the record (header + key +
	// value). Reads do not consult it; they decode the sizes from the
	// record header.
	EntrySize int64

	// FileID names the segment (log-file-<FileID>) holding the record.
	FileID uint64
}

// Index is the in-memory key -> Entry map the engine consults on every
// read and updates on every write. A single RWMutex protects it; callers
// take the read lock only long enough to copy out an Entry, then release it
// before touching disk.
type Index struct {
	log    *zap.SugaredLogger
	mu     sync.RWMutex
	m      map[string]Entry
	closed atomic.Bool
}

// Config carries the dependencies Index needs at construction.
type Config struct {
	Logger *zap.SugaredLogger
}
