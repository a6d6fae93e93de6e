// Package engine is the top-level Bitcask-style key-value engine: it wires
// together the record codec, segment storage, in-memory index, crash
// recovery, and compaction into the five operations (Put, Get, Update,
// Delete, Compact) and the Open/Close lifecycle that everything else in
// this module is built on.
package engine

import (
	"context"
	"time"

	"go.uber.org/multierr"

	"github.com/ignitedb/ignite/internal/compaction"
	"github.com/ignitedb/ignite/internal/index"
	"github.com/ignitedb/ignite/internal/record"
	"github.com/ignitedb/ignite/internal/recovery"
	"github.com/ignitedb/ignite/internal/storage"
	"github.com/ignitedb/ignite/pkg/errors"
)

// New opens the engine against the directory named in config.Options.DataDir,
// recovering its index from any hint file and a full segment rescan before
// returning. The returned Engine always starts with a brand new active
// segment; no previously partially-written segment is resumed.
func New(config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "engine configuration is required",
		).WithField("config").WithRule("required")
	}

	s, err := storage.New(&storage.Config{Options: config.Options, Logger: config.Logger})
	if err != nil {
		return nil, err
	}

	idx, err := index.New(&index.Config{Logger: config.Logger})
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	if err := recovery.Recover(s, idx, config.Logger); err != nil {
		_ = s.Close()
		_ = idx.Close()
		return nil, err
	}

	return &Engine{
		options:    config.Options,
		log:        config.Logger,
		index:      idx,
		storage:    s,
		compaction: compaction.New(config.Logger),
	}, nil
}

// Put writes value for key, overwriting any prior value. It does not
// require key to already exist.
func (e *Engine) Put(key, value []byte) error {
	return e.write(key, value, false)
}

// Update writes value for key, but fails with a not-found error if key has
// no existing live entry.
func (e *Engine) Update(key, value []byte) error {
	return e.write(key, value, true)
}

func (e *Engine) write(key, value []byte, requireExists bool) error {
	if e.closed.Load() {
		return errors.ErrEngineClosed
	}
	if len(key) == 0 {
		return errors.NewInvalidKeyError()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if requireExists {
		if _, err := e.index.Get(string(key)); err != nil {
			return err
		}
	}

	ts := time.Now().UnixNano()
	data := record.Encode(ts, key, value)

	fileID, offset, err := e.storage.AppendActive(data)
	if err != nil {
		return err
	}

	return e.index.Upsert(string(key), index.Entry{
		Timestamp: ts,
		FileID:    fileID,
		Offset:    offset,
		EntrySize: int64(len(data)),
	})
}

// Delete removes key, appending a tombstone record. It fails with a
// not-found error if key has no existing live entry.
func (e *Engine) Delete(key []byte) error {
	if e.closed.Load() {
		return errors.ErrEngineClosed
	}
	if len(key) == 0 {
		return errors.NewInvalidKeyError()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.index.Get(string(key)); err != nil {
		return err
	}

	ts := time.Now().UnixNano()
	data := record.Encode(ts, key, nil)

	if _, _, err := e.storage.AppendActive(data); err != nil {
		return err
	}

	return e.index.Remove(string(key))
}

// Get returns the current value for key, or a not-found error if key is
// absent or was last written as a tombstone.
func (e *Engine) Get(key []byte) ([]byte, error) {
	if e.closed.Load() {
		return nil, errors.ErrEngineClosed
	}
	if len(key) == 0 {
		return nil, errors.NewInvalidKeyError()
	}

	e.mu.Lock()
	entry, err := e.index.Get(string(key))
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	rec, err := e.storage.ReadRecordAt(entry.FileID, entry.Offset)
	if err != nil {
		return nil, err
	}
	if rec.IsTombstone() {
		return nil, errors.NewKeyNotFoundError(string(key), "Get")
	}
	return rec.Value, nil
}

// Compact runs a single compaction pass, merging every currently sealed
// segment into one and reclaiming the space held by superseded records.
// It holds the engine mutex for the whole run, per spec's locking
// discipline: nothing else may mutate the index between the moment
// compaction snapshots which segments are sealed and the moment it
// finishes rebuilding the index entries the merge produced, so a
// concurrent Put/Update/Delete can never race the reindex step.
func (e *Engine) Compact(ctx context.Context) (compaction.Stats, error) {
	if e.closed.Load() {
		return compaction.Stats{}, errors.ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.compaction.Run(ctx, e.storage, e.index)
}

// Close shuts the engine down, closing storage and the index and combining
// any failures from either into a single error.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return errors.ErrEngineClosed
	}

	err := multierr.Append(e.storage.Close(), e.index.Close())
	e.log.Infow("engine closed")
	return err
}
