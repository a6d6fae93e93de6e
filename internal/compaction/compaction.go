// Package compaction collapses a storage engine's sealed segments into a
// single replacement segment containing only live records, then installs
// it and deletes its predecessors. It never touches the segment that is
// active when a run starts: that segment keeps absorbing writes for the
// run's entire duration, so only sealed segments are ever merged away.
package compaction

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ignitedb/ignite/internal/index"
	"github.com/ignitedb/ignite/internal/record"
	"github.com/ignitedb/ignite/internal/storage"
	"github.com/ignitedb/ignite/pkg/errors"
)

// New returns a Compaction ready to run against any Storage/Index pair.
func New(log *zap.SugaredLogger) *Compaction {
	return &Compaction{log: log}
}

// RunCount returns how many Run calls have completed (successfully or not)
// since construction.
func (c *Compaction) RunCount() int64 {
	return c.runCount.Load()
}

// LastDuration returns how long the most recently completed Run call took.
func (c *Compaction) LastDuration() time.Duration {
	return time.Duration(c.lastNanos.Load())
}

// Run merges every currently sealed segment into one new segment holding
// only the live record for each key, then installs it in place of its
// predecessors. It is safe to call while writes continue: any write that
// lands after Run captures its segment snapshot is left untouched, because
// it either goes to the (excluded) segment active at snapshot time or to a
// later segment created by a rotation during the run.
func (c *Compaction) Run(ctx context.Context, s *storage.Storage, idx *index.Index) (Stats, error) {
	start := time.Now()
	defer func() {
		c.runCount.Add(1)
		c.lastNanos.Store(int64(time.Since(start)))
	}()

	allIDs, err := s.SegmentIDs()
	if err != nil {
		return Stats{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to list segments for compaction")
	}

	activeID := s.ActiveSegmentID()
	sealedIDs := make([]uint64, 0, len(allIDs))
	sealedSet := make(map[uint64]bool, len(allIDs))
	for _, id := range allIDs {
		if id == activeID {
			continue
		}
		sealedIDs = append(sealedIDs, id)
		sealedSet[id] = true
	}

	if len(sealedIDs) == 0 {
		c.log.Debugw("nothing to compact", "sealedSegments", len(sealedIDs))
		return Stats{SegmentsCompacted: 0, Duration: time.Since(start)}, nil
	}

	live := make(map[string]record.Record, 1024)
	for _, id := range sealedIDs {
		if err := ctx.Err(); err != nil {
			return Stats{}, err
		}
		if err := scanInto(s, id, live); err != nil {
			return Stats{}, err
		}
	}

	tempPath := s.TempPath(time.Now().UnixNano())
	offsets, sizes, err := writeLiveSet(tempPath, live)
	if err != nil {
		return Stats{}, err
	}

	refreshedIDs, err := s.SegmentIDs()
	if err != nil {
		return Stats{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to list segments before install")
	}
	var newID uint64 = 1
	for _, id := range refreshedIDs {
		if id >= newID {
			newID = id + 1
		}
	}

	if err := s.FinalizeCompaction(tempPath, newID, sealedIDs); err != nil {
		return Stats{}, err
	}

	for key, rec := range live {
		cur, err := idx.Get(key)
		if err != nil || !sealedSet[cur.FileID] {
			// Either the key is gone (deleted since this run's snapshot) or
			// a write newer than the snapshot already moved it elsewhere
			// (the active segment, or a segment created during the run);
			// either way leave the index as-is rather than resurrecting a
			// stale value.
			continue
		}
		_ = idx.Upsert(key, index.Entry{
			Timestamp: rec.Timestamp,
			FileID:    newID,
			Offset:    offsets[key],
			EntrySize: sizes[key],
		})
	}

	if err := idx.WriteHint(s.HintPath(newID)); err != nil {
		c.log.Warnw("failed to write post-compaction hint file", "segmentID", newID, "error", err)
	}

	stats := Stats{SegmentsCompacted: len(sealedIDs), RecordsWritten: len(live), Duration: time.Since(start)}
	c.log.Infow("compaction complete",
		"sealedSegments", stats.SegmentsCompacted,
		"recordsWritten", stats.RecordsWritten,
		"newSegmentID", newID,
		"duration", stats.Duration,
	)
	return stats, nil
}

// scanInto replays every record in segment id into live, applying
// tombstones and overwrites in on-disk order so the final map holds each
// key's most recent sealed-era value.
func scanInto(s *storage.Storage, id uint64, live map[string]record.Record) error {
	path := s.SegmentPath(id)
	file, err := os.Open(path)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open segment for compaction").
			WithSegmentID(int(id)).WithPath(path)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat segment for compaction").
			WithSegmentID(int(id)).WithPath(path)
	}

	size := info.Size()
	var offset int64
	for offset < size {
		rec, next, err := record.DecodeAt(file, offset, size)
		if err != nil {
			break
		}
		if rec.IsTombstone() {
			delete(live, string(rec.Key))
		} else {
			live[string(rec.Key)] = *rec
		}
		offset = next
	}
	return nil
}

// writeLiveSet encodes every record in live to path and fsyncs it,
// returning each key's byte offset and on-disk size within that file.
func writeLiveSet(path string, live map[string]record.Record) (offsets map[string]int64, sizes map[string]int64, err error) {
	f, ferr := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if ferr != nil {
		return nil, nil, errors.NewStorageError(ferr, errors.ErrorCodeIO, "failed to create compaction temp file").WithPath(path)
	}
	defer f.Close()

	offsets = make(map[string]int64, len(live))
	sizes = make(map[string]int64, len(live))

	var cursor int64
	for key, rec := range live {
		data := record.Encode(rec.Timestamp, []byte(key), rec.Value)
		n, werr := f.Write(data)
		if werr != nil {
			return nil, nil, errors.NewStorageError(werr, errors.ErrorCodeIO, "failed to write compacted record").WithPath(path)
		}
		offsets[key] = cursor
		sizes[key] = int64(n)
		cursor += int64(n)
	}

	if err := f.Sync(); err != nil {
		return nil, nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to sync compaction temp file").WithPath(path)
	}
	return offsets, sizes, nil
}
