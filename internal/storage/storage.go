// Package storage manages the on-disk segment files a Bitcask-style
// engine reads and appends to: exactly one active segment that absorbs
// every write, any number of sealed segments retained for reads until
// compaction reclaims them, and the handle bookkeeping needed to keep
// file descriptor usage bounded as the segment count grows.
//
// Every call that opens this package's Storage always starts a brand new
// active segment rather than resuming a partially filled one left over
// from a previous run. A previous segment may have an index entry pointing
// at a byte offset that a concurrent crash-mid-write truncated; refusing to
// append to it keeps that invariant simple to reason about at the cost of
// leaving small sealed segments behind for compaction to clean up later.
package storage

import (
	stdErrors "errors"
	"io"
	"os"
	"path/filepath"

	fileatomic "github.com/natefinch/atomic"
	"go.uber.org/multierr"

	"github.com/ignitedb/ignite/internal/fsutil"
	"github.com/ignitedb/ignite/internal/record"
	"github.com/ignitedb/ignite/pkg/errors"
	"github.com/ignitedb/ignite/pkg/filesys"
	"github.com/ignitedb/ignite/pkg/seginfo"
)

// ErrStorageClosed is the cause of every error returned by an operation
// attempted against a closed Storage.
var ErrStorageClosed = stdErrors.New("storage is closed")

// New opens dataDir, creates it if missing, and starts a fresh active
// segment one past the highest existing segment id (or at id 1 if the
// directory holds none).
func New(config *Config) (*Storage, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "storage configuration is required",
		).WithField("config").WithRule("required")
	}

	dataDir := config.Options.DataDir
	if err := filesys.CreateDir(dataDir, 0o755, true); err != nil {
		return nil, errors.ClassifyDirectoryCreationError(err, dataDir)
	}

	ids, err := seginfo.ListSegmentIDs(dataDir)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to list existing segments").WithPath(dataDir)
	}

	var nextID uint64 = 1
	if len(ids) > 0 {
		nextID = ids[len(ids)-1] + 1
	}

	s := &Storage{
		dataDir:      dataDir,
		segmentSize:  config.Options.SegmentSize,
		fsyncOnWrite: config.Options.FsyncOnWrite,
		handles:      newHandleCache(config.Options.HandleCacheSize),
		log:          config.Logger,
	}

	file, err := s.createSegmentFile(nextID)
	if err != nil {
		return nil, err
	}

	s.activeSegment = file
	s.activeSegmentID = nextID
	s.size = 0

	if err := fsutil.SyncDir(dataDir); err != nil {
		config.Logger.Warnw("failed to fsync data directory after opening active segment", "dir", dataDir, "error", err)
	}

	config.Logger.Infow("storage opened", "dataDir", dataDir, "activeSegmentID", nextID, "priorSegments", len(ids))
	return s, nil
}

func (s *Storage) createSegmentFile(id uint64) (*os.File, error) {
	path := s.SegmentPath(id)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, seginfo.SegmentFileName(id))
	}
	return file, nil
}

// SegmentPath returns the absolute path of segment id under dataDir.
func (s *Storage) SegmentPath(id uint64) string {
	return filepath.Join(s.dataDir, seginfo.SegmentFileName(id))
}

// HintPath returns the absolute path of the hint file for segment id.
func (s *Storage) HintPath(id uint64) string {
	return filepath.Join(s.dataDir, seginfo.HintFileName(id))
}

// TempPath returns the absolute path for a compaction scratch file keyed
// by a nanosecond timestamp.
func (s *Storage) TempPath(nowNs int64) string {
	return filepath.Join(s.dataDir, seginfo.TempFileName(nowNs))
}

// DataDir returns the directory Storage was opened against.
func (s *Storage) DataDir() string {
	return s.dataDir
}

// ActiveSegmentID returns the id of the segment currently absorbing writes.
func (s *Storage) ActiveSegmentID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeSegmentID
}

// AppendActive writes data to the active segment, then, once the write and
// any fsync have fully completed, consults the resulting size and rotates
// to a fresh active segment if the threshold was crossed. Rotation only
// ever affects segments that absorb *later* appends - the record passed to
// this call always lands in the segment that was active when AppendActive
// was invoked, and that write can never be lost to a rotation decision. It
// returns the id of the segment the record landed in and the byte offset
// at which it begins.
func (s *Storage) AppendActive(data []byte) (fileID uint64, offset int64, err error) {
	if s.closed.Load() {
		return 0, 0, ErrStorageClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recordSize := int64(len(data))
	offset = s.size
	fileID = s.activeSegmentID

	n, werr := s.activeSegment.Write(data)
	if werr != nil {
		return 0, 0, errors.NewStorageError(werr, errors.ErrorCodeIO, "failed to append record").
			WithSegmentID(int(fileID)).
			WithOffset(int(offset))
	}
	if int64(n) != recordSize {
		return 0, 0, errors.NewStorageError(io.ErrShortWrite, errors.ErrorCodeIO, "short write appending record").
			WithSegmentID(int(fileID)).
			WithOffset(int(offset))
	}

	if s.fsyncOnWrite {
		if serr := s.activeSegment.Sync(); serr != nil {
			return 0, 0, errors.ClassifySyncError(serr, seginfo.SegmentFileName(fileID), s.SegmentPath(fileID), int(offset))
		}
	}

	s.size += recordSize

	if s.size > int64(s.segmentSize) {
		if err := s.rotateLocked(); err != nil {
			return 0, 0, err
		}
	}

	return fileID, offset, nil
}

// rotateLocked seals the current active segment and opens the next one.
// Callers must hold s.mu.
func (s *Storage) rotateLocked() error {
	nextID := s.activeSegmentID + 1
	// A compacted segment may already hold an id above the active one.
	if ids, err := seginfo.ListSegmentIDs(s.dataDir); err == nil && len(ids) > 0 && ids[len(ids)-1] >= nextID {
		nextID = ids[len(ids)-1] + 1
	}

	if err := s.activeSegment.Sync(); err != nil {
		return errors.NewRotationFailedError(err, nextID)
	}
	sealedID := s.activeSegmentID
	sealedFile := s.activeSegment

	newFile, err := s.createSegmentFile(nextID)
	if err != nil {
		return errors.NewRotationFailedError(err, nextID)
	}

	s.activeSegment = newFile
	s.activeSegmentID = nextID
	s.size = 0

	if err := fsutil.SyncDir(s.dataDir); err != nil {
		s.log.Warnw("failed to fsync data directory after rotation", "dir", s.dataDir, "error", err)
	}

	_ = sealedFile.Close()
	s.log.Infow("rotated active segment", "sealedSegmentID", sealedID, "newSegmentID", nextID)
	return nil
}

// ReadRecordAt decodes the record stored at offset within segment fileID.
// It releases the storage mutex before doing the actual positioned read so
// a slow disk never blocks concurrent appends.
func (s *Storage) ReadRecordAt(fileID uint64, offset int64) (*record.Record, error) {
	if s.closed.Load() {
		return nil, ErrStorageClosed
	}

	s.mu.Lock()
	isActive := fileID == s.activeSegmentID
	activeFile := s.activeSegment
	s.mu.Unlock()

	var file *os.File
	if isActive {
		file = activeFile
	} else {
		opened, err := s.handles.GetOrOpen(fileID, func() (*os.File, error) {
			return os.Open(s.SegmentPath(fileID))
		})
		if err != nil {
			return nil, errors.ClassifyFileOpenError(err, s.SegmentPath(fileID), seginfo.SegmentFileName(fileID))
		}
		file = opened
	}

	info, err := file.Stat()
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat segment file").
			WithSegmentID(int(fileID)).WithPath(s.SegmentPath(fileID))
	}

	rec, _, err := record.DecodeAt(file, offset, info.Size())
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// SegmentIDs returns every segment id currently present in dataDir, sorted
// ascending.
func (s *Storage) SegmentIDs() ([]uint64, error) {
	return seginfo.ListSegmentIDs(s.dataDir)
}

// DeleteSegment removes a sealed segment's file from disk and evicts any
// cached handle for it. It is an error to delete the active segment.
func (s *Storage) DeleteSegment(fileID uint64) error {
	s.mu.Lock()
	if fileID == s.activeSegmentID {
		s.mu.Unlock()
		return errors.NewStorageError(nil, errors.ErrorCodeInvalidInput, "cannot delete the active segment").
			WithSegmentID(int(fileID))
	}
	s.mu.Unlock()

	s.handles.Evict(fileID)
	if err := filesys.DeleteFile(s.SegmentPath(fileID)); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to delete segment file").
			WithSegmentID(int(fileID)).WithPath(s.SegmentPath(fileID))
	}
	return nil
}

// FinalizeCompaction atomically installs tempPath as segment newFileID and
// removes every segment listed in obsoleteFileIDs. The rename happens
// before the deletes, so a crash between the two leaves the new segment
// live and a subset of the old segments still on disk - safe, since the
// new segment is a superset of their live records.
func (s *Storage) FinalizeCompaction(tempPath string, newFileID uint64, obsoleteFileIDs []uint64) error {
	targetPath := s.SegmentPath(newFileID)

	if err := fileatomic.ReplaceFile(tempPath, targetPath); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to install compacted segment").
			WithSegmentID(int(newFileID)).WithPath(targetPath)
	}

	if err := fsutil.SyncDir(s.dataDir); err != nil {
		s.log.Warnw("failed to fsync data directory after compaction install", "dir", s.dataDir, "error", err)
	}

	for _, id := range obsoleteFileIDs {
		if err := s.DeleteSegment(id); err != nil {
			s.log.Warnw("failed to delete obsolete segment after compaction", "segmentID", id, "error", err)
		}
	}
	return nil
}

// Close fsyncs and closes the active segment and every cached sealed
// segment handle, combining any failures into a single error.
func (s *Storage) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrStorageClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if syncErr := s.activeSegment.Sync(); syncErr != nil {
		err = multierr.Append(err, errors.NewStorageError(syncErr, errors.ErrorCodeIO, "failed to sync active segment on close").
			WithSegmentID(int(s.activeSegmentID)))
	}
	if closeErr := s.activeSegment.Close(); closeErr != nil {
		err = multierr.Append(err, errors.NewStorageError(closeErr, errors.ErrorCodeIO, "failed to close active segment").
			WithSegmentID(int(s.activeSegmentID)))
	}
	if cacheErr := s.handles.Close(); cacheErr != nil {
		err = multierr.Append(err, errors.NewStorageError(cacheErr, errors.ErrorCodeIO, "failed to close cached segment handles"))
	}

	s.log.Infow("storage closed", "activeSegmentID", s.activeSegmentID)
	return err
}
