package errors

import stdErrors "errors"

// Sentinel causes for the error taxonomy the storage engine exposes to
// callers. They are wrapped inside the richer StorageError/IndexError/
// ValidationError types via baseError.cause, so callers can use
// errors.Is(err, errors.ErrKeyNotFound) without caring about the wrapper,
// while code that wants the structured context can still errors.As into the
// concrete type.
var (
	// ErrInvalidKey is the cause of every error returned for an empty key.
	ErrInvalidKey = stdErrors.New("key must not be empty")

	// ErrKeyNotFound is the cause of every error returned when a key has no
	// live entry in the index.
	ErrKeyNotFound = stdErrors.New("key not found")

	// ErrCorruptRecord is the cause of every error returned when a record's
	// header claims sizes that do not fit inside its segment, or when a
	// positioned read came back short.
	ErrCorruptRecord = stdErrors.New("record is corrupt")

	// ErrRotationFailed is the cause of every error returned when the
	// segment manager cannot create the next active segment.
	ErrRotationFailed = stdErrors.New("segment rotation failed")

	// ErrEngineClosed is the cause of every error returned by an operation
	// attempted against a closed engine.
	ErrEngineClosed = stdErrors.New("engine is closed")
)

// NewInvalidKeyError builds the ValidationError a caller sees for Put,
// Update, or Delete calls made with an empty key.
func NewInvalidKeyError() *ValidationError {
	return NewValidationError(ErrInvalidKey, ErrorCodeInvalidKey, "key must not be empty").
		WithField("key").
		WithRule("required")
}

// NewCorruptRecordError builds the StorageError surfaced when steady-state
// reads hit a record that fails header validation. Recovery-time corruption
// is handled separately (it ends the segment scan, it does not error).
func NewCorruptRecordError(fileID uint64, offset int64) *StorageError {
	return NewStorageError(ErrCorruptRecord, ErrorCodeRecordCorrupted, "record is corrupt").
		WithSegmentID(int(fileID)).
		WithOffset(int(offset))
}

// NewRotationFailedError builds the StorageError surfaced when the segment
// manager fails to create the next active segment during rotation.
func NewRotationFailedError(cause error, nextSegmentID uint64) *StorageError {
	return NewStorageError(stdErrors.Join(ErrRotationFailed, cause), ErrorCodeRotationFailed,
		"failed to rotate to next active segment").
		WithSegmentID(int(nextSegmentID)).
		WithDetail("operation", "segment_rotation")
}
