package options

import "time"

const (
	// Specifies the default base directory where IgniteDB will store its
	// segment, hint, and temp files.
	DefaultDataDir = "/var/lib/ignitedb"

	// Defines the default compaction interval carried in Options; nothing in
	// this module schedules compaction from it.
	DefaultCompactInterval = time.Hour * 5

	// Specifies the default target size for an active segment before it is
	// sealed and rotation starts a new one, in bytes.
	DefaultSegmentSize uint64 = 1024

	// Specifies the default number of sealed-segment file handles the
	// engine keeps open at once for reads.
	DefaultHandleCacheSize = 32

	// Specifies whether each append fsyncs the active segment before
	// returning by default.
	DefaultFsyncOnWrite = true
)

// Holds the default configuration settings for an IgniteDB instance.
var defaultOptions = Options{
	DataDir:         DefaultDataDir,
	CompactInterval: DefaultCompactInterval,
	SegmentSize:     DefaultSegmentSize,
	HandleCacheSize: DefaultHandleCacheSize,
	FsyncOnWrite:    DefaultFsyncOnWrite,
}

func NewDefaultOptions() Options {
	return defaultOptions
}
