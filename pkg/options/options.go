// Package options provides data structures and functions for configuring
// the Ignite database. It defines various parameters that control Ignite's
// storage behavior, performance, and maintenance operations, such as
// directory paths, segment size, and compaction intervals.
package options

import (
	"strings"
	"time"
)

// Defines the configuration parameters for Ignite DB.
// It provides control over storage, performance and maintenance aspects.
type Options struct {
	// Specifies the base path where segment, hint, and temp files are
	// stored. All three kinds of files live directly under this directory.
	//
	// Default: "/var/lib/ignitedb"
	DataDir string `json:"dataDir"`

	// Defines the size, in bytes, that the active segment must exceed
	// before it is sealed and a new one started. Smaller values rotate more often, trading
	// fewer bytes per segment for more open file handles and more frequent
	// compaction candidates.
	//
	// Default: 1024
	SegmentSize uint64 `json:"segmentSize"`

	// Defines how often an embedding scheduler is expected to run
	// compaction. Nothing in this module reads it or runs compaction on a
	// timer; compaction runs only when Compact is called.
	//
	// Default: 5h
	CompactInterval time.Duration `json:"compactInterval"`

	// Bounds the number of sealed-segment file handles kept open at once
	// for reads. Handles beyond this limit are evicted least-recently-used
	// and reopened on demand.
	//
	// Default: 32
	HandleCacheSize int `json:"handleCacheSize"`

	// Controls whether every Put/Update/Delete fsyncs the active segment
	// before returning. Disabling this trades durability for throughput.
	//
	// Default: true
	FsyncOnWrite bool `json:"fsyncOnWrite"`
}

// OptionFunc is a function type that modifies the Ignite system's configuration.
type OptionFunc func(*Options)

// Applies a predefined set of default configuration values to the Options struct.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		o.DataDir = opts.DataDir
		o.SegmentSize = opts.SegmentSize
		o.CompactInterval = opts.CompactInterval
		o.HandleCacheSize = opts.HandleCacheSize
		o.FsyncOnWrite = opts.FsyncOnWrite
	}
}

// Sets the primary data directory for Ignite.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// Sets the interval at which Ignite performs compaction operations.
func WithCompactInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.CompactInterval = interval
		}
	}
}

// Sets the size, in bytes, the active segment must exceed before it is rotated.
func WithSegmentSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.SegmentSize = size
		}
	}
}

// Sets the maximum number of sealed-segment file handles held open at once.
func WithHandleCacheSize(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.HandleCacheSize = n
		}
	}
}

// Sets whether writes fsync the active segment before returning.
func WithFsyncOnWrite(enabled bool) OptionFunc {
	return func(o *Options) {
		o.FsyncOnWrite = enabled
	}
}
