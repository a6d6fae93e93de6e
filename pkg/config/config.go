// Package config loads the demo CLI's on-disk configuration file. It is
// consumed only by cmd/ignite; nothing under internal/ depends on it, since
// the engine itself is configured purely through pkg/options.OptionFunc.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ignitedb/ignite/pkg/options"
)

// File is the on-disk shape of an ignite CLI config file. FsyncOnWrite is a
// pointer so an explicit `fsyncOnWrite: false` in the file is distinguishable
// from the field being absent altogether - a plain bool's zero value can't
// tell those two cases apart, and "disable fsync" must be expressible.
type File struct {
	DataDir         string        `yaml:"dataDir"`
	SegmentSize     uint64        `yaml:"segmentSize"`
	CompactInterval time.Duration `yaml:"compactInterval"`
	HandleCacheSize int           `yaml:"handleCacheSize"`
	FsyncOnWrite    *bool         `yaml:"fsyncOnWrite"`
}

// Load reads a YAML config file from path. A missing file is not an error;
// it returns the zero File so callers can layer it under default options.
func Load(path string) (File, error) {
	var f File

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return f, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("failed to unmarshal config file %s: %w", path, err)
	}

	return f, nil
}

// OptionFuncs converts the loaded fields into OptionFuncs, skipping any
// field left at its zero value so defaults.go values win for those fields.
func (f File) OptionFuncs() []options.OptionFunc {
	var opts []options.OptionFunc

	if f.DataDir != "" {
		opts = append(opts, options.WithDataDir(f.DataDir))
	}
	if f.SegmentSize > 0 {
		opts = append(opts, options.WithSegmentSize(f.SegmentSize))
	}
	if f.CompactInterval > 0 {
		opts = append(opts, options.WithCompactInterval(f.CompactInterval))
	}
	if f.HandleCacheSize > 0 {
		opts = append(opts, options.WithHandleCacheSize(f.HandleCacheSize))
	}
	if f.FsyncOnWrite != nil {
		opts = append(opts, options.WithFsyncOnWrite(*f.FsyncOnWrite))
	}

	return opts
}
