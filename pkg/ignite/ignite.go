// Package ignite provides a high-performance key/value data store
// designed for fast read and write operations, inspired by Bitcask.
// It combines an in-memory hash table (the index) with an append-only log
// structure on disk to achieve high throughput. It is designed for applications
// requiring fast read and write operations, such as caching, session management,
// and real-time data processing, aiming to provide a simple, efficient, and
// reliable solution for embedded key-value storage in Go applications.
package ignite

import (
	"context"

	"github.com/ignitedb/ignite/internal/compaction"
	"github.com/ignitedb/ignite/internal/engine"
	"github.com/ignitedb/ignite/pkg/logger"
	"github.com/ignitedb/ignite/pkg/options"
)

// Instance is the primary entry point for interacting with the Ignite store,
// providing methods for setting, getting, and deleting key-value pairs.
// It encapsulates the core engine responsible for data handling and
// the configuration options for this specific database instance.
type Instance struct {
	engine  *engine.Engine
	options *options.Options
}

// NewInstance creates and initializes a new Ignite DB instance, opening (or
// recovering) the data directory named in the resolved options.
func NewInstance(service string, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New(service)

	resolved := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&resolved)
	}

	eng, err := engine.New(&engine.Config{Logger: log, Options: &resolved})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &resolved}, nil
}

// Put stores a key-value pair in the database. If the key already exists,
// its value will be overwritten. The operation is durable and will be
// written to the append-only log.
func (i *Instance) Put(key, value []byte) error {
	return i.engine.Put(key, value)
}

// Update stores a value for a key that must already have a live entry,
// returning a not-found error otherwise.
func (i *Instance) Update(key, value []byte) error {
	return i.engine.Update(key, value)
}

// Get retrieves the value associated with the given key.
func (i *Instance) Get(key []byte) ([]byte, error) {
	return i.engine.Get(key)
}

// Delete removes a key-value pair from the database by appending a
// tombstone record. The space it occupies is reclaimed by Compact.
func (i *Instance) Delete(key []byte) error {
	return i.engine.Delete(key)
}

// Compact runs a single compaction pass, merging sealed segments and
// reclaiming the space held by superseded and deleted records.
func (i *Instance) Compact(ctx context.Context) (compaction.Stats, error) {
	return i.engine.Compact(ctx)
}

// Close gracefully shuts down the Ignite DB instance, flushing and closing
// every open segment file and releasing the in-memory index.
func (i *Instance) Close() error {
	return i.engine.Close()
}
