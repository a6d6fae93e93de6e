package engine

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ignitedb/ignite/internal/compaction"
	"github.com/ignitedb/ignite/internal/index"
	"github.com/ignitedb/ignite/internal/storage"
	"github.com/ignitedb/ignite/pkg/options"
)

// Engine is the top-level coordinator: it owns the index and storage
// subsystems, serializes writes through a single mutex, and exposes the
// Put/Get/Update/Delete/Compact/Close operations the rest of the system
// is built on.
type Engine struct {
	mu sync.Mutex

	options    *options.Options
	log        *zap.SugaredLogger
	index      *index.Index
	storage    *storage.Storage
	compaction *compaction.Compaction
	closed     atomic.Bool
}

// Config holds the parameters needed to initialize a new Engine.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}
