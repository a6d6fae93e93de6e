package storage

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/ignitedb/ignite/pkg/options"
	"go.uber.org/zap"
)

// Storage owns the on-disk segment files: the single active segment new
// writes append to, and the read-only handles for sealed segments that
// compaction and point reads consult. A mutex serializes the state that
// every append and rotation touches; reads of sealed segments only need a
// handle from the cache, which has its own locking.
type Storage struct {
	mu sync.Mutex

	dataDir         string
	activeSegment   *os.File
	activeSegmentID uint64
	size            int64

	segmentSize  uint64
	fsyncOnWrite bool

	handles *handleCache
	closed  atomic.Bool
	log     *zap.SugaredLogger
}

// Config encapsulates the configuration parameters required to initialize
// a Storage instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}
