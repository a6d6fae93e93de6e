package compaction

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Compaction drives the merge-to-one-segment maintenance pass. It carries
// no per-run state beyond a logger and lightweight counters; every Run call
// is independent and safe to invoke concurrently with live traffic.
type Compaction struct {
	log       *zap.SugaredLogger
	runCount  atomic.Int64
	lastNanos atomic.Int64
}

// Stats summarizes the outcome of a single Run call.
type Stats struct {
	SegmentsCompacted int
	RecordsWritten    int
	Duration          time.Duration
}
