// Package seginfo names, parses, and discovers the three kinds of files the
// storage engine keeps in its data directory:
//
//	log-file-<id>          a segment, active or sealed
//	hint-<id>.log           a post-compaction index snapshot for segment <id>
//	temp-log-file-<ns>      a compaction's in-progress replacement segment
//
// id is a decimal, non-zero-padded uint64 assigned in strictly increasing
// order; ns is a nanosecond timestamp used only to make concurrent
// compactions' temp files distinguishable before one of them wins the
// rename race.
package seginfo

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ignitedb/ignite/pkg/filesys"
)

const (
	segmentPrefix = "log-file-"
	hintPrefix    = "hint-"
	hintSuffix    = ".log"
	tempPrefix    = "temp-log-file-"
)

// SegmentFileName returns the canonical filename for segment id.
func SegmentFileName(id uint64) string {
	return fmt.Sprintf("%s%d", segmentPrefix, id)
}

// HintFileName returns the canonical hint-file name for segment id;
// compaction names each hint file after the segment it just produced.
func HintFileName(id uint64) string {
	return fmt.Sprintf("%s%d%s", hintPrefix, id, hintSuffix)
}

// TempFileName returns the canonical name for a compaction's in-progress
// replacement segment, keyed by a nanosecond timestamp.
func TempFileName(nowNs int64) string {
	return fmt.Sprintf("%s%d", tempPrefix, nowNs)
}

// ParseSegmentID extracts the numeric id from a `log-file-<id>` filename.
func ParseSegmentID(name string) (uint64, bool) {
	rest, ok := strings.CutPrefix(name, segmentPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ParseHintID extracts the numeric id from a `hint-<id>.log` filename.
func ParseHintID(name string) (uint64, bool) {
	rest, ok := strings.CutPrefix(name, hintPrefix)
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, hintSuffix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// IsTempFile reports whether name is a leftover compaction temp file.
func IsTempFile(name string) bool {
	return strings.HasPrefix(name, tempPrefix)
}

// ListSegmentIDs enumerates every log-file-<id> entry in dir and returns
// their ids sorted ascending.
func ListSegmentIDs(dir string) ([]uint64, error) {
	names, err := filesys.ListDirEntries(dir)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(names))
	for _, name := range names {
		if id, ok := ParseSegmentID(name); ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// LatestHintID returns the highest hint-<id>.log id present in dir, if any.
func LatestHintID(dir string) (id uint64, found bool, err error) {
	names, err := filesys.ListDirEntries(dir)
	if err != nil {
		return 0, false, err
	}

	for _, name := range names {
		if candidate, ok := ParseHintID(name); ok {
			if !found || candidate > id {
				id = candidate
				found = true
			}
		}
	}
	return id, found, nil
}

// ListTempFiles enumerates leftover temp-log-file-* entries in dir, which
// recovery ignores (optionally removing them).
func ListTempFiles(dir string) ([]string, error) {
	names, err := filesys.ListDirEntries(dir)
	if err != nil {
		return nil, err
	}

	temps := make([]string, 0)
	for _, name := range names {
		if IsTempFile(name) {
			temps = append(temps, name)
		}
	}
	return temps, nil
}
