//go:build unix

// Package fsutil provides the one low-level filesystem primitive the
// standard library's os package does not expose directly: fsyncing a
// directory entry after a rename or unlink, which compaction needs so that
// the directory's view of which segments exist is itself durable before the
// predecessor segments are removed from the registry.
package fsutil

import "golang.org/x/sys/unix"

// SyncDir opens dir and fsyncs it, forcing the directory entry changes from
// a preceding rename or unlink to reach stable storage.
func SyncDir(dir string) error {
	fd, err := unix.Open(dir, unix.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	return unix.Fsync(fd)
}
