package storage

import (
	"container/list"
	"os"
	"sync"
)

// handleCache bounds the number of open read-only file descriptors kept
// for sealed segments. Handles beyond its capacity are evicted
// least-recently-used; a later read for an evicted segment just reopens
// it, so eviction never loses data, only an open fd.
type handleCache struct {
	mu       sync.Mutex
	capacity int
	lruList  *list.List
	items    map[uint64]*list.Element
}

type handleCacheItem struct {
	fileID uint64
	file   *os.File
}

func newHandleCache(capacity int) *handleCache {
	if capacity <= 0 {
		capacity = 32
	}
	return &handleCache{
		capacity: capacity,
		lruList:  list.New(),
		items:    make(map[uint64]*list.Element),
	}
}

// GetOrOpen returns the cached handle for fileID, opening it with opener
// and caching it if it isn't already present.
func (c *handleCache) GetOrOpen(fileID uint64, opener func() (*os.File, error)) (*os.File, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[fileID]; ok {
		c.lruList.MoveToFront(elem)
		return elem.Value.(*handleCacheItem).file, nil
	}

	file, err := opener()
	if err != nil {
		return nil, err
	}

	if c.lruList.Len() >= c.capacity {
		c.evictOldest()
	}

	item := &handleCacheItem{fileID: fileID, file: file}
	elem := c.lruList.PushFront(item)
	c.items[fileID] = elem
	return file, nil
}

// Evict closes and forgets the handle for fileID, if cached. Used when a
// segment is deleted (post-compaction cleanup) so the cache never returns
// a handle to a file that no longer exists.
func (c *handleCache) Evict(fileID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[fileID]
	if !ok {
		return
	}
	c.lruList.Remove(elem)
	delete(c.items, fileID)
	_ = elem.Value.(*handleCacheItem).file.Close()
}

func (c *handleCache) evictOldest() {
	elem := c.lruList.Back()
	if elem == nil {
		return
	}
	c.lruList.Remove(elem)
	item := elem.Value.(*handleCacheItem)
	delete(c.items, item.fileID)
	_ = item.file.Close()
}

// Close closes every cached handle.
func (c *handleCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for e := c.lruList.Front(); e != nil; e = e.Next() {
		item := e.Value.(*handleCacheItem)
		if err := item.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.lruList.Init()
	c.items = make(map[uint64]*list.Element)
	return firstErr
}
