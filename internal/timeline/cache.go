package timeline

import (
	"container/list"

	"github.com/horristic/plyseq/internal/ply"
)

// DefaultCacheSize is the frame capacity used when a caller passes a
// non-positive capacity.
const DefaultCacheSize = 10

// LoadFunc loads the cloud for one frame on a cache miss.
type LoadFunc func(frame int) (*ply.Cloud, error)

// CacheStats is a snapshot of cache activity counters. Eviction and
// hit/miss counts accumulate over the cache's lifetime; Clear does not
// reset them.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	Capacity  int
}

// FrameCache keeps the most recently used decoded frames up to a fixed
// entry-count capacity. Recency is tracked with a doubly linked list: front
// is most recent, evictions pop the back. Not safe for concurrent use; it
// inherits the single-threaded playback contract.
type FrameCache struct {
	capacity  int
	items     map[int]*list.Element
	evictList *list.List
	hits      int64
	misses    int64
	evictions int64
}

type cacheEntry struct {
	frame int
	cloud *ply.Cloud
}

// NewFrameCache creates a cache holding up to capacity frames.
func NewFrameCache(capacity int) *FrameCache {
	if capacity < 1 {
		capacity = DefaultCacheSize // Default
	}
	return &FrameCache{
		capacity:  capacity,
		items:     make(map[int]*list.Element, capacity),
		evictList: list.New(),
	}
}

// GetOrLoad returns the cached cloud for frame, calling load on a miss. A
// hit refreshes the frame's recency. A failed load leaves the cache
// untouched and returns the load error unchanged.
func (c *FrameCache) GetOrLoad(frame int, load LoadFunc) (*ply.Cloud, error) {
	if el, ok := c.items[frame]; ok {
		c.hits++
		c.evictList.MoveToFront(el)
		return el.Value.(*cacheEntry).cloud, nil
	}

	c.misses++
	cloud, err := load(frame)
	if err != nil {
		return nil, err
	}

	c.items[frame] = c.evictList.PushFront(&cacheEntry{frame: frame, cloud: cloud})
	for c.evictList.Len() > c.capacity {
		c.removeOldest()
	}
	return cloud, nil
}

func (c *FrameCache) removeOldest() {
	el := c.evictList.Back()
	if el == nil {
		return
	}
	entry := el.Value.(*cacheEntry)
	c.evictList.Remove(el)
	delete(c.items, entry.frame)
	c.evictions++
}

// Contains reports whether frame is cached without refreshing its recency.
func (c *FrameCache) Contains(frame int) bool {
	_, ok := c.items[frame]
	return ok
}

// Frames returns cached frame numbers from most to least recently used.
func (c *FrameCache) Frames() []int {
	out := make([]int, 0, c.evictList.Len())
	for el := c.evictList.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*cacheEntry).frame)
	}
	return out
}

// Len returns the current number of cached frames.
func (c *FrameCache) Len() int {
	return c.evictList.Len()
}

// Capacity returns the maximum number of cached frames.
func (c *FrameCache) Capacity() int {
	return c.capacity
}

// Clear drops all cached frames. Activity counters are preserved.
func (c *FrameCache) Clear() {
	c.items = make(map[int]*list.Element, c.capacity)
	c.evictList.Init()
}

// Stats returns a snapshot of the cache counters.
func (c *FrameCache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      c.evictList.Len(),
		Capacity:  c.capacity,
	}
}
