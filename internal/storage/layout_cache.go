package storage

import (
	"container/list"
	"sync"

	"github.com/tuannm99/novatuple/internal/record"
)

const DefaultLayoutCacheCapacity = 64

type layoutEntry struct {
	hash   uint64
	desc   *record.TupleDesc
	layout *Layout
}

// LayoutCache memoizes Layouts by tuple shape. Entries are bucketed by
// TupleDesc.Hash and confirmed with TupleDesc.Equal, so two descriptors
// with the same types but different aliases hit the same entry.
// The least recently used entry is evicted once capacity is reached.
type LayoutCache struct {
	mu       sync.Mutex
	capacity int
	lru      *list.List // front = most recently used
	buckets  map[uint64][]*list.Element

	hits, misses uint64
}

func NewLayoutCache(capacity int) *LayoutCache {
	if capacity <= 0 {
		capacity = DefaultLayoutCacheCapacity
	}
	return &LayoutCache{
		capacity: capacity,
		lru:      list.New(),
		buckets:  make(map[uint64][]*list.Element),
	}
}

// Get returns the layout for desc, building it on a miss.
func (c *LayoutCache) Get(desc *record.TupleDesc) *Layout {
	h := desc.Hash()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, el := range c.buckets[h] {
		e := el.Value.(*layoutEntry)
		if e.desc.Equal(desc) {
			c.lru.MoveToFront(el)
			c.hits++
			return e.layout
		}
	}

	c.misses++
	e := &layoutEntry{hash: h, desc: desc, layout: NewLayout(desc)}
	c.buckets[h] = append(c.buckets[h], c.lru.PushFront(e))
	if c.lru.Len() > c.capacity {
		c.evictLocked()
	}
	return e.layout
}

func (c *LayoutCache) evictLocked() {
	el := c.lru.Back()
	if el == nil {
		return
	}
	c.lru.Remove(el)
	e := el.Value.(*layoutEntry)

	bucket := c.buckets[e.hash]
	for i, x := range bucket {
		if x == el {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(c.buckets, e.hash)
	} else {
		c.buckets[e.hash] = bucket
	}
	logger.Debug().Str("shape", e.desc.String()).Msg("layout evicted")
}

func (c *LayoutCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns hit and miss counters.
func (c *LayoutCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
