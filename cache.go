package merkle

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"gitlab.com/NebulousLabs/errors"
)

// cacheKey identifies a power-of-two-width range by its start offset and
// width; only ranges on the recursive hot path of hashRange are ever
// queried, so width is always a power of two here.
type cacheKey struct {
	start int
	width int
}

// Every cached entry counts digestLen bytes against capacity.
// unboundedEntries is large enough that the LRU's own entry-count limit
// never triggers before our byte-budget eviction does.
const unboundedEntries = 1 << 24

// SubrootCache memoises hashRange(start, end) results for power-of-two
// width ranges, the only shape the engine queries on its recursive hot
// path. Entries narrower than Threshold are never stored. Stored bytes
// are tracked against Capacity; the least-recently-used entry (a Get
// counts as a use) is evicted first when the budget would be exceeded. A
// disabled cache (NewSubrootCache with disableOptimizations) must not
// change any engine output, only its cost.
type SubrootCache struct {
	threshold int
	capacity  int
	disabled  bool
	digestLen int

	store      *lru.Cache[cacheKey, []byte]
	storeBytes int
}

// NewSubrootCache builds a cache. threshold is the minimum range width in
// leaves admitted to the cache; capacity is the soft byte budget; digestLen
// is the width of a single cached digest. disableOptimizations bypasses the
// cache entirely, satisfying the "cache as optional for correctness" design
// note without requiring a second code path in the engine.
func NewSubrootCache(threshold, capacity, digestLen int, disableOptimizations bool) (*SubrootCache, error) {
	if !disableOptimizations && capacity <= 0 {
		return nil, errors.AddContext(ErrConfiguration, "cache capacity must be positive")
	}
	store, err := lru.New[cacheKey, []byte](unboundedEntries)
	if err != nil {
		return nil, errors.AddContext(ErrConfiguration, "could not allocate subroot cache")
	}
	return &SubrootCache{
		threshold: threshold,
		capacity:  capacity,
		disabled:  disableOptimizations,
		digestLen: digestLen,
		store:     store,
	}, nil
}

// Get returns the cached digest for (start, width), if present. The
// returned slice is a copy: callers are free to mutate it without
// poisoning the cache.
func (c *SubrootCache) Get(start, width int) ([]byte, bool) {
	if c.disabled {
		return nil, false
	}
	digest, ok := c.store.Get(cacheKey{start, width})
	if !ok {
		return nil, false
	}
	return append([]byte(nil), digest...), true
}

// Put inserts a digest for (start, width), evicting the
// least-recently-used entries until the byte budget is respected. It
// is a no-op for ranges narrower than Threshold.
func (c *SubrootCache) Put(start, width int, digest []byte) {
	if c.disabled || width < c.threshold {
		return
	}
	key := cacheKey{start, width}
	if c.store.Contains(key) {
		return
	}
	c.store.Add(key, append([]byte(nil), digest...))
	c.storeBytes += c.digestLen
	for c.storeBytes > c.capacity && c.store.Len() > 1 {
		if _, _, ok := c.store.RemoveOldest(); !ok {
			break
		}
		c.storeBytes -= c.digestLen
	}
}

// Clear invalidates every cached entry whose range reaches at or beyond
// oldSize, the conservative policy of §4.4: a new leaf only ever
// invalidates entries that would otherwise straddle unwritten territory.
func (c *SubrootCache) Clear(oldSize int) {
	if c.disabled {
		return
	}
	for _, key := range c.store.Keys() {
		if key.start+key.width > oldSize {
			if c.store.Remove(key) {
				c.storeBytes -= c.digestLen
			}
		}
	}
}
