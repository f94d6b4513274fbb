package merkle

import (
	"gitlab.com/NebulousLabs/errors"
)

// Default configuration values, matching §6.
const (
	DefaultThreshold = 128
	DefaultCapacity  = 1 << 30
)

// Config holds the recognised construction options of §6.
type Config struct {
	// Algorithm selects the hash function; must be one of the eight
	// named in §4.1.
	Algorithm string

	// DisableSecurity omits the 0x00/0x01 domain prefixes when true.
	DisableSecurity bool

	// Threshold is the minimum range width (in leaves) admitted to the
	// subroot cache. Zero selects DefaultThreshold.
	Threshold int

	// Capacity is the subroot cache's soft byte budget. Zero selects
	// DefaultCapacity.
	Capacity int

	// DisableOptimizations bypasses the subroot cache entirely.
	DisableOptimizations bool
}

func (c Config) withDefaults() Config {
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	return c
}

// MerkleEngine is the core component of the log: it derives states,
// builds inclusion and consistency proofs, and appends new entries,
// reading leaf digests from a LeafStore and combining them through a
// Hasher, consulting a SubrootCache for large power-of-two subranges.
type MerkleEngine struct {
	store  LeafStore
	hasher *Hasher
	cache  *SubrootCache
	cfg    Config

	running     *runningRoot
	runningSize int
}

// NewEngine constructs a MerkleEngine over store using cfg. Construction
// fails with ErrConfiguration if the algorithm is unrecognised or the
// cache capacity is non-positive while optimizations are enabled.
func NewEngine(store LeafStore, cfg Config) (*MerkleEngine, error) {
	cfg = cfg.withDefaults()

	hasher, err := NewHasher(cfg.Algorithm, !cfg.DisableSecurity)
	if err != nil {
		return nil, err
	}

	if !cfg.DisableOptimizations && cfg.Capacity <= 0 {
		return nil, errors.AddContext(ErrConfiguration, "cache capacity must be positive")
	}

	cache, err := NewSubrootCache(cfg.Threshold, cfg.Capacity, hasher.Size(), cfg.DisableOptimizations)
	if err != nil {
		return nil, err
	}

	e := &MerkleEngine{
		store:   store,
		hasher:  hasher,
		cache:   cache,
		cfg:     cfg,
		running: newRunningRoot(hasher),
	}
	if err := e.primeRunningRoot(); err != nil {
		return nil, err
	}
	return e, nil
}

// Hasher exposes the engine's configured hasher, e.g. for computing
// HashEntry before a caller decides whether to Append.
func (e *MerkleEngine) Hasher() *Hasher { return e.hasher }

// Size returns the current number of leaves in the backing store.
func (e *MerkleEngine) Size() int { return e.store.Size() }

// primeRunningRoot catches the incremental running-root accumulator up to
// the store's current size by pushing the subroots of size's binary
// decomposition (one push per subroot, each computed by hashRange), rather
// than pushing every leaf already on disk one at a time.
func (e *MerkleEngine) primeRunningRoot() error {
	n := e.store.Size()
	offset := 0
	for _, k := range Decompose(n) {
		width := 1 << uint(k)
		sub, err := e.hashRange(offset, offset+width)
		if err != nil {
			return err
		}
		e.running.pushSubroot(k, sub)
		offset += width
	}
	e.runningSize = n
	return nil
}

// GetState returns the Merkle root over the first size leaves. size == 0
// returns the empty-tree hash. size greater than the store's current size
// is an InvalidChallenge.
func (e *MerkleEngine) GetState(size int) ([]byte, error) {
	if size < 0 || size > e.store.Size() {
		return nil, errors.AddContext(ErrInvalidChallenge, "requested size exceeds tree size")
	}
	if size == 0 {
		return e.hasher.HashEmpty(), nil
	}
	if size == e.runningSize {
		return e.running.root(), nil
	}
	return e.hashRange(0, size)
}

// hashRange returns the subroot of the leaves in [start, end), recursing
// on a binary split and consulting (then populating) the subroot cache
// for power-of-two-width ranges.
func (e *MerkleEngine) hashRange(start, end int) ([]byte, error) {
	w := end - start
	if w == 0 {
		return e.hasher.HashEmpty(), nil
	}
	if w == 1 {
		return e.store.GetLeaf(start + 1)
	}

	pow2 := isPowerOfTwo(w)
	if pow2 {
		if digest, ok := e.cache.Get(start, w); ok {
			return digest, nil
		}
	}

	split := largestPowerOfTwoBelow(w)
	mid := start + split
	left, err := e.hashRange(start, mid)
	if err != nil {
		return nil, err
	}
	right, err := e.hashRange(mid, end)
	if err != nil {
		return nil, err
	}
	result := e.hasher.HashPair(left, right)

	if pow2 {
		e.cache.Put(start, w, result)
	}
	return result, nil
}

// Append hashes entry, stores the resulting leaf digest, invalidates any
// cache entries that would otherwise span the new frontier, and returns
// the new 1-based leaf index.
func (e *MerkleEngine) Append(entry []byte) (int, error) {
	oldSize := e.store.Size()
	digest := e.hasher.HashEntry(entry)

	index, err := e.store.Append(digest)
	if err != nil {
		return 0, err
	}

	e.cache.Clear(oldSize)

	if oldSize == e.runningSize {
		e.running.push(digest)
		e.runningSize++
	} else {
		// The running accumulator fell behind (e.g. a concurrently
		// mutated store); resynchronise from scratch rather than risk
		// folding in a digest at the wrong height.
		e.running.reset()
		if err := e.primeRunningRoot(); err != nil {
			return 0, err
		}
	}

	return index, nil
}
