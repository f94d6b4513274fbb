package merkle

import (
	"gitlab.com/NebulousLabs/errors"
)

// LeafStore is the narrow storage contract the engine consumes. Indices
// are 1-based; ranges passed to GetRange are half-open and 0-based over
// leaf positions. Two conforming implementations are expected: the
// MemoryLeafStore below, and a single-file append-only store on disk
// (see the boltstore package).
type LeafStore interface {
	// Size returns the number of appended leaves.
	Size() int

	// Append stores digest as the next leaf and returns its new 1-based
	// index. The caller (MerkleEngine) guarantees digest == HashEntry(entry)
	// for whatever entry the caller supplied.
	Append(digest []byte) (int, error)

	// GetLeaf returns the digest at the given 1-based index. Returns
	// ErrOutOfRange if index is outside [1, Size()].
	GetLeaf(index int) ([]byte, error)

	// GetRange returns the digests in the half-open, 0-based range
	// [start, end). Returns ErrOutOfRange if the bounds are invalid.
	GetRange(start, end int) ([][]byte, error)
}

// MemoryLeafStore is an in-memory vector implementation of LeafStore.
type MemoryLeafStore struct {
	leaves [][]byte
}

// NewMemoryLeafStore returns an empty in-memory leaf store.
func NewMemoryLeafStore() *MemoryLeafStore {
	return &MemoryLeafStore{}
}

// Size implements LeafStore.
func (s *MemoryLeafStore) Size() int {
	return len(s.leaves)
}

// Append implements LeafStore.
func (s *MemoryLeafStore) Append(digest []byte) (int, error) {
	cp := append([]byte(nil), digest...)
	s.leaves = append(s.leaves, cp)
	return len(s.leaves), nil
}

// GetLeaf implements LeafStore. The returned slice is a copy: the caller
// may not mutate the store's internal digest.
func (s *MemoryLeafStore) GetLeaf(index int) ([]byte, error) {
	if index < 1 || index > len(s.leaves) {
		return nil, errors.AddContext(ErrOutOfRange, "leaf index out of range")
	}
	return append([]byte(nil), s.leaves[index-1]...), nil
}

// GetRange implements LeafStore. Each returned digest is a copy; copying
// the outer slice alone would still alias the underlying leaf bytes.
func (s *MemoryLeafStore) GetRange(start, end int) ([][]byte, error) {
	if start < 0 || end > len(s.leaves) || start > end {
		return nil, errors.AddContext(ErrOutOfRange, "leaf range out of range")
	}
	out := make([][]byte, end-start)
	for i := range out {
		out[i] = append([]byte(nil), s.leaves[start+i]...)
	}
	return out, nil
}
