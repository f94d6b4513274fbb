package merkle

import (
	"gitlab.com/NebulousLabs/errors"
)

// This file implements the inclusion-path and consistency-path recurrences
// of §4.5. Both recurrences are structurally the same trick the teacher
// uses in BuildRangeProof/BuildDiffProof: walk the binary split of a
// range, and at each level decide whether the target falls in the left or
// right half. Unlike the teacher's range proofs, a caller here also needs
// to know the parenthesisation (rule) and, for consistency proofs, which
// elements belong to the prior state (subset) — so each step emits one
// extra bit of bookkeeping alongside the sibling digest.

// ProveInclusion proves that the leaf at the given 1-based index is part
// of the tree of the given size. Precondition: 1 <= index <= size <=
// store size.
func (e *MerkleEngine) ProveInclusion(index, size int) (*MerkleProof, error) {
	if size > e.store.Size() {
		return nil, errors.AddContext(ErrInvalidChallenge, "requested size exceeds tree size")
	}
	if index < 1 || index > size {
		return nil, errors.AddContext(ErrInvalidChallenge, "leaf index out of range for requested size")
	}

	rule, path, err := e.inclusionPath(index-1, size, 0, 0)
	if err != nil {
		return nil, err
	}

	subset := make([]int, len(rule))
	return &MerkleProof{
		algorithm: e.hasher.Algorithm(),
		security:  e.hasher.Security(),
		size:      size,
		rule:      rule,
		subset:    subset,
		path:      path,
	}, nil
}

// inclusionPath implements the §4.5 inclusion-path recurrence. offset is
// the 0-based leaf position within the current window, size the window's
// width, base the window's absolute leaf offset, and bit the
// parenthesisation marker this call is responsible for stamping onto
// whichever element it contributes.
func (e *MerkleEngine) inclusionPath(offset, size, base, bit int) ([]int, [][]byte, error) {
	if size == 1 {
		leaf, err := e.store.GetLeaf(base + 1)
		if err != nil {
			return nil, nil, err
		}
		return []int{bit}, [][]byte{leaf}, nil
	}

	p := largestPowerOfTwoBelow(size)
	if offset < p {
		rule, path, err := e.inclusionPath(offset, p, base, 0)
		if err != nil {
			return nil, nil, err
		}
		sibling, err := e.hashRange(base+p, base+size)
		if err != nil {
			return nil, nil, err
		}
		return append(rule, bit), append(path, sibling), nil
	}

	rule, path, err := e.inclusionPath(offset-p, size-p, base+p, 1)
	if err != nil {
		return nil, nil, err
	}
	sibling, err := e.hashRange(base, base+p)
	if err != nil {
		return nil, nil, err
	}
	return append(rule, bit), append(path, sibling), nil
}

// ProveConsistency proves that the tree of size rsize extends the tree of
// size lsize. Precondition: 1 <= lsize <= rsize <= store size.
func (e *MerkleEngine) ProveConsistency(lsize, rsize int) (*MerkleProof, error) {
	if rsize > e.store.Size() {
		return nil, errors.AddContext(ErrInvalidChallenge, "requested size exceeds tree size")
	}
	if lsize < 1 || lsize > rsize {
		return nil, errors.AddContext(ErrInvalidChallenge, "prior size out of range")
	}

	rule, subset, path, err := e.consistencyPath(0, lsize, rsize, 0)
	if err != nil {
		return nil, err
	}

	return &MerkleProof{
		algorithm: e.hasher.Algorithm(),
		security:  e.hasher.Security(),
		size:      rsize,
		rule:      rule,
		subset:    subset,
		path:      path,
	}, nil
}

// consistencyPath implements the §4.5 consistency-path recurrence. As with
// inclusionPath, the top-level call is always made with bit=0, and both
// branches stamp that same bit onto the element they append, so the
// outermost rule bit is always 0 without any separate fixup step.
func (e *MerkleEngine) consistencyPath(offset, lsize, rsize, bit int) ([]int, []int, [][]byte, error) {
	if lsize == rsize {
		sub, err := e.hashRange(offset, offset+rsize)
		if err != nil {
			return nil, nil, nil, err
		}
		return []int{bit}, []int{1}, [][]byte{sub}, nil
	}

	p := largestPowerOfTwoBelow(rsize)
	if lsize <= p {
		rule, subset, path, err := e.consistencyPath(offset, lsize, p, 0)
		if err != nil {
			return nil, nil, nil, err
		}
		sibling, err := e.hashRange(offset+p, offset+rsize)
		if err != nil {
			return nil, nil, nil, err
		}
		return append(rule, bit), append(subset, 0), append(path, sibling), nil
	}

	rule, subset, path, err := e.consistencyPath(offset+p, lsize-p, rsize-p, 1)
	if err != nil {
		return nil, nil, nil, err
	}
	sibling, err := e.hashRange(offset, offset+p)
	if err != nil {
		return nil, nil, nil, err
	}
	return append(rule, bit), append(subset, 1), append(path, sibling), nil
}
