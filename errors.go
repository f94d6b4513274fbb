package merkle

import (
	"gitlab.com/NebulousLabs/errors"
)

// Sentinel errors forming the taxonomy of §7: construction failures,
// indexing failures, proof requests the tree cannot honour, malformed
// serialised proofs, and proofs that fail cryptographic verification.
// Callers match against these with errors.Contains rather than string
// comparison.
var (
	// ErrConfiguration is returned when engine or hasher construction is
	// given an unrecoverable configuration (unknown algorithm, capacity
	// <= 0, and similar).
	ErrConfiguration = errors.New("configuration error")

	// ErrOutOfRange is returned when a leaf index or range falls outside
	// [1, size()], or when range bounds are inverted.
	ErrOutOfRange = errors.New("out of range")

	// ErrInvalidChallenge is returned when a proof is requested for a
	// size or prior state the tree cannot honour.
	ErrInvalidChallenge = errors.New("invalid challenge")

	// ErrMalformedProof is returned when a serialised proof fails a
	// structural check: length mismatch, non-boolean bit, bad hex, wrong
	// digest width, or unknown algorithm.
	ErrMalformedProof = errors.New("malformed proof")

	// ErrInvalidProof is returned when a structurally well-formed proof
	// fails to resolve to the claimed base, root, or prior/later state.
	ErrInvalidProof = errors.New("invalid proof")
)
