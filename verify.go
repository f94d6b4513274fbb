package merkle

import (
	"bytes"

	"gitlab.com/NebulousLabs/errors"
)

// VerifyInclusion checks that proof demonstrates base's membership in a
// tree whose root is root. base is the leaf digest under test: callers
// proving a raw entry should hash it first with the proof's own Hasher
// (proof.Metadata() plus NewHasher), not pass the entry itself.
func VerifyInclusion(base, root []byte, proof *MerkleProof) error {
	if len(proof.path) == 0 {
		return errors.AddContext(ErrInvalidProof, "empty inclusion proof")
	}
	if !bytes.Equal(proof.path[0], base) {
		return errors.AddContext(ErrInvalidProof, "base hash does not match")
	}

	resolved, err := proof.Resolve()
	if err != nil {
		return err
	}
	if !bytes.Equal(resolved, root) {
		return errors.AddContext(ErrInvalidProof, "state does not match")
	}
	return nil
}

// VerifyConsistency checks that proof demonstrates the tree with root
// state2 extends the tree with root state1.
func VerifyConsistency(state1, state2 []byte, proof *MerkleProof) error {
	prior, err := proof.RetrievePriorState()
	if err != nil {
		return err
	}
	if !bytes.Equal(prior, state1) {
		return errors.AddContext(ErrInvalidProof, "prior state does not match")
	}

	later, err := proof.Resolve()
	if err != nil {
		return err
	}
	if !bytes.Equal(later, state2) {
		return errors.AddContext(ErrInvalidProof, "later state does not match")
	}
	return nil
}
