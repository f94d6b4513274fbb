package merkle

import (
	"bytes"
	"testing"

	"gitlab.com/NebulousLabs/fastrand"
)

func TestProofResolveEmptyPath(t *testing.T) {
	proof, err := NewProof("sha256", true, 0, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	resolved, err := proof.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	hasher, _ := NewHasher("sha256", true)
	if !bytes.Equal(resolved, hasher.HashEmpty()) {
		t.Error("empty-path proof must resolve to the empty-tree hash")
	}
}

func TestProofRetrievePriorStateTrivialConsistency(t *testing.T) {
	// L=R=2 trivial consistency fixture from §8: rule=[0], subset=[1],
	// path=[get_state(2)].
	engine, _ := newTestEngine(t, Config{Algorithm: "sha256"})
	engine.Append([]byte("a"))
	engine.Append([]byte("b"))
	state2, err := engine.GetState(2)
	if err != nil {
		t.Fatal(err)
	}

	proof, err := NewProof("sha256", true, 2, []int{0}, []int{1}, [][]byte{state2})
	if err != nil {
		t.Fatal(err)
	}
	prior, err := proof.RetrievePriorState()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(prior, state2) {
		t.Error("retrieve_prior_state for trivial L=R proof must equal state2")
	}
	resolved, err := proof.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(resolved, state2) {
		t.Error("resolve for trivial L=R proof must equal state2")
	}
}

func TestNewProofRejectsLengthMismatch(t *testing.T) {
	digest := make([]byte, 32)
	if _, err := NewProof("sha256", true, 1, []int{0, 0}, []int{0}, [][]byte{digest}); err == nil {
		t.Error("expected error for mismatched rule/subset/path lengths")
	}
}

func TestNewProofRejectsNonTerminatingRuleBit(t *testing.T) {
	digest := make([]byte, 32)
	if _, err := NewProof("sha256", true, 1, []int{1}, []int{0}, [][]byte{digest}); err == nil {
		t.Error("expected error for non-zero final rule bit")
	}
}

func TestNewProofRejectsWrongDigestWidth(t *testing.T) {
	digest := make([]byte, 16)
	if _, err := NewProof("sha256", true, 1, []int{0}, []int{0}, [][]byte{digest}); err == nil {
		t.Error("expected error for digest of wrong width")
	}
}

func TestNewProofRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := NewProof("md5", true, 1, []int{0}, []int{0}, [][]byte{make([]byte, 16)}); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	engine, store := newTestEngine(t, Config{Algorithm: "sha3_256"})
	for i := 0; i < 9; i++ {
		engine.Append(fastrand.Bytes(12))
	}
	proof, err := engine.ProveInclusion(4, 9)
	if err != nil {
		t.Fatal(err)
	}

	record := proof.Serialize()
	if record.Metadata.Algorithm != "sha3_256" || !record.Metadata.Security || record.Metadata.Size != 9 {
		t.Errorf("unexpected metadata: %+v", record.Metadata)
	}

	restored, err := DeserializeProof(record)
	if err != nil {
		t.Fatal(err)
	}

	base, err := store.GetLeaf(4)
	if err != nil {
		t.Fatal(err)
	}
	root, err := engine.GetState(9)
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyInclusion(base, root, restored); err != nil {
		t.Errorf("deserialised proof failed to verify: %v", err)
	}
}

func TestDeserializeProofRejectsBadHex(t *testing.T) {
	record := Record{
		Metadata: Metadata{Algorithm: "sha256", Security: true, Size: 1},
		Rule:     []int{0},
		Subset:   []int{0},
		Path:     []string{"not-hex"},
	}
	if _, err := DeserializeProof(record); err == nil {
		t.Error("expected error for non-hex path digest")
	}
}

func TestProofMetadataRoundTrip(t *testing.T) {
	engine, _ := newTestEngine(t, Config{Algorithm: "sha512", DisableSecurity: true})
	for i := 0; i < 3; i++ {
		engine.Append(fastrand.Bytes(8))
	}
	proof, err := engine.ProveInclusion(2, 3)
	if err != nil {
		t.Fatal(err)
	}
	meta := proof.Metadata()
	if meta.Algorithm != "sha512" || meta.Security || meta.Size != 3 {
		t.Errorf("unexpected metadata: %+v", meta)
	}
}
