package merkle

import (
	"encoding/hex"

	"gitlab.com/NebulousLabs/errors"
)

// MerkleProof is a self-contained, verifiable artifact: it carries enough
// metadata (algorithm, security, size) to build its own Hasher on first
// use, so it can be checked without access to the LeafStore or
// MerkleEngine that produced it. See §3 and §4.6.
type MerkleProof struct {
	algorithm string
	security  bool
	size      int
	rule      []int
	subset    []int
	path      [][]byte

	hasher *Hasher
}

// Metadata is the information needed to configure the hashing machinery
// that resolves this proof: the algorithm, security mode, and tree size
// it is anchored to.
type Metadata struct {
	Algorithm string `json:"algorithm"`
	Security  bool   `json:"security"`
	Size      int    `json:"size"`
}

// Record is the wire form of a MerkleProof (§6 Proof wire format).
type Record struct {
	Metadata Metadata `json:"metadata"`
	Rule     []int    `json:"rule"`
	Subset   []int    `json:"subset"`
	Path     []string `json:"path"`
}

// NewProof builds a MerkleProof from its constituent fields, validating
// the structural invariants of §3: equal-length rule/subset/path, and (for
// non-empty paths) a terminating rule bit of 0.
func NewProof(algorithm string, security bool, size int, rule, subset []int, path [][]byte) (*MerkleProof, error) {
	if len(rule) != len(path) || len(subset) != len(path) {
		return nil, errors.AddContext(ErrMalformedProof, "rule, subset and path must have equal length")
	}
	if len(path) > 0 && rule[len(rule)-1] != 0 {
		return nil, errors.AddContext(ErrMalformedProof, "final rule bit must be 0")
	}
	for _, bit := range rule {
		if bit != 0 && bit != 1 {
			return nil, errors.AddContext(ErrMalformedProof, "rule bit must be 0 or 1")
		}
	}
	for _, bit := range subset {
		if bit != 0 && bit != 1 {
			return nil, errors.AddContext(ErrMalformedProof, "subset bit must be 0 or 1")
		}
	}
	hasher, err := NewHasher(algorithm, security)
	if err != nil {
		return nil, errors.AddContext(ErrMalformedProof, "unknown hash algorithm: "+algorithm)
	}
	for _, digest := range path {
		if len(digest) != hasher.Size() {
			return nil, errors.AddContext(ErrMalformedProof, "digest has wrong width for algorithm")
		}
	}
	return &MerkleProof{
		algorithm: algorithm,
		security:  security,
		size:      size,
		rule:      rule,
		subset:    subset,
		path:      path,
		hasher:    hasher,
	}, nil
}

// Metadata returns the fields needed to reconstruct this proof's hasher.
func (p *MerkleProof) Metadata() Metadata {
	return Metadata{Algorithm: p.algorithm, Security: p.security, Size: p.size}
}

// Size returns the tree size this proof is anchored to.
func (p *MerkleProof) Size() int { return p.size }

// Path returns the ordered list of digests carried by the proof. Callers
// must not mutate the returned slices.
func (p *MerkleProof) Path() [][]byte { return p.path }

func (p *MerkleProof) ensureHasher() (*Hasher, error) {
	if p.hasher != nil {
		return p.hasher, nil
	}
	hasher, err := NewHasher(p.algorithm, p.security)
	if err != nil {
		return nil, err
	}
	p.hasher = hasher
	return hasher, nil
}

// Resolve folds path under rule, returning the target hash: the claimed
// root for an inclusion proof, or the claimed later state for a
// consistency proof. An empty path resolves to the empty-tree hash.
func (p *MerkleProof) Resolve() ([]byte, error) {
	hasher, err := p.ensureHasher()
	if err != nil {
		return nil, err
	}
	if len(p.path) == 0 {
		return hasher.HashEmpty(), nil
	}

	bit := p.rule[0]
	result := p.path[0]
	for i := 0; i < len(p.path)-1; i++ {
		nextBit, digest := p.rule[i+1], p.path[i+1]
		switch bit {
		case 0:
			result = hasher.HashPair(result, digest)
		case 1:
			result = hasher.HashPair(digest, result)
		default:
			return nil, errors.AddContext(ErrMalformedProof, "invalid rule bit found during resolution")
		}
		bit = nextBit
	}
	return result, nil
}

// RetrievePriorState applies the same fold over the subsequence of path
// elements whose subset bit is set, combined right-associatively. Makes
// sense only for consistency proofs. An empty subsequence resolves to the
// empty-tree hash.
func (p *MerkleProof) RetrievePriorState() ([]byte, error) {
	hasher, err := p.ensureHasher()
	if err != nil {
		return nil, err
	}

	var subpath [][]byte
	for i, mask := range p.subset {
		if mask == 1 {
			subpath = append(subpath, p.path[i])
		} else if mask != 0 {
			return nil, errors.AddContext(ErrMalformedProof, "invalid subset bit found")
		}
	}
	if len(subpath) == 0 {
		return hasher.HashEmpty(), nil
	}

	result := subpath[0]
	for i := 0; i < len(subpath)-1; i++ {
		result = hasher.HashPair(subpath[i+1], result)
	}
	return result, nil
}

// Serialize returns the canonical wire record of this proof (§6): digests
// are hex-encoded, all other fields carried verbatim.
func (p *MerkleProof) Serialize() Record {
	hexPath := make([]string, len(p.path))
	for i, digest := range p.path {
		hexPath[i] = hex.EncodeToString(digest)
	}
	return Record{
		Metadata: p.Metadata(),
		Rule:     append([]int(nil), p.rule...),
		Subset:   append([]int(nil), p.subset...),
		Path:     hexPath,
	}
}

// DeserializeProof is the exact inverse of Serialize. It fails with
// ErrMalformedProof on an unrecognised algorithm, bad hex, length
// mismatches, or digests of the wrong width.
func DeserializeProof(record Record) (*MerkleProof, error) {
	path := make([][]byte, len(record.Path))
	for i, encoded := range record.Path {
		digest, err := hex.DecodeString(encoded)
		if err != nil {
			return nil, errors.AddContext(ErrMalformedProof, "path digest is not valid hex")
		}
		path[i] = digest
	}
	return NewProof(record.Metadata.Algorithm, record.Metadata.Security, record.Metadata.Size,
		record.Rule, record.Subset, path)
}
