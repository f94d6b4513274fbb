package merkle

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"golang.org/x/crypto/sha3"

	"gitlab.com/NebulousLabs/errors"
)

var (
	leafHashPrefix = []byte{0x00}
	nodeHashPrefix = []byte{0x01}
)

// algorithms maps a recognised algorithm name to a constructor for a fresh
// hash.Hash and the digest width it produces. The eight entries mirror the
// SHA-2 and SHA-3 families named in the configuration surface.
var algorithms = map[string]struct {
	new  func() hash.Hash
	size int
}{
	"sha224":   {sha256.New224, sha256.Size224},
	"sha256":   {sha256.New, sha256.Size},
	"sha384":   {sha512.New384, sha512.Size384},
	"sha512":   {sha512.New, sha512.Size},
	"sha3_224": {sha3.New224, 28},
	"sha3_256": {sha3.New256, 32},
	"sha3_384": {sha3.New384, 48},
	"sha3_512": {sha3.New512, 64},
}

// Hasher implements the domain-separated leaf/node hashing discipline of
// RFC 6962: leaves are hashed as H(0x00 || entry), internal nodes as
// H(0x01 || left || right), with the 0x00/0x01 prefixes dropped entirely
// when security is disabled. The empty-tree hash H("") carries no prefix
// in either mode.
type Hasher struct {
	algorithm string
	security  bool
	newHash   func() hash.Hash
	size      int
}

// NewHasher builds a Hasher for the given algorithm name. An unrecognised
// name is a ConfigurationError.
func NewHasher(algorithm string, security bool) (*Hasher, error) {
	alg, ok := algorithms[algorithm]
	if !ok {
		return nil, errors.AddContext(ErrConfiguration, "unknown hash algorithm: "+algorithm)
	}
	return &Hasher{
		algorithm: algorithm,
		security:  security,
		newHash:   alg.new,
		size:      alg.size,
	}, nil
}

// Algorithm returns the configured algorithm name.
func (h *Hasher) Algorithm() string { return h.algorithm }

// Security reports whether domain separation is enabled.
func (h *Hasher) Security() bool { return h.security }

// Size returns the digest width in bytes for the configured algorithm.
func (h *Hasher) Size() int { return h.size }

// HashEmpty returns H(""), the state of the empty tree. It is unaffected
// by the security setting: RFC 6962 defines the empty root independently
// of domain separation.
func (h *Hasher) HashEmpty() []byte {
	sum := h.newHash()
	return sum.Sum(nil)
}

// HashEntry returns the leaf digest for entry, prefixed with 0x00 when
// security is enabled.
func (h *Hasher) HashEntry(entry []byte) []byte {
	sum := h.newHash()
	if h.security {
		sum.Write(leafHashPrefix)
	}
	sum.Write(entry)
	return sum.Sum(nil)
}

// HashPair returns the internal-node digest combining left and right,
// prefixed with 0x01 when security is enabled.
func (h *Hasher) HashPair(left, right []byte) []byte {
	sum := h.newHash()
	if h.security {
		sum.Write(nodeHashPrefix)
	}
	sum.Write(left)
	sum.Write(right)
	return sum.Sum(nil)
}
