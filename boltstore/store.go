// Package boltstore implements a durable LeafStore backed by a single
// bbolt file: an append-only table of leaf digests keyed by their 1-based
// index, plus a metadata record written once at creation and checked on
// every reopen (§6 Persistence layout).
package boltstore

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"gitlab.com/NebulousLabs/errors"

	"github.com/ctlog/merkle"
)

var (
	leavesBucket = []byte("leaves")
	metaBucket   = []byte("meta")
	algorithmKey = []byte("algorithm")
	securityKey  = []byte("security")
)

// ErrMetadataMismatch is returned by Open when an existing store was
// created with a different algorithm or security setting than requested.
var ErrMetadataMismatch = errors.New("boltstore: metadata mismatch")

// ErrOutOfRange mirrors merkle.ErrOutOfRange for index/range failures. Kept
// as a distinct sentinel rather than reusing merkle.ErrOutOfRange directly,
// since a caller inspecting a boltstore-specific failure (corrupt file,
// missing record) shouldn't have to match against a merkle-level error.
var ErrOutOfRange = errors.New("boltstore: out of range")

var _ merkle.LeafStore = (*Store)(nil)

// Store is a bbolt-backed, append-only implementation of merkle.LeafStore.
// At most one writer is assumed, matching the concurrency model of §5: no
// internal locking is performed beyond what bbolt's own single-writer
// transaction model provides.
type Store struct {
	db   *bolt.DB
	path string
	size int

	log *logrus.Entry
}

// Open creates or reopens a store at path. algorithm and security describe
// the hasher this store is meant to back; on a fresh file they are
// recorded as metadata, on an existing file they are checked against the
// recorded values and rejected with ErrMetadataMismatch on any divergence.
func Open(path string, algorithm string, security bool) (*Store, error) {
	log := logrus.WithFields(logrus.Fields{"component": "boltstore", "path": path})

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.AddContext(err, "boltstore: could not open database file")
	}

	s := &Store{db: db, path: path, log: log}

	if err := db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		leaves, err := tx.CreateBucketIfNotExists(leavesBucket)
		if err != nil {
			return err
		}

		existingAlg := meta.Get(algorithmKey)
		if existingAlg == nil {
			log.Info("initialising new store")
			if err := meta.Put(algorithmKey, []byte(algorithm)); err != nil {
				return err
			}
			return meta.Put(securityKey, encodeBool(security))
		}

		if string(existingAlg) != algorithm || decodeBool(meta.Get(securityKey)) != security {
			return ErrMetadataMismatch
		}

		s.size = leaves.Stats().KeyN
		log.WithField("size", s.size).Info("reopened existing store")
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	s.log.Info("closing store")
	return s.db.Close()
}

// Size implements merkle.LeafStore.
func (s *Store) Size() int {
	return s.size
}

// Append implements merkle.LeafStore.
func (s *Store) Append(digest []byte) (int, error) {
	index := s.size + 1
	err := s.db.Update(func(tx *bolt.Tx) error {
		leaves := tx.Bucket(leavesBucket)
		return leaves.Put(encodeIndex(index), append([]byte(nil), digest...))
	})
	if err != nil {
		return 0, errors.AddContext(err, "boltstore: append failed")
	}
	s.size = index
	return index, nil
}

// GetLeaf implements merkle.LeafStore.
func (s *Store) GetLeaf(index int) ([]byte, error) {
	if index < 1 || index > s.size {
		return nil, errors.AddContext(ErrOutOfRange, "leaf index out of range")
	}
	var digest []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		leaves := tx.Bucket(leavesBucket)
		value := leaves.Get(encodeIndex(index))
		if value == nil {
			return errors.AddContext(ErrOutOfRange, "leaf missing from store")
		}
		digest = append([]byte(nil), value...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return digest, nil
}

// GetRange implements merkle.LeafStore. start and end are 0-based and
// half-open over leaf positions.
func (s *Store) GetRange(start, end int) ([][]byte, error) {
	if start < 0 || end > s.size || start > end {
		return nil, errors.AddContext(ErrOutOfRange, "leaf range out of range")
	}
	out := make([][]byte, 0, end-start)
	err := s.db.View(func(tx *bolt.Tx) error {
		leaves := tx.Bucket(leavesBucket)
		for i := start + 1; i <= end; i++ {
			value := leaves.Get(encodeIndex(i))
			if value == nil {
				return errors.AddContext(ErrOutOfRange, fmt.Sprintf("leaf %d missing from store", i))
			}
			out = append(out, append([]byte(nil), value...))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func encodeIndex(index int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(index))
	return buf
}

func encodeBool(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

func decodeBool(b []byte) bool {
	return len(b) == 1 && b[0] == 1
}
