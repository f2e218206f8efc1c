package indexcache

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("indexcache")

// BoltStore is the optional durable backing store for the cache's
// fingerprint -> compressed-block-bytes mapping (spec §10's
// "persist-to-disk path for the compressed segmented list"). It holds
// raw encoded frames, not decoded List values — callers re-decode via
// their own codec on load, keeping this package ignorant of any
// particular list representation.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if absent) a bbolt database at path
// for use as a Cache's durable backing store.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Put durably stores the compressed frame bytes for fp.
func (s *BoltStore) Put(fp Fingerprint, frame []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(fpBytes(fp), frame)
	})
}

// Get returns the compressed frame bytes stored for fp, if any. The
// returned slice is a copy safe to use after the transaction closes.
func (s *BoltStore) Get(fp Fingerprint) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(fpBytes(fp))
		if v != nil {
			out = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

// Delete removes the stored frame for fp, if any.
func (s *BoltStore) Delete(fp Fingerprint) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(fpBytes(fp))
	})
}

// Close closes the underlying database file.
func (s *BoltStore) Close() error { return s.db.Close() }

func fpBytes(fp Fingerprint) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(fp))
	return b[:]
}
