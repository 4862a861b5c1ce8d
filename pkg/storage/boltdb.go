package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketCorpus    = []byte("corpus")
	bucketCrashKeys = []byte("crash_keys")
)

// BoltStore implements CorpusStore on a single BoltDB file.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) a BoltDB file under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "kwality-corpus.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCorpus, bucketCrashKeys} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("storage: create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) SaveCorpus(codebaseID string, inputs [][]byte) error {
	return s.put(bucketCorpus, codebaseID, inputs)
}

func (s *BoltStore) LoadCorpus(codebaseID string) ([][]byte, error) {
	var inputs [][]byte
	err := s.get(bucketCorpus, codebaseID, &inputs)
	return inputs, err
}

func (s *BoltStore) SaveCrashKeys(codebaseID string, keys []string) error {
	return s.put(bucketCrashKeys, codebaseID, keys)
}

func (s *BoltStore) LoadCrashKeys(codebaseID string) ([]string, error) {
	var keys []string
	err := s.get(bucketCrashKeys, codebaseID, &keys)
	return keys, err
}

func (s *BoltStore) put(bucket []byte, key string, value any) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

// get leaves out unchanged (its zero value) when key has never been saved.
func (s *BoltStore) get(bucket []byte, key string, out any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, out)
	})
}
