package storage

import (
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketState = "state"

// Bolt is a Store backed by a bbolt database file. Values live in a single
// bucket.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketState))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: initialize %s: %w", path, err)
	}
	return &Bolt{db: db}, nil
}

// Path returns the database file path.
func (s *Bolt) Path() string {
	return s.db.Path()
}

// Get implements Store.
func (s *Bolt) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketState))
		if v := b.Get([]byte(key)); v != nil {
			// v is only valid inside the transaction.
			value = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, s.wrap(err)
	}
	return value, value != nil, nil
}

// Set implements Store.
func (s *Bolt) Set(key string, value []byte) error {
	return s.wrap(s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketState))
		return b.Put([]byte(key), value)
	}))
}

// Delete implements Store.
func (s *Bolt) Delete(key string) error {
	return s.wrap(s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketState))
		return b.Delete([]byte(key))
	}))
}

// Keys implements Store.
func (s *Bolt) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketState)).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return keys, nil
}

// Close implements Store.
func (s *Bolt) Close() error {
	return s.db.Close()
}

func (s *Bolt) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return fmt.Errorf("storage: %w", err)
}
