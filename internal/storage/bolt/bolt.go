package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/zhouzirui/manasbridge/backend/internal/storage"
)

var bucketName = []byte("manasbridge")

// Store persists JSON blobs in a single BoltDB bucket.
type Store struct {
	storage.Broker

	db *bolt.DB
}

// Open creates the database file and its parent directory when missing.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketName)
		return createErr
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Get decodes the blob under key into dst.
func (s *Store) Get(_ context.Context, key storage.Key, dst any) (bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			// Bolt values are only valid inside the transaction.
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return false, s.wrap(err)
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Set replaces the blob under key.
func (s *Store) Set(_ context.Context, key storage.Key, value any) error {
	enc, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, errCreate := tx.CreateBucketIfNotExists(bucketName)
		if errCreate != nil {
			return errCreate
		}
		return b.Put([]byte(key), enc)
	})
	if err != nil {
		return s.wrap(err)
	}

	s.Publish(storage.Change{Key: key})
	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key storage.Key) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return s.wrap(err)
	}

	s.Publish(storage.Change{Key: key, Deleted: true})
	return nil
}

// Close flushes and closes the database file.
func (s *Store) Close() error {
	s.CloseAll()
	return s.db.Close()
}

func (s *Store) wrap(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return storage.ErrClosed
	}
	return err
}
