package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/zhouzirui/manasbridge/backend/internal/storage"
)

// Store keeps JSON blobs in memory. Values are encoded on write so callers never share state with the store.
type Store struct {
	storage.Broker

	mu     sync.RWMutex
	items  map[storage.Key][]byte
	closed bool
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{items: make(map[storage.Key][]byte)}
}

// Get decodes the blob under key into dst.
func (s *Store) Get(_ context.Context, key storage.Key, dst any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, storage.ErrClosed
	}

	raw, ok := s.items[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Set replaces the blob under key.
func (s *Store) Set(_ context.Context, key storage.Key, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return storage.ErrClosed
	}
	s.items[key] = raw
	s.mu.Unlock()

	s.Publish(storage.Change{Key: key})
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(_ context.Context, key storage.Key) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return storage.ErrClosed
	}
	delete(s.items, key)
	s.mu.Unlock()

	s.Publish(storage.Change{Key: key, Deleted: true})
	return nil
}

// Close releases subscribers.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.CloseAll()
	return nil
}
