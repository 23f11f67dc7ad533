package storage

import (
	"context"
	"errors"
	"sync"
)

// Key names a whole-value blob. Writes always replace the full value under a key.
type Key string

const (
	KeyChatHistory        Key = "chat-history"
	KeyMoodHistory        Key = "mood-history"
	KeyUsers              Key = "users"
	KeyCurrentUser        Key = "current-user"
	KeyTheme              Key = "theme"
	KeyPersona            Key = "ai-persona"
	KeyOnboardingComplete Key = "onboarding-complete"
	KeyLanguage           Key = "language"
)

// ErrClosed is returned by a store used after Close.
var ErrClosed = errors.New("storage closed")

// Change is delivered to subscribers after a key is written or deleted.
type Change struct {
	Key     Key
	Deleted bool
}

// Store is the persistent key-value collaborator shared by every service.
type Store interface {
	// Get decodes the value under key into dst. It reports false when the key is absent.
	Get(ctx context.Context, key Key, dst any) (bool, error)
	Set(ctx context.Context, key Key, value any) error
	Delete(ctx context.Context, key Key) error
	// Subscribe returns a channel of changes to key and a func that ends the subscription.
	Subscribe(key Key) (<-chan Change, func())
	Close() error
}

const subscriberBuffer = 16

// Broker fans out change notifications. Backends embed it.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[Key]map[int]chan Change
}

// Subscribe registers a listener for key.
func (b *Broker) Subscribe(key Key) (<-chan Change, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[Key]map[int]chan Change)
	}
	if b.subs[key] == nil {
		b.subs[key] = make(map[int]chan Change)
	}

	id := b.nextID
	b.nextID++
	ch := make(chan Change, subscriberBuffer)
	b.subs[key][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if listeners, ok := b.subs[key]; ok {
				if c, ok := listeners[id]; ok {
					delete(listeners, id)
					close(c)
				}
			}
		})
	}
	return ch, cancel
}

// Publish notifies every listener of key. Slow listeners miss changes instead of blocking writers.
func (b *Broker) Publish(change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[change.Key] {
		select {
		case ch <- change:
		default:
		}
	}
}

// CloseAll ends every subscription.
func (b *Broker) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, listeners := range b.subs {
		for id, ch := range listeners {
			close(ch)
			delete(listeners, id)
		}
		delete(b.subs, key)
	}
}
