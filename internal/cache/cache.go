// Package cache stores rendered page responses keyed by namespace and
// canonical URL. One Store implementation backs every route; per-route TTL
// needs are expressed at Set time rather than by separate cache layers.
package cache

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

// ErrMiss is returned when no fresh entry exists for a key.
var ErrMiss = errors.New("cache miss")

// Entry is a stored rendered response.
type Entry struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// Store is the single cache abstraction used by the renderer.
type Store interface {
	Get(ctx context.Context, namespace, key string) (*Entry, error)
	Set(ctx context.Context, namespace, key string, entry *Entry, ttl time.Duration) error
	Close()
}

const sweepInterval = 5 * time.Minute

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	stopCh  chan struct{}
	once    sync.Once
}

// NewMemoryStore returns an in-process Store. It is the fallback when redis
// is not configured and the backing store for tests.
func NewMemoryStore() Store {
	s := &memoryStore{
		entries: make(map[string]memoryEntry),
		stopCh:  make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func storeKey(namespace, key string) string {
	if namespace == "" {
		namespace = "pages"
	}
	return namespace + ":" + key
}

func (s *memoryStore) Get(ctx context.Context, namespace, key string) (*Entry, error) {
	s.mu.RLock()
	stored, ok := s.entries[storeKey(namespace, key)]
	s.mu.RUnlock()
	if !ok || time.Now().After(stored.expiresAt) {
		return nil, ErrMiss
	}
	entry := stored.entry
	return &entry, nil
}

func (s *memoryStore) Set(ctx context.Context, namespace, key string, entry *Entry, ttl time.Duration) error {
	if entry == nil {
		return errors.New("nil cache entry")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	s.mu.Lock()
	s.entries[storeKey(namespace, key)] = memoryEntry{entry: *entry, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup(time.Now())
		case <-s.stopCh:
			return
		}
	}
}

func (s *memoryStore) cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, stored := range s.entries {
		if now.After(stored.expiresAt) {
			delete(s.entries, key)
		}
	}
}

func (s *memoryStore) Close() {
	s.once.Do(func() {
		close(s.stopCh)
	})
}
