// Package cache provides the per-source TTL store the upstream adapters
// share. Unlike a plain TTL cache it retains expired entries: when a live
// refresh fails the previous payload is served instead of the failure.
package cache

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/matchcast/matchcast/internal/platform/resilience"
)

type entry struct {
	payload  []byte
	storedAt time.Time
}

// Store is a content-addressed payload cache with a fixed TTL. Entries are
// only ever overwritten by a successful fetch, never evicted on expiry.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	flight  resilience.SingleFlight
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// TTL returns the freshness window the store was built with.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns the stored payload regardless of age. It returns false only
// when no fetch for the key has ever succeeded.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.payload, true
}

// GetFresh returns the payload only while it is younger than the TTL.
func (s *Store) GetFresh(_ context.Context, key string) ([]byte, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(e.storedAt) > s.ttl {
		return nil, false
	}
	return e.payload, true
}

// Put stores the payload, overwriting any previous entry for the key.
func (s *Store) Put(_ context.Context, key string, payload []byte) {
	if key == "" {
		return
	}

	s.mu.Lock()
	s.entries[key] = entry{payload: payload, storedAt: s.now()}
	s.mu.Unlock()
}

// Fetch implements the cache-with-stale-fallback policy: serve a fresh
// entry when one exists; otherwise run the live fetch, store and return its
// result on success; on failure return any existing entry, however old,
// without rewriting its timestamp. The fetch error propagates only when the
// key has never been filled. Concurrent fetches for the same key are
// collapsed to one upstream call.
func (s *Store) Fetch(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if fetch == nil {
		return nil, fmt.Errorf("fetch func is required")
	}
	if key == "" {
		return fetch(ctx)
	}

	if payload, ok := s.GetFresh(ctx, key); ok {
		return payload, nil
	}

	out, err, _ := s.flight.Do(key, func() (any, error) {
		if payload, ok := s.GetFresh(ctx, key); ok {
			return payload, nil
		}

		payload, fetchErr := fetch(ctx)
		if fetchErr == nil {
			s.Put(ctx, key, payload)
			return payload, nil
		}
		if stale, ok := s.Get(ctx, key); ok {
			return stale, nil
		}
		return nil, fetchErr
	})
	if err != nil {
		return nil, err
	}

	payload, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected cache payload type %T", out)
	}
	return payload, nil
}

// RequestKey derives a stable content-addressed key from the normalized
// request inputs. Parts are lower-cased and trimmed so equivalent requests
// hash identically.
func RequestKey(parts ...string) string {
	h := fnv.New64a()
	for i, part := range parts {
		if i > 0 {
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(part))))
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
