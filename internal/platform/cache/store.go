package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BigLep/roster-sync/internal/platform/resilience"
)

type entry struct {
	value      any
	producedAt time.Time
	ttl        time.Duration
}

func (e entry) fresh(now time.Time) bool {
	if e.ttl <= 0 {
		return true
	}
	return now.Sub(e.producedAt) < e.ttl
}

// Loader fetches a fresh value for a key. Loaders run detached from the
// requester's cancellation: coalesced waiters may still need the result
// after the original caller gives up.
type Loader func(ctx context.Context) (any, error)

// Result is the outcome of a cache read. Stale is true when the value is a
// previously cached one served because a refresh attempt failed.
type Result struct {
	Value      any
	ProducedAt time.Time
	Stale      bool
}

// EntryInfo is a read-only snapshot of one entry's bookkeeping.
type EntryInfo struct {
	ProducedAt time.Time
	TTL        time.Duration
	Age        time.Duration
	Refreshing bool
}

// Store is a keyed in-memory cache with per-entry TTLs, refresh coalescing
// and stale-while-revalidate fallback. A zero TTL means the entry never
// expires on its own and is only replaced by an explicit force refresh.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	flight  resilience.SingleFlight
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock replaces the store's time source. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

// get returns the entry for key if present and fresh.
func (s *Store) get(key string) (entry, bool) {
	if key == "" {
		return entry{}, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !e.fresh(s.now()) {
		return entry{}, false
	}
	return e, true
}

// GetOrRefresh returns the fresh cached value for key, or refreshes it via
// loader. Concurrent callers for the same expired key converge on a single
// loader run. When the loader fails and a previous value exists, that value
// is returned with Stale=true instead of the error.
func (s *Store) GetOrRefresh(ctx context.Context, key string, ttl time.Duration, loader Loader) (Result, error) {
	if loader == nil {
		return Result{}, fmt.Errorf("loader is required")
	}
	if key == "" {
		return Result{}, fmt.Errorf("cache key is required")
	}

	if e, ok := s.get(key); ok {
		return Result{Value: e.value, ProducedAt: e.producedAt}, nil
	}

	return s.refresh(ctx, key, ttl, loader, false)
}

// ForceRefresh refreshes key regardless of freshness. It coalesces with any
// refresh already in flight for the same key and applies the same staleness
// fallback as GetOrRefresh when the fetch fails.
func (s *Store) ForceRefresh(ctx context.Context, key string, ttl time.Duration, loader Loader) (Result, error) {
	if loader == nil {
		return Result{}, fmt.Errorf("loader is required")
	}
	if key == "" {
		return Result{}, fmt.Errorf("cache key is required")
	}

	return s.refresh(ctx, key, ttl, loader, true)
}

func (s *Store) refresh(ctx context.Context, key string, ttl time.Duration, loader Loader, force bool) (Result, error) {
	// The loader must survive the requester's cancellation because other
	// coalesced waiters may still depend on its result.
	detached := context.WithoutCancel(ctx)

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if !force {
			if e, ok := s.get(key); ok {
				return Result{Value: e.value, ProducedAt: e.producedAt}, nil
			}
		}

		loaded, loadErr := loader(detached)
		if loadErr != nil {
			var nf noFallbackError
			if errors.As(loadErr, &nf) {
				return Result{}, nf.err
			}
			s.mu.RLock()
			prev, havePrev := s.entries[key]
			s.mu.RUnlock()
			if havePrev {
				return Result{Value: prev.value, ProducedAt: prev.producedAt, Stale: true}, nil
			}
			return Result{}, loadErr
		}

		producedAt := s.now()
		s.mu.Lock()
		s.entries[key] = entry{value: loaded, producedAt: producedAt, ttl: ttl}
		s.mu.Unlock()

		return Result{Value: loaded, ProducedAt: producedAt}, nil
	})
	if err != nil {
		return Result{}, err
	}

	return value.(Result), nil
}

func (s *Store) Invalidate(key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store) InvalidatePrefix(prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}

// Info reports bookkeeping for key, including whether a refresh is in
// flight. It returns false when the key has never been stored.
func (s *Store) Info(key string) (EntryInfo, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return EntryInfo{Refreshing: s.flight.InFlight(key)}, false
	}

	return EntryInfo{
		ProducedAt: e.producedAt,
		TTL:        e.ttl,
		Age:        s.now().Sub(e.producedAt),
		Refreshing: s.flight.InFlight(key),
	}, true
}

type noFallbackError struct{ err error }

func (e noFallbackError) Error() string { return e.err.Error() }
func (e noFallbackError) Unwrap() error { return e.err }

// NoFallback marks a loader error as fatal: the store propagates it even
// when a previous value exists. Used for schema validation failures, which
// must never be papered over with stale data.
func NoFallback(err error) error {
	if err == nil {
		return nil
	}
	return noFallbackError{err: err}
}
