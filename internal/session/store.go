// Package session keeps the last-entered city per browser session.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// State is what a session remembers between pages.
type State struct {
	City      string    `json:"city"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store defines the interface for session state backends.
// Get returns (state, true, nil) on hit and (zero, false, nil) on miss or expiration.
type Store interface {
	Get(ctx context.Context, id string) (State, bool, error)
	Set(ctx context.Context, id string, state State, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// Backend names accepted by New.
const (
	BackendInMemory  = "in_memory"
	BackendMemcached = "memcached"
	BackendRedis     = "redis"
)

// Options configures the external backends. Only the fields of the selected backend are read.
type Options struct {
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
}

// New builds the named backend wrapped with metrics.
func New(ctx context.Context, backend string, opts Options) (Store, error) {
	var (
		store Store
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendInMemory:
		store = NewInMemoryStore()
	case BackendMemcached:
		store, err = NewMemcachedStore(opts.MemcachedAddrs, opts.MemcachedTimeout, opts.MemcachedMaxIdleConns)
	case BackendRedis:
		store, err = NewRedisStore(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	default:
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("session backend %s: %w", backend, err)
	}
	return Instrument(store), nil
}

// InMemoryStore implements Store using a mutex-guarded map with TTL-based expiration.
// Expired entries are removed on access.
type InMemoryStore struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

type entry struct {
	state     State
	expiresAt time.Time
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[id]
	if !ok {
		return State{}, false, nil
	}
	if s.now().After(e.expiresAt) {
		delete(s.data, id)
		return State{}, false, nil
	}
	return e.state, true, nil
}

func (s *InMemoryStore) Set(ctx context.Context, id string, state State, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = entry{state: state, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *InMemoryStore) Ping(ctx context.Context) error { return nil }

func (s *InMemoryStore) Close() error { return nil }

// instrumented records operation counts and latency for any Store.
type instrumented struct {
	Store
}

// Instrument wraps store so every Get and Set is counted in sessionOperationsTotal.
func Instrument(store Store) Store {
	if _, ok := store.(instrumented); ok {
		return store
	}
	return instrumented{Store: store}
}

func (s instrumented) Get(ctx context.Context, id string) (State, bool, error) {
	start := time.Now()
	state, ok, err := s.Store.Get(ctx, id)
	observability.SessionOperationDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case ok:
		result = "hit"
	}
	observability.SessionOperationsTotal.WithLabelValues("get", result).Inc()
	return state, ok, err
}

func (s instrumented) Set(ctx context.Context, id string, state State, ttl time.Duration) error {
	start := time.Now()
	err := s.Store.Set(ctx, id, state, ttl)
	observability.SessionOperationDuration.WithLabelValues("set").Observe(time.Since(start).Seconds())
	result := "success"
	if err != nil {
		result = "error"
	}
	observability.SessionOperationsTotal.WithLabelValues("set", result).Inc()
	return err
}
