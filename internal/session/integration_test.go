//go:build integration
// +build integration

package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()

	_, ok, err := s.Get(ctx, id)
	if err != nil {
		t.Skipf("Get failed (backend may not be running): %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for new ID")
	}

	want := State{City: "Berlin", UpdatedAt: time.Now().UTC().Truncate(time.Second)}
	if err := s.Set(ctx, id, want, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := s.Get(ctx, id)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want hit", ok, err)
	}
	if got.City != want.City || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

// TestMemcachedStore_Integration verifies get/set against a local memcached.
func TestMemcachedStore_Integration(t *testing.T) {
	addrs := os.Getenv("MEMCACHED_ADDRS")
	if addrs == "" {
		addrs = "localhost:11211"
	}
	s, err := NewMemcachedStore(addrs, 500*time.Millisecond, 2)
	if err != nil {
		t.Fatalf("NewMemcachedStore() error = %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

// TestRedisStore_Integration verifies get/set against a local redis.
func TestRedisStore_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	s, err := NewRedisStore(context.Background(), addr, "", 0)
	if err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}
