package cache

import (
	"sync"
	"testing"
	"time"
)

func TestStore_ExpiresEntries(t *testing.T) {
	t.Parallel()

	now := time.Date(2020, 11, 2, 20, 0, 0, 0, time.UTC)
	store := NewStore[string](time.Minute)
	store.now = func() time.Time { return now }

	store.Set("battle:test_user#1234", "not found")
	if got, ok := store.Get("battle:test_user#1234"); !ok || got != "not found" {
		t.Fatalf("expected cached value, got=%q ok=%t", got, ok)
	}

	now = now.Add(time.Minute)
	if _, ok := store.Get("battle:test_user#1234"); ok {
		t.Fatalf("expected entry to expire after ttl")
	}
	if store.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted, len=%d", store.Len())
	}
}

func TestStore_NoTTLKeepsEntries(t *testing.T) {
	t.Parallel()

	store := NewStore[int](0)
	store.Set("a", 1)
	store.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	if got, ok := store.Get("a"); !ok || got != 1 {
		t.Fatalf("expected entry without ttl to stay, got=%d ok=%t", got, ok)
	}

	store.Delete("a")
	if _, ok := store.Get("a"); ok {
		t.Fatalf("expected deleted entry to be gone")
	}
}

func TestStore_IgnoresEmptyKey(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute)
	store.Set("", 1)
	if store.Len() != 0 {
		t.Fatalf("expected empty key to be ignored")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute)
	const workers = 32

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			store.Set("shared", i)
			_, _ = store.Get("shared")
		}(i)
	}
	wg.Wait()

	if _, ok := store.Get("shared"); !ok {
		t.Fatalf("expected shared key to be present")
	}
}
