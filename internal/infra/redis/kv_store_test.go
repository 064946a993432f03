package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"geo-elevate/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestKVStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewKVStore(newClient(mr))
	ctx := context.Background()

	if _, err := store.Get(ctx, "user"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected missing key, got %v", err)
	}
	if err := store.Set(ctx, "user", `{"id":1}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("geo:kv:user") {
		t.Fatalf("expected namespaced key in redis")
	}
	if v, err := store.Get(ctx, "user"); err != nil || v != `{"id":1}` {
		t.Fatalf("unexpected value %q (%v)", v, err)
	}
	if err := store.Delete(ctx, "user", "auth_token"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("geo:kv:user") {
		t.Fatalf("expected key removed")
	}
}

func TestKVStoreKeysNeverExpire(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewKVStore(newClient(mr))
	ctx := context.Background()
	for _, key := range []string{"auth_token", "user", "geo-elevate-high-scores"} {
		if err := store.Set(ctx, key, "v"); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
		if ttl := mr.TTL("geo:kv:" + key); ttl != 0 {
			t.Fatalf("expected %s without expiry, got %s", key, ttl)
		}
	}

	mr.FastForward(365 * 24 * time.Hour)
	if v, err := store.Get(ctx, "auth_token"); err != nil || v != "v" {
		t.Fatalf("expected credentials to survive, got %q (%v)", v, err)
	}
}

func TestKVStoreConcurrentSets(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewKVStore(newClient(mr))
	ctx := context.Background()

	const workers, perWorker = 8, 20
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("k-%d-%d", w, i)
				if err := store.Set(ctx, key, key); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent set: %v", err)
	}

	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			key := fmt.Sprintf("k-%d-%d", w, i)
			if v, err := store.Get(ctx, key); err != nil || v != key {
				t.Fatalf("unexpected value for %s: %q (%v)", key, v, err)
			}
		}
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
