package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"geo-elevate/internal/domain"
)

func newTestKVStore(t *testing.T, path string) *KVStore {
	t.Helper()
	store, err := NewKVStore(path)
	if err != nil {
		t.Fatalf("NewKVStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestKVStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	first, err := NewKVStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Set(ctx, "guest_mode", "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := first.Set(ctx, "guest_mode", "false"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := newTestKVStore(t, path)
	v, err := second.Get(ctx, "guest_mode")
	if err != nil || v != "false" {
		t.Fatalf("expected persisted value false, got %q (%v)", v, err)
	}
}

func TestKVStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t, filepath.Join(t.TempDir(), "state.db"))

	_ = store.Set(ctx, "auth_token", "t")
	_ = store.Set(ctx, "user", "{}")
	if err := store.Delete(ctx, "auth_token", "user", "guest_mode"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, key := range []string{"auth_token", "user"} {
		if _, err := store.Get(ctx, key); !errors.Is(err, domain.ErrKeyNotFound) {
			t.Fatalf("expected %s removed, got %v", key, err)
		}
	}
}
