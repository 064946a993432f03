package redis

import (
	"context"
	"errors"

	"geo-elevate/internal/domain"
	"github.com/redis/go-redis/v9"
)

// KVStore keeps the persisted string store in Redis so several front ends
// (terminal, websocket server) on one machine share scores and credentials.
// Keys are namespaced: geo:kv:{key}. Keys never expire; the catalog entry
// carries its own timestamp and is aged by the catalog service.
type KVStore struct {
	client *redis.Client
}

// NewKVStore returns a Redis-backed store.
func NewKVStore(client *redis.Client) *KVStore {
	return &KVStore{client: client}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrKeyNotFound
	}
	return value, err
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *KVStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, 0, len(keys))
	for _, key := range keys {
		namespaced = append(namespaced, s.key(key))
	}
	return s.client.Del(ctx, namespaced...).Err()
}

func (s *KVStore) key(key string) string {
	return "geo:kv:" + key
}
