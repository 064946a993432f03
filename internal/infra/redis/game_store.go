package redis

import (
	"context"
	"sync"
	"time"

	"geo-elevate/internal/game"
	"github.com/redis/go-redis/v9"
)

// GameStore is a Redis-aware implementation of app.GameRepository.
// Notes:
//   - Runners live in a local map; the game loop itself is in-process.
//   - Redis holds a liveness marker per game (mode as value) so other
//     instances and operators can see which games are running.
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	games  map[string]*game.Runner
}

func NewGameStore(client *redis.Client, ttl time.Duration) *GameStore {
	return &GameStore{
		client: client,
		ttl:    ttl,
		games:  make(map[string]*game.Runner),
	}
}

func (s *GameStore) Add(runner *game.Runner) {
	session := runner.Session()
	s.mu.Lock()
	s.games[session.ID()] = runner
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ID()), string(session.Mode()), s.ttl).Err()
}

func (s *GameStore) Get(gameID string) (*game.Runner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runner, ok := s.games[gameID]
	return runner, ok
}

func (s *GameStore) Delete(gameID string) {
	s.mu.Lock()
	_, ok := s.games[gameID]
	delete(s.games, gameID)
	s.mu.Unlock()
	if ok {
		_ = s.client.Del(context.Background(), s.key(gameID)).Err()
	}
}

func (s *GameStore) key(gameID string) string {
	return "geo:game:" + gameID
}
