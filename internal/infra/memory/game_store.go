package memory

import (
	"sync"

	"geo-elevate/internal/game"
)

// GameStore is an in-memory implementation of app.GameRepository.
type GameStore struct {
	mu    sync.RWMutex
	games map[string]*game.Runner
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[string]*game.Runner),
	}
}

func (s *GameStore) Add(runner *game.Runner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[runner.Session().ID()] = runner
}

func (s *GameStore) Get(gameID string) (*game.Runner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runner, ok := s.games[gameID]
	return runner, ok
}

func (s *GameStore) Delete(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
}

// Len reports how many games are registered.
func (s *GameStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}
