package app

import (
	"context"
	"errors"
	"log"

	"geo-elevate/internal/domain"
	"geo-elevate/internal/game"
	"github.com/google/uuid"
)

// GameRepository abstracts where running games are registered (in-memory, Redis, etc).
type GameRepository interface {
	Add(runner *game.Runner)
	Get(gameID string) (*game.Runner, bool)
	Delete(gameID string)
}

// GameResult is what a finished game hands back to its front end.
type GameResult struct {
	Summary      domain.GameSummary `json:"summary"`
	NewHighScore bool               `json:"newHighScore"`
}

// GameService contains the game use cases shared by the terminal and websocket front ends.
type GameService struct {
	games   GameRepository
	catalog *CatalogService
	scores  *ScoreStore
	cfg     game.Config
}

func NewGameService(games GameRepository, catalog *CatalogService, scores *ScoreStore, cfg game.Config) *GameService {
	return &GameService{games: games, catalog: catalog, scores: scores, cfg: cfg}
}

// Start loads the catalog and registers a new game. The game does not run
// until Play is called; a catalog that cannot produce questions fails here.
func (s *GameService) Start(ctx context.Context, mode domain.Mode) (*game.Runner, Catalog, error) {
	catalog, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, Catalog{}, err
	}
	if err := game.ValidateCatalog(catalog.Countries, mode); err != nil {
		return nil, catalog, err
	}

	session := game.NewSession(uuid.NewString(), mode, s.cfg, nil)
	runner := game.NewRunner(session)
	s.games.Add(runner)
	return runner, catalog, nil
}

// Play runs the game loop until it ends, then records the score. A game cut
// short by ctx is not recorded.
func (s *GameService) Play(ctx context.Context, runner *game.Runner, catalog Catalog) (GameResult, error) {
	defer s.games.Delete(runner.Session().ID())

	summary, err := runner.Run(ctx, catalog.Countries)
	if err != nil {
		return GameResult{Summary: summary}, err
	}

	newHigh, err := s.scores.RecordGame(context.WithoutCancel(ctx), summary)
	if err != nil {
		log.Printf("failed to save %s score: %v", summary.Mode, err)
	}
	return GameResult{Summary: summary, NewHighScore: newHigh}, nil
}

// Shown starts the answer clock once the front end has displayed questionID.
func (s *GameService) Shown(ctx context.Context, gameID string, questionID int) error {
	runner, ok := s.games.Get(gameID)
	if !ok {
		return domain.ErrGameNotFound
	}
	return runner.Shown(ctx, questionID)
}

// Answer forwards an answer to a running game.
func (s *GameService) Answer(ctx context.Context, gameID string, questionID int, answer string) error {
	runner, ok := s.games.Get(gameID)
	if !ok {
		return domain.ErrGameNotFound
	}
	err := runner.Answer(ctx, questionID, answer)
	if errors.Is(err, domain.ErrGameOver) {
		s.games.Delete(gameID)
	}
	return err
}
