package memory

import (
	"testing"

	"geo-elevate/internal/domain"
	"geo-elevate/internal/game"
)

func TestGameStoreLifecycle(t *testing.T) {
	store := NewGameStore()
	runner := game.NewRunner(game.NewSession("game-1", domain.ModeCapitals, game.DefaultConfig(), nil))

	store.Add(runner)
	if got, ok := store.Get("game-1"); !ok || got != runner {
		t.Fatalf("expected game present")
	}

	store.Delete("game-1")
	if _, ok := store.Get("game-1"); ok {
		t.Fatalf("expected game removed")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}

func TestBundledCountriesCanBuildQuestions(t *testing.T) {
	for _, mode := range domain.Modes {
		if err := game.ValidateCatalog(BundledCountries(), mode); err != nil {
			t.Fatalf("bundled catalog invalid for %s: %v", mode, err)
		}
	}
}
