package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"geo-elevate/internal/domain"
	"github.com/samber/lo"
)

const (
	scoresKey          = "geo-elevate-scores"
	migratedKeyPrefix  = "geo-elevate-scores-migrated:"
	maxStoredScores    = 10
	speedQuestionCount = 10
	remoteTimeout      = 5 * time.Second
)

// ScoreAPI is the remote score and leaderboard service.
type ScoreAPI interface {
	SubmitScore(ctx context.Context, submission domain.ScoreSubmission) (domain.StoredScore, error)
	MyScores(ctx context.Context, mode domain.Mode) ([]domain.StoredScore, error)
	Leaderboard(ctx context.Context, mode domain.Mode, limit int) ([]domain.LeaderboardEntry, error)
	MigrateScores(ctx context.Context, scores []domain.LocalScore) (int, error)
	UserStats(ctx context.Context, username string) (domain.UserStats, error)
}

// ScoreStore keeps the local top-10 list and mirrors scores to the remote
// service when a user is signed in. Local persistence is the record of truth.
type ScoreStore struct {
	store  KVStore
	remote ScoreAPI
	auth   *AuthSession
	now    func() time.Time

	mu      sync.Mutex
	pending sync.WaitGroup
}

func NewScoreStore(store KVStore, remote ScoreAPI, auth *AuthSession) *ScoreStore {
	return NewScoreStoreWithClock(store, remote, auth, time.Now)
}

// NewScoreStoreWithClock is test-only for deterministic entry dates.
func NewScoreStoreWithClock(store KVStore, remote ScoreAPI, auth *AuthSession, now func() time.Time) *ScoreStore {
	return &ScoreStore{store: store, remote: remote, auth: auth, now: now}
}

// AddScore stores a finished game's score and reports whether it beats the
// previous best for mode.
func (s *ScoreStore) AddScore(ctx context.Context, score int, mode domain.Mode) (bool, error) {
	answered := 0
	if mode.Timed() {
		answered = speedQuestionCount
	}
	return s.addScore(ctx, score, mode, answered)
}

// RecordGame stores the score of summary, keeping its question count for the remote record.
func (s *ScoreStore) RecordGame(ctx context.Context, summary domain.GameSummary) (bool, error) {
	return s.addScore(ctx, summary.Score, summary.Mode, summary.TotalQuestions)
}

func (s *ScoreStore) addScore(ctx context.Context, score int, mode domain.Mode, answered int) (bool, error) {
	s.mu.Lock()
	entries, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	newHigh := score > bestFor(entries, mode)

	entries = append(entries, domain.ScoreEntry{
		Date:  s.now().UTC().Format(time.RFC3339Nano),
		Score: score,
		Mode:  string(mode),
	})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > maxStoredScores {
		entries = entries[:maxStoredScores]
	}
	err = s.save(ctx, entries)
	s.mu.Unlock()
	if err != nil {
		return newHigh, err
	}

	if s.auth != nil && s.auth.Authenticated() {
		s.submit(domain.ScoreSubmission{GameMode: mode, Score: score, QuestionsAnswered: answered})
	}
	return newHigh, nil
}

// submit mirrors a score in the background. Failures are always logged; a
// successful result is dropped when the auth state changed in flight.
func (s *ScoreStore) submit(submission domain.ScoreSubmission) {
	epoch := s.auth.Epoch()
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()

		stored, err := s.remote.SubmitScore(ctx, submission)
		if err != nil {
			log.Printf("failed to submit %s score to server: %v", submission.GameMode, err)
			return
		}
		if s.auth.Epoch() != epoch {
			log.Printf("discarding score submission result from a previous session")
			return
		}
		log.Printf("submitted %s score %d (id %d)", stored.GameMode, stored.Score, stored.ID)
	}()
}

// Wait blocks until background submissions have finished.
func (s *ScoreStore) Wait() {
	s.pending.Wait()
}

// MigrateLocalScores sends the local list to the signed in account once.
// Failures are logged and not retried. It returns the number migrated.
func (s *ScoreStore) MigrateLocalScores(ctx context.Context) int {
	if s.auth == nil || !s.auth.Authenticated() {
		return 0
	}
	user, _ := s.auth.User()
	marker := fmt.Sprintf("%s%d", migratedKeyPrefix, user.ID)
	if _, err := s.store.Get(ctx, marker); err == nil {
		return 0
	}

	entries, err := s.Scores(ctx)
	if err != nil {
		log.Printf("failed to read local scores for migration: %v", err)
		return 0
	}
	if len(entries) == 0 {
		return 0
	}
	if err := s.store.Set(ctx, marker, s.now().UTC().Format(time.RFC3339)); err != nil {
		log.Printf("failed to mark score migration: %v", err)
	}

	payload := lo.Map(entries, func(e domain.ScoreEntry, _ int) domain.LocalScore {
		return domain.LocalScore{Mode: e.Mode, Score: e.Score, Date: e.Date}
	})
	count, err := s.remote.MigrateScores(ctx, payload)
	if err != nil {
		log.Printf("failed to migrate scores: %v", err)
		return 0
	}
	log.Printf("migrated %d local scores for %s", count, user.Username)
	return count
}

// Scores returns the persisted top-10 list.
func (s *ScoreStore) Scores(ctx context.Context) ([]domain.ScoreEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// ScoresFor returns the persisted entries of one mode, best first.
func (s *ScoreStore) ScoresFor(ctx context.Context, mode domain.Mode) ([]domain.ScoreEntry, error) {
	entries, err := s.Scores(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(entries, func(e domain.ScoreEntry, _ int) bool {
		return e.Mode == string(mode)
	}), nil
}

// HighScore returns the best local score for mode, or 0.
func (s *ScoreStore) HighScore(ctx context.Context, mode domain.Mode) (int, error) {
	entries, err := s.Scores(ctx)
	if err != nil {
		return 0, err
	}
	return bestFor(entries, mode), nil
}

// Leaderboard fetches the public ranking for mode.
func (s *ScoreStore) Leaderboard(ctx context.Context, mode domain.Mode, limit int) ([]domain.LeaderboardEntry, error) {
	return s.remote.Leaderboard(ctx, mode, limit)
}

// MyScores fetches the signed in user's remote scores.
func (s *ScoreStore) MyScores(ctx context.Context, mode domain.Mode) ([]domain.StoredScore, error) {
	if s.auth == nil || !s.auth.Authenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	return s.remote.MyScores(ctx, mode)
}

// UserStats fetches public statistics for username.
func (s *ScoreStore) UserStats(ctx context.Context, username string) (domain.UserStats, error) {
	return s.remote.UserStats(ctx, username)
}

func (s *ScoreStore) load(ctx context.Context) ([]domain.ScoreEntry, error) {
	raw, err := s.store.Get(ctx, scoresKey)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []domain.ScoreEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Printf("failed to parse scores: %v", err)
		return nil, nil
	}
	return entries, nil
}

func (s *ScoreStore) save(ctx context.Context, entries []domain.ScoreEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, scoresKey, string(data))
}

func bestFor(entries []domain.ScoreEntry, mode domain.Mode) int {
	best := 0
	for _, e := range entries {
		if e.Mode == string(mode) && e.Score > best {
			best = e.Score
		}
	}
	return best
}
