package app

import (
	"context"
	"sync"
	"time"

	"geo-elevate/internal/domain"
	"github.com/golang-jwt/jwt/v4"
)

type fakeAuthAPI struct {
	mu         sync.Mutex
	loginResp  domain.AuthResponse
	loginErr   error
	currentErr error
	current    domain.User
	meCalls    int
}

func (f *fakeAuthAPI) Login(_ context.Context, _, _ string) (domain.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAuthAPI) Signup(_ context.Context, username, email, _ string) (domain.AuthResponse, error) {
	if f.loginErr != nil {
		return domain.AuthResponse{}, f.loginErr
	}
	resp := f.loginResp
	resp.User.Username = username
	resp.User.Email = email
	return resp, nil
}

func (f *fakeAuthAPI) CurrentUser(_ context.Context, _ string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	return f.current, f.currentErr
}

type fakeScoreAPI struct {
	mu          sync.Mutex
	submitted   []domain.ScoreSubmission
	submitErr   error
	submitGate  chan struct{}
	onSubmit    func()
	migrated    [][]domain.LocalScore
	migrateErr  error
	leaderboard []domain.LeaderboardEntry
	mine        []domain.StoredScore
}

func (f *fakeScoreAPI) SubmitScore(_ context.Context, sub domain.ScoreSubmission) (domain.StoredScore, error) {
	if f.submitGate != nil {
		<-f.submitGate
	}
	if f.onSubmit != nil {
		f.onSubmit()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, sub)
	return domain.StoredScore{ID: len(f.submitted), GameMode: sub.GameMode, Score: sub.Score}, f.submitErr
}

func (f *fakeScoreAPI) MyScores(_ context.Context, _ domain.Mode) ([]domain.StoredScore, error) {
	return f.mine, nil
}

func (f *fakeScoreAPI) Leaderboard(_ context.Context, _ domain.Mode, limit int) ([]domain.LeaderboardEntry, error) {
	if limit < len(f.leaderboard) {
		return f.leaderboard[:limit], nil
	}
	return f.leaderboard, nil
}

func (f *fakeScoreAPI) MigrateScores(_ context.Context, scores []domain.LocalScore) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.migrated = append(f.migrated, scores)
	if f.migrateErr != nil {
		return 0, f.migrateErr
	}
	return len(scores), nil
}

func (f *fakeScoreAPI) UserStats(_ context.Context, username string) (domain.UserStats, error) {
	return domain.UserStats{Username: username}, nil
}

func (f *fakeScoreAPI) submissions() []domain.ScoreSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ScoreSubmission(nil), f.submitted...)
}

type fakeSource struct {
	mu        sync.Mutex
	countries []domain.Country
	err       error
	calls     int
}

func (f *fakeSource) FetchCountries(_ context.Context) ([]domain.Country, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.countries, f.err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func signedToken(exp time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ann", "exp": exp.Unix()})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return signed
}

func sampleCountries() []domain.Country {
	return []domain.Country{
		{Name: "France", Capital: "Paris", Region: "Europe", Code: "FR"},
		{Name: "Japan", Capital: "Tokyo", Region: "Asia", Code: "JP"},
		{Name: "Brazil", Capital: "Brasília", Region: "Americas", Code: "BR"},
		{Name: "Kenya", Capital: "Nairobi", Region: "Africa", Code: "KE"},
		{Name: "Canada", Capital: "Ottawa", Region: "Americas", Code: "CA"},
	}
}
