package domain

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the question style and the scoring rule of a game.
type Mode string

const (
	ModeCapitals Mode = "capitals"
	ModeFlags    Mode = "flags"
	ModeSpeed    Mode = "speed"
)

// Modes lists every playable mode in display order.
var Modes = []Mode{ModeCapitals, ModeFlags, ModeSpeed}

// ParseMode validates a user supplied mode name.
func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	switch mode {
	case ModeCapitals, ModeFlags, ModeSpeed:
		return mode, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
}

// Timed reports whether answers are scored by latency.
func (m Mode) Timed() bool {
	return m == ModeSpeed
}

// AnswerKey returns the field of c that answers a question in this mode.
func (m Mode) AnswerKey(c Country) string {
	if m == ModeFlags {
		return c.Name
	}
	return c.Capital
}

// Prompt is the question text shown above the subject.
func (m Mode) Prompt() string {
	if m == ModeFlags {
		return "Which country is this?"
	}
	return "What is the capital of"
}

// Country is one catalog record. Name is treated as the natural key.
type Country struct {
	Name    string `json:"name"`
	Capital string `json:"capital"`
	Region  string `json:"region"`
	Code    string `json:"code"`
}

// FlagURL points at the flag image used by visual front ends.
func (c Country) FlagURL() string {
	return "https://flagcdn.com/w160/" + strings.ToLower(c.Code) + ".png"
}

// Question is one round: a subject and four shuffled options.
type Question struct {
	ID      int      `json:"id"`
	Subject Country  `json:"subject"`
	Options []string `json:"options"`
	Correct string   `json:"-"`
}

// QuestionResult records a completed round for the post-game review.
type QuestionResult struct {
	Country        Country `json:"country"`
	UserAnswer     string  `json:"userAnswer"`
	CorrectAnswer  string  `json:"correctAnswer"`
	IsCorrect      bool    `json:"isCorrect"`
	Mode           Mode    `json:"mode"`
	TimeToAnswerMs *int64  `json:"timeToAnswerMs,omitempty"`
	Points         int     `json:"points"`
}

// GameSummary is reported once when a game ends.
type GameSummary struct {
	GameID         string           `json:"gameId"`
	Mode           Mode             `json:"mode"`
	Score          int              `json:"score"`
	TotalQuestions int              `json:"totalQuestions"`
	Results        []QuestionResult `json:"results"`
}

// ScoreEntry is one locally persisted score.
type ScoreEntry struct {
	Date  string `json:"date"`
	Score int    `json:"score"`
	Mode  string `json:"mode"`
}

// User is the identity returned by the auth service.
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// AuthResponse is returned by login and signup.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// AuthStatus is the exclusive state of the auth session.
type AuthStatus string

const (
	AuthAnonymous     AuthStatus = "anonymous"
	AuthGuest         AuthStatus = "guest"
	AuthAuthenticated AuthStatus = "authenticated"
)

// ScoreSubmission is the payload sent to the score service after a game.
type ScoreSubmission struct {
	GameMode          Mode `json:"game_mode"`
	Score             int  `json:"score"`
	QuestionsAnswered int  `json:"questions_answered"`
}

// StoredScore is a score record held by the score service.
type StoredScore struct {
	ID                int       `json:"id"`
	UserID            int       `json:"user_id"`
	GameMode          Mode      `json:"game_mode"`
	Score             int       `json:"score"`
	QuestionsAnswered int       `json:"questions_answered"`
	CreatedAt         time.Time `json:"created_at"`
	Username          string    `json:"username,omitempty"`
}

// LeaderboardEntry is one ranked row of the remote leaderboard.
type LeaderboardEntry struct {
	Rank              int       `json:"rank"`
	Username          string    `json:"username"`
	Score             int       `json:"score"`
	QuestionsAnswered int       `json:"questions_answered"`
	CreatedAt         time.Time `json:"created_at"`
}

// LocalScore is the migration payload for one locally stored score.
type LocalScore struct {
	Mode  string `json:"mode"`
	Score int    `json:"score"`
	Date  string `json:"date"`
}

// UserStats is the public per-user summary kept by the score service.
type UserStats struct {
	Username     string `json:"username"`
	TotalGames   int    `json:"total_games"`
	BestCapitals int    `json:"best_capitals"`
	BestFlags    int    `json:"best_flags"`
	BestSpeed    int    `json:"best_speed"`
	TotalScore   int    `json:"total_score"`
}
