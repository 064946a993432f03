package game

import (
	"fmt"
	"sync"
	"time"

	"geo-elevate/internal/domain"
)

// State is the position of a session in the game loop.
type State string

const (
	StateAwaitingCatalog State = "awaiting-catalog"
	StateInQuestion      State = "in-question"
	StateAnswered        State = "answered"
	StateOver            State = "over"
)

// Config holds the timing rules of the game loop.
type Config struct {
	Duration       time.Duration
	TickInterval   time.Duration
	SpeedQuestions int
	AnswerDelay    time.Duration
}

// DefaultConfig returns the standard rules: a 60 second countdown, ten speed
// questions and an 800ms pause after each answer.
func DefaultConfig() Config {
	return Config{
		Duration:       60 * time.Second,
		TickInterval:   time.Second,
		SpeedQuestions: 10,
		AnswerDelay:    800 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Duration <= 0 {
		c.Duration = def.Duration
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.SpeedQuestions <= 0 {
		c.SpeedQuestions = def.SpeedQuestions
	}
	if c.AnswerDelay < 0 {
		c.AnswerDelay = 0
	}
	return c
}

// Ticks is the number of countdown units in an untimed-mode game.
func (c Config) Ticks() int {
	c = c.withDefaults()
	return int(c.Duration / c.TickInterval)
}

// AnswerOutcome describes an accepted answer.
type AnswerOutcome struct {
	QuestionID int                   `json:"questionId"`
	Result     domain.QuestionResult `json:"result"`
	Points     int                   `json:"points"`
	TotalScore int                   `json:"totalScore"`
	// Final is set on the answer that completes a speed game.
	Final bool `json:"final"`
}

// Session is the state machine of one game. All methods are safe for
// concurrent use, but the Runner drives it from a single goroutine.
type Session struct {
	id   string
	mode domain.Mode
	cfg  Config
	gen  *Generator
	now  func() time.Time

	mu          sync.Mutex
	state       State
	catalog     []domain.Country
	question    domain.Question
	seq         int
	generatedAt time.Time
	shownAt     time.Time
	score       int
	remaining   int
	results     []domain.QuestionResult
	reported    bool
}

// NewSession creates a session waiting for its catalog.
func NewSession(id string, mode domain.Mode, cfg Config, gen *Generator) *Session {
	return NewSessionWithClock(id, mode, cfg, gen, time.Now)
}

// NewSessionWithClock allows deterministic answer latencies in tests.
func NewSessionWithClock(id string, mode domain.Mode, cfg Config, gen *Generator, now func() time.Time) *Session {
	cfg = cfg.withDefaults()
	if gen == nil {
		gen = NewGenerator(nil)
	}
	return &Session{
		id:        id,
		mode:      mode,
		cfg:       cfg,
		gen:       gen,
		now:       now,
		state:     StateAwaitingCatalog,
		remaining: cfg.Ticks(),
	}
}

// ID returns the game ID.
func (s *Session) ID() string { return s.id }

// Mode returns the game mode.
func (s *Session) Mode() domain.Mode { return s.mode }

// Config returns the timing rules with defaults applied.
func (s *Session) Config() Config { return s.cfg }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Score returns the accumulated score.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Remaining returns the countdown units left; speed games do not count down.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Results returns a copy of the answered rounds in answer order.
func (s *Session) Results() []domain.QuestionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.QuestionResult(nil), s.results...)
}

// Start validates the catalog and generates the first question.
func (s *Session) Start(catalog []domain.Country) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingCatalog {
		return domain.Question{}, fmt.Errorf("%w: start from %s", domain.ErrInvalidState, s.state)
	}
	if err := ValidateCatalog(catalog, s.mode); err != nil {
		return domain.Question{}, err
	}
	s.catalog = catalog
	return s.nextLocked()
}

// MarkShown starts the answer clock for questionID. The clock starts when
// the question becomes visible, not when it was generated.
func (s *Session) MarkShown(questionID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateInQuestion && s.question.ID == questionID && s.shownAt.IsZero() {
		s.shownAt = s.now()
	}
}

// Answer scores the answer to questionID. Only the first answer to the
// current question is accepted.
func (s *Session) Answer(questionID int, answer string) (AnswerOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state == StateOver:
		return AnswerOutcome{}, domain.ErrGameOver
	case questionID != s.question.ID:
		return AnswerOutcome{}, domain.ErrStaleQuestion
	case s.state == StateAnswered:
		return AnswerOutcome{}, domain.ErrAlreadyAnswered
	case s.state != StateInQuestion:
		return AnswerOutcome{}, fmt.Errorf("%w: answer in %s", domain.ErrInvalidState, s.state)
	}

	started := s.shownAt
	if started.IsZero() {
		started = s.generatedAt
	}
	elapsed := s.now().Sub(started)
	if elapsed < 0 {
		elapsed = 0
	}

	correct := answer == s.question.Correct
	points := Score(s.mode, correct, elapsed)
	elapsedMs := elapsed.Milliseconds()
	result := domain.QuestionResult{
		Country:        s.question.Subject,
		UserAnswer:     answer,
		CorrectAnswer:  s.question.Correct,
		IsCorrect:      correct,
		Mode:           s.mode,
		TimeToAnswerMs: &elapsedMs,
		Points:         points,
	}
	s.results = append(s.results, result)
	s.score += points
	s.state = StateAnswered

	return AnswerOutcome{
		QuestionID: questionID,
		Result:     result,
		Points:     points,
		TotalScore: s.score,
		Final:      s.mode.Timed() && len(s.results) >= s.cfg.SpeedQuestions,
	}, nil
}

// Next generates the question that follows an answer.
func (s *Session) Next() (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateOver {
		return domain.Question{}, domain.ErrGameOver
	}
	if s.state != StateAnswered {
		return domain.Question{}, fmt.Errorf("%w: next from %s", domain.ErrInvalidState, s.state)
	}
	if s.mode.Timed() && len(s.results) >= s.cfg.SpeedQuestions {
		return domain.Question{}, domain.ErrGameOver
	}
	return s.nextLocked()
}

func (s *Session) nextLocked() (domain.Question, error) {
	q, err := s.gen.Generate(s.catalog, s.mode)
	if err != nil {
		return domain.Question{}, err
	}
	s.seq++
	q.ID = s.seq
	s.question = q
	s.generatedAt = s.now()
	s.shownAt = time.Time{}
	s.state = StateInQuestion
	return q, nil
}

// Tick advances the countdown by one unit. It reports the remaining units and
// whether the countdown reached zero. Speed games ignore ticks.
func (s *Session) Tick() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateOver || s.mode.Timed() || s.state == StateAwaitingCatalog {
		return s.remaining, false
	}
	s.remaining--
	if s.remaining < 0 {
		s.remaining = 0
	}
	return s.remaining, s.remaining == 0
}

// Finish ends the session. The summary is returned on every call, but first
// is true only for the call that actually ended the game.
func (s *Session) Finish() (domain.GameSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateOver
	first := !s.reported
	s.reported = true
	return domain.GameSummary{
		GameID:         s.id,
		Mode:           s.mode,
		Score:          s.score,
		TotalQuestions: len(s.results),
		Results:        append([]domain.QuestionResult(nil), s.results...),
	}, first
}
