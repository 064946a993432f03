package game

import (
	"context"
	"errors"
	"time"

	"geo-elevate/internal/domain"
)

// EventType names what happened in the game loop.
type EventType string

const (
	EventQuestion EventType = "question"
	EventAnswer   EventType = "answerResult"
	EventTick     EventType = "tick"
	EventOver     EventType = "gameOver"
)

// Event is emitted by the Runner in the order things happened.
type Event struct {
	Type      EventType           `json:"type"`
	Question  *domain.Question    `json:"question,omitempty"`
	Outcome   *AnswerOutcome      `json:"outcome,omitempty"`
	Remaining int                 `json:"remaining"`
	Summary   *domain.GameSummary `json:"summary,omitempty"`
}

type answerMsg struct {
	questionID int
	answer     string
	reply      chan error
}

// Runner drives a Session from a single goroutine. Ticks, answers and the
// pause between questions are all serialised through Run.
type Runner struct {
	session *Session
	answers chan answerMsg
	shown   chan int
	events  chan Event
	done    chan struct{}
}

// NewRunner wraps session in an event loop.
func NewRunner(session *Session) *Runner {
	return &Runner{
		session: session,
		answers: make(chan answerMsg),
		shown:   make(chan int),
		events:  make(chan Event, 16),
		done:    make(chan struct{}),
	}
}

// Session exposes the underlying state machine for read access.
func (r *Runner) Session() *Session {
	return r.session
}

// Events delivers game events. It is closed when Run returns.
func (r *Runner) Events() <-chan Event {
	return r.events
}

// Done is closed when the game loop has stopped.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Answer submits an answer for questionID and waits for the loop to accept or reject it.
func (r *Runner) Answer(ctx context.Context, questionID int, answer string) error {
	msg := answerMsg{questionID: questionID, answer: answer, reply: make(chan error, 1)}
	select {
	case r.answers <- msg:
	case <-r.done:
		return domain.ErrGameOver
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-msg.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shown reports that the front end has displayed questionID. The answer
// clock starts here; a question never confirmed is timed from generation.
func (r *Runner) Shown(ctx context.Context, questionID int) error {
	select {
	case r.shown <- questionID:
		return nil
	case <-r.done:
		return domain.ErrGameOver
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run plays the game on catalog until it ends or ctx is cancelled. The
// summary is returned once; a cancelled game still reports what was played.
func (r *Runner) Run(ctx context.Context, catalog []domain.Country) (domain.GameSummary, error) {
	defer close(r.done)
	defer close(r.events)

	cfg := r.session.Config()

	question, err := r.session.Start(catalog)
	if err != nil {
		summary, _ := r.session.Finish()
		return summary, err
	}
	if !r.show(ctx, question) {
		summary, _ := r.session.Finish()
		return summary, ctx.Err()
	}

	var tick <-chan time.Time
	if !r.session.Mode().Timed() {
		ticker := time.NewTicker(cfg.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var (
		delay     *time.Timer
		nextReady <-chan time.Time
		finalSeen bool
	)
	stopDelay := func() {
		if delay != nil {
			delay.Stop()
			delay = nil
			nextReady = nil
		}
	}
	defer stopDelay()

	for {
		select {
		case <-ctx.Done():
			stopDelay()
			summary, _ := r.session.Finish()
			return summary, ctx.Err()

		case <-tick:
			remaining, over := r.session.Tick()
			if !r.emit(ctx, Event{Type: EventTick, Remaining: remaining}) {
				continue
			}
			if over {
				stopDelay()
				return r.finish(ctx), nil
			}

		case id := <-r.shown:
			r.session.MarkShown(id)

		case msg := <-r.answers:
			outcome, err := r.session.Answer(msg.questionID, msg.answer)
			msg.reply <- err
			if err != nil {
				continue
			}
			r.emit(ctx, Event{Type: EventAnswer, Outcome: &outcome, Remaining: r.session.Remaining()})
			finalSeen = outcome.Final
			stopDelay()
			delay = time.NewTimer(cfg.AnswerDelay)
			nextReady = delay.C

		case <-nextReady:
			delay = nil
			nextReady = nil
			if finalSeen {
				return r.finish(ctx), nil
			}
			question, err := r.session.Next()
			if err != nil {
				if errors.Is(err, domain.ErrGameOver) {
					return r.finish(ctx), nil
				}
				summary, _ := r.session.Finish()
				return summary, err
			}
			r.show(ctx, question)
		}
	}
}

func (r *Runner) show(ctx context.Context, question domain.Question) bool {
	return r.emit(ctx, Event{Type: EventQuestion, Question: &question, Remaining: r.session.Remaining()})
}

func (r *Runner) finish(ctx context.Context) domain.GameSummary {
	summary, first := r.session.Finish()
	if first {
		r.emit(ctx, Event{Type: EventOver, Summary: &summary, Remaining: r.session.Remaining()})
	}
	return summary
}

// emit keeps accepting Shown confirmations while the consumer is behind.
func (r *Runner) emit(ctx context.Context, ev Event) bool {
	for {
		select {
		case r.events <- ev:
			return true
		case id := <-r.shown:
			r.session.MarkShown(id)
		case <-ctx.Done():
			return false
		}
	}
}
