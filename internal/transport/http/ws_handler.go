package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"geo-elevate/internal/app"
	"geo-elevate/internal/domain"
	"geo-elevate/internal/game"
	"github.com/gorilla/websocket"
)

const (
	typeStarted = "started"
	typeError   = "error"
)

// GameService is the slice of app.GameService the socket drives.
type GameService interface {
	Start(ctx context.Context, mode domain.Mode) (*game.Runner, app.Catalog, error)
	Play(ctx context.Context, runner *game.Runner, catalog app.Catalog) (app.GameResult, error)
	Answer(ctx context.Context, gameID string, questionID int, answer string) error
	Shown(ctx context.Context, gameID string, questionID int) error
}

type WSHandler struct {
	service  GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID int    `json:"questionId"`
	Answer     string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type startedPayload struct {
	GameID    string      `json:"gameId"`
	Mode      domain.Mode `json:"mode"`
	Offline   bool        `json:"offline"`
	Advisory  string      `json:"advisory,omitempty"`
	Countries int         `json:"countries"`
}

// questionPayload never carries the answer: flag questions show the flag
// and region only.
type questionPayload struct {
	QuestionID int      `json:"questionId"`
	Prompt     string   `json:"prompt"`
	Country    string   `json:"country,omitempty"`
	FlagURL    string   `json:"flagUrl,omitempty"`
	Region     string   `json:"region"`
	Options    []string `json:"options"`
	Remaining  int      `json:"remaining"`
}

type tickPayload struct {
	Remaining int `json:"remaining"`
}

type answerResultPayload struct {
	game.AnswerOutcome
	Remaining int `json:"remaining"`
}

// ServeWS upgrades /ws?mode=... and plays one game over the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	runner, catalog, err := h.service.Start(ctx, mode)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: typeError, Payload: errorPayload{Message: err.Error()}})
		return
	}
	gameID := runner.Session().ID()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	pumpDone := make(chan struct{})

	// Single writer; a written question starts its answer clock and gameOver
	// is followed by a close frame.
	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
			if q, ok := msg.Payload.(questionPayload); ok {
				if err := h.service.Shown(ctx, gameID, q.QuestionID); err != nil && !shownAfterEnd(err) {
					log.Printf("ws shown %s/%d: %v", gameID, q.QuestionID, err)
				}
			}
			if msg.Type == string(game.EventOver) {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over"))
				_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			}
		}
	}()

	push := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-closeSignals:
			return false
		case <-writerDone:
			return false
		}
	}

	push(outboundMessage[any]{Type: typeStarted, Payload: startedPayload{
		GameID:    gameID,
		Mode:      mode,
		Offline:   catalog.Offline,
		Advisory:  catalog.Advisory,
		Countries: len(catalog.Countries),
	}})

	go func() {
		defer close(pumpDone)
		type played struct {
			result app.GameResult
			err    error
		}
		resultCh := make(chan played, 1)
		go func() {
			result, err := h.service.Play(ctx, runner, catalog)
			resultCh <- played{result, err}
		}()

		for ev := range runner.Events() {
			if msg, ok := eventMessage(mode, ev); ok {
				if !push(msg) {
					cancel()
				}
			}
		}

		out := <-resultCh
		if out.err != nil {
			if !errors.Is(out.err, context.Canceled) {
				push(outboundMessage[any]{Type: typeError, Payload: errorPayload{Message: out.err.Error()}})
			}
			return
		}
		push(outboundMessage[any]{Type: string(game.EventOver), Payload: out.result})
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(outboundMessage[any]{Type: typeError, Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			if err := h.service.Answer(ctx, gameID, payload.QuestionID, payload.Answer); err != nil {
				push(outboundMessage[any]{Type: typeError, Payload: errorPayload{Message: err.Error()}})
			}
		default:
			push(outboundMessage[any]{Type: typeError, Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	cancel()
	close(closeSignals)
	<-pumpDone
	close(send)
	<-writerDone
}

// eventMessage maps a game event to its wire message. gameOver is sent
// separately once the score has been recorded.
func eventMessage(mode domain.Mode, ev game.Event) (outboundMessage[any], bool) {
	switch ev.Type {
	case game.EventQuestion:
		q := ev.Question
		payload := questionPayload{
			QuestionID: q.ID,
			Prompt:     mode.Prompt(),
			Region:     q.Subject.Region,
			Options:    q.Options,
			Remaining:  ev.Remaining,
		}
		if mode == domain.ModeFlags {
			payload.FlagURL = q.Subject.FlagURL()
		} else {
			payload.Country = q.Subject.Name
		}
		return outboundMessage[any]{Type: string(ev.Type), Payload: payload}, true
	case game.EventAnswer:
		return outboundMessage[any]{Type: string(ev.Type), Payload: answerResultPayload{AnswerOutcome: *ev.Outcome, Remaining: ev.Remaining}}, true
	case game.EventTick:
		return outboundMessage[any]{Type: string(ev.Type), Payload: tickPayload{Remaining: ev.Remaining}}, true
	}
	return outboundMessage[any]{}, false
}

// shownAfterEnd reports errors from a display confirmation that raced the
// end of the game or of the connection.
func shownAfterEnd(err error) bool {
	return errors.Is(err, domain.ErrGameOver) ||
		errors.Is(err, domain.ErrGameNotFound) ||
		errors.Is(err, context.Canceled)
}
