package domain

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidMode is returned for an unknown game mode name.
	ErrInvalidMode = errors.New("invalid game mode")
	// ErrEmptyCatalog is returned when no countries are available.
	ErrEmptyCatalog = errors.New("country catalog is empty")
	// ErrInsufficientCatalog is returned when the catalog cannot provide four distinct answers.
	ErrInsufficientCatalog = errors.New("insufficient catalog diversity")
	// ErrGameNotFound indicates an unknown game ID.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameOver is returned for actions on a finished game.
	ErrGameOver = errors.New("game is over")
	// ErrStaleQuestion is returned for an answer tagged with a question that is no longer current.
	ErrStaleQuestion = errors.New("stale question")
	// ErrAlreadyAnswered is returned for a second answer to the same question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrInvalidState is returned when an operation does not fit the current game state.
	ErrInvalidState = errors.New("invalid game state")
	// ErrKeyNotFound is returned by key-value stores for a missing key.
	ErrKeyNotFound = errors.New("key not found")
	// ErrNotAuthenticated is returned for operations that need a signed in user.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUnauthorized indicates bad credentials or a rejected token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation error")
	// ErrServer indicates a server side failure.
	ErrServer = errors.New("server error")
	// ErrNetwork indicates the remote service could not be reached.
	ErrNetwork = errors.New("network error")
)

// AuthMessage turns an auth failure into a message fit for the user.
func AuthMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "Invalid username or password."
	case errors.Is(err, ErrValidation):
		return "Please check your input: " + strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
	case errors.Is(err, ErrServer):
		return "The server had a problem. Please try again later."
	case errors.Is(err, ErrNetwork):
		return "Unable to reach the server. Check your connection and try again."
	default:
		return "Something went wrong: " + err.Error()
	}
}
