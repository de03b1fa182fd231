package domain

import "errors"

var (
	// ErrNoQuestions is returned when the question source produced nothing to play.
	ErrNoQuestions = errors.New("no questions available")
	// ErrInvalidSettings indicates the settings form carried an unusable value.
	ErrInvalidSettings = errors.New("invalid game settings")
	// ErrGameNotFound is returned when a game id is unknown or already discarded.
	ErrGameNotFound = errors.New("game not found")
	// ErrAnswerRejected is returned when an answer arrives outside of AwaitingAnswer.
	ErrAnswerRejected = errors.New("answer rejected: question is not awaiting an answer")
	// ErrNotResolved is returned when advancing before the current question resolved.
	ErrNotResolved = errors.New("current question is not resolved")
	// ErrGameOver is returned when a command reaches a game whose loop has ended.
	ErrGameOver = errors.New("game is over")
)
