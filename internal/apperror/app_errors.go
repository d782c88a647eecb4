package apperror

import "errors"

var (
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrMatchFull       = errors.New("match already has two players")
	ErrNotInMatch      = errors.New("player is not seated in this match")
	ErrNoActiveMatch   = errors.New("player has no active match")
	ErrMatchNotStarted = errors.New("match is waiting for a second player")
)
