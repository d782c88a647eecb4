package game

import (
	"errors"
	"fmt"
)

const (
	StatusOngoing = "ongoing"
	StatusWon     = "won"
	StatusDraw    = "draw"

	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""
)

// ErrInvalidCell - a cell index outside [0, 8] is a caller bug, not a game event.
var ErrInvalidCell = errors.New("invalid cell index")

// WinningLines - the 8 board index triples that decide a game, in scan order.
// Shared read-only by every game instance.
var WinningLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// MoveResult reports what ApplyMove did with the request.
type MoveResult int

const (
	// MoveIgnored - the cell was occupied or the game was already over; state is untouched.
	MoveIgnored MoveResult = iota
	// MoveApplied - the mark was placed and the outcome re-evaluated.
	MoveApplied
)

// Game holds the state of a single match: the board, whose turn it is,
// and the outcome once the match is over.
type Game struct {
	Board       [9]string `json:"board"`
	Turn        string    `json:"turn"`
	Status      string    `json:"status"`
	Winner      string    `json:"winner,omitempty"`
	WinningLine []int     `json:"winning_line,omitempty"`
}

// NewGame - returns a fresh match: empty board, X to move.
func NewGame() *Game {
	return &Game{
		Board:  [9]string{},
		Turn:   PlayerX,
		Status: StatusOngoing,
	}
}

// Reset - discards the current state and starts over. The previous state
// does not influence the new one in any way.
func (that *Game) Reset() {
	*that = *NewGame()
}

// ApplyMove - places the current player's mark into the given cell and
// re-evaluates the outcome. A move into an occupied cell, or any move once
// the game is over, is a deliberate no-op: the state stays byte-for-byte
// unchanged and MoveIgnored is returned. Only an out-of-range cell index is
// an error.
func (that *Game) ApplyMove(cell int) (MoveResult, error) {
	if cell < 0 || cell >= len(that.Board) {
		return MoveIgnored, fmt.Errorf("%w: cell %d", ErrInvalidCell, cell)
	}

	if that.IsOver() || that.Board[cell] != EmptyCell {
		return MoveIgnored, nil
	}

	that.Board[cell] = that.Turn

	switch winner, line, won := EvaluateOutcome(that.Board); {
	case won:
		that.Winner = winner
		that.WinningLine = line[:]
		that.Status = StatusWon
		// Turn stays on the winner.
	case EvaluateDraw(that.Board):
		that.Status = StatusDraw
	default:
		that.Turn = toggleMark(that.Turn)
	}

	return MoveApplied, nil
}

// IsOver - true once the game reached a terminal outcome.
func (that *Game) IsOver() bool {
	return that.Status != StatusOngoing
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

// EvaluateOutcome - scans the winning lines in catalog order and reports
// the first line fully held by one mark. The scan order is part of the
// contract: on a contrived board with two complete lines the earlier
// catalog entry wins.
func EvaluateOutcome(board [9]string) (winner string, line [3]int, won bool) {
	for _, combo := range WinningLines {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a, combo, true
		}
	}

	return EmptyCell, [3]int{}, false
}

// EvaluateDraw - true when the board is full and nobody has won. A full
// board that contains a winning line is a win, never a draw.
func EvaluateDraw(board [9]string) bool {
	if _, _, won := EvaluateOutcome(board); won {
		return false
	}

	for _, cell := range board {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func toggleMark(currentMark string) string {
	if currentMark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
