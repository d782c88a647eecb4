package entity

import (
	"fmt"

	"github.com/playgrid/tictactoe-backend/internal/apperror"
	"github.com/playgrid/tictactoe-backend/internal/game"
)

// Match is one game instance owned by a session: the engine state plus the
// players seated at it.
type Match struct {
	ID      string    `json:"id"`
	State   game.Game `json:"state"`
	Players []*Player `json:"players,omitempty"`
}

// NewMatch - creates a match with a fresh game state and no seats taken.
func NewMatch(id string) *Match {
	return &Match{
		ID:    id,
		State: *game.NewGame(),
	}
}

// Seat - seats the player at the next free side. The first player gets X,
// the second gets O. Seating the same player twice is idempotent.
func (that *Match) Seat(player *Player) error {
	for _, seated := range that.Players {
		if seated.ID == player.ID {
			player.Mark = seated.Mark
			player.MatchID = that.ID
			return nil
		}
	}

	if len(that.Players) >= 2 {
		return fmt.Errorf("%w: match id %s", apperror.ErrMatchFull, that.ID)
	}

	if len(that.Players) == 0 {
		player.Mark = game.PlayerX
	} else {
		player.Mark = game.PlayerO
	}

	player.MatchID = that.ID
	that.Players = append(that.Players, player)

	return nil
}

// MarkOf - returns the mark the given player holds in this match.
func (that *Match) MarkOf(playerID string) (string, bool) {
	for _, seated := range that.Players {
		if seated.ID == playerID {
			return seated.Mark, true
		}
	}

	return "", false
}

func (that *Match) IsFull() bool {
	return len(that.Players) == 2
}
