package websocket

import (
	"encoding/json"

	"github.com/playgrid/tictactoe-backend/internal/entity"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ConnectPayload struct {
	PlayerID string `json:"player_id,omitempty"`
}

type JoinPayload struct {
	MatchID string `json:"match_id"`
}

type MovePayload struct {
	Cell int `json:"cell"`
}

type StatePayload struct {
	Player  *entity.Player `json:"player,omitempty"`
	Match   *entity.Match  `json:"match,omitempty"`
	Applied *bool          `json:"applied,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
