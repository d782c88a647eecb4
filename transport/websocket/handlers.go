package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/playgrid/tictactoe-backend/internal/game"
)

// handleConnect - binds the session to a player, registering a new player
// when the client has no session ID yet.
func (that *Server) handleConnect(ctx context.Context, sess *session, message *Message) error {
	var payload ConnectPayload
	if len(message.Payload) > 0 {
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal connect payload: %w", err)
		}
	}

	player, err := that.manager.GetOrCreatePlayer(ctx, payload.PlayerID)
	if err != nil {
		return fmt.Errorf("failed to get or create player: %w", err)
	}

	sess.playerID = player.ID

	if player.MatchID != "" {
		that.subscribe(sess, player.MatchID)
	}

	that.logger.Info("player connected", "player_id", player.ID)

	return sess.send(ctx, ActionConnect, StatePayload{Player: player})
}

// handleNewMatch - creates a match for the session's player and seats them as X.
func (that *Server) handleNewMatch(ctx context.Context, sess *session, _ *Message) error {
	if sess.playerID == "" {
		return ErrNotConnected
	}

	match, err := that.manager.CreateMatch(ctx, sess.playerID)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	that.subscribe(sess, match.ID)

	return sess.send(ctx, ActionMatchState, StatePayload{Match: match})
}

// handleJoinMatch - seats the session's player at an existing match.
func (that *Server) handleJoinMatch(ctx context.Context, sess *session, message *Message) error {
	if sess.playerID == "" {
		return ErrNotConnected
	}

	var payload JoinPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal join payload: %w", err)
	}

	match, err := that.manager.JoinMatch(ctx, payload.MatchID, sess.playerID)
	if err != nil {
		return fmt.Errorf("failed to join match: %w", err)
	}

	that.subscribe(sess, match.ID)
	that.broadcastState(ctx, match)

	return nil
}

// handleMove - applies one move and pushes the resulting state to both players.
func (that *Server) handleMove(ctx context.Context, sess *session, message *Message) error {
	if sess.playerID == "" {
		return ErrNotConnected
	}

	var payload MovePayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal move payload: %w", err)
	}

	match, result, err := that.manager.ApplyMove(ctx, sess.playerID, payload.Cell)
	if err != nil {
		return fmt.Errorf("failed to apply move: %w", err)
	}

	applied := result == game.MoveApplied
	if !applied {
		// no state change; only the caller needs to hear about it
		return sess.send(ctx, ActionMatchState, StatePayload{Match: match, Applied: &applied})
	}

	that.broadcastState(ctx, match)

	return nil
}

// handleReset - starts the session's match over and pushes the fresh state.
func (that *Server) handleReset(ctx context.Context, sess *session, _ *Message) error {
	if sess.playerID == "" {
		return ErrNotConnected
	}

	if sess.matchID == "" {
		return ErrNotConnected
	}

	match, err := that.manager.ResetMatch(ctx, sess.matchID)
	if err != nil {
		return fmt.Errorf("failed to reset match: %w", err)
	}

	that.broadcastState(ctx, match)

	return nil
}
