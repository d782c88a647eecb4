package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playgrid/tictactoe-backend/internal/apperror"
	"github.com/playgrid/tictactoe-backend/internal/game"
	"github.com/playgrid/tictactoe-backend/internal/repository"
)

type createMatchRequest struct {
	PlayerID string `json:"player_id"`
}

type joinMatchRequest struct {
	PlayerID string `json:"player_id"`
}

type applyMoveRequest struct {
	PlayerID string `json:"player_id"`
	Cell     int    `json:"cell"`
}

type moveResponse struct {
	Applied bool `json:"applied"`
	Match   any  `json:"match"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) handlePing(writer http.ResponseWriter, _ *http.Request) {
	writer.WriteHeader(http.StatusOK)
	if _, err := writer.Write([]byte("pong")); err != nil {
		http.Error(writer, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *Server) handleCreatePlayer(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handleCreatePlayer")

	player, err := that.manager.GetOrCreatePlayer(req.Context(), "")
	if err != nil {
		log.Error("failed to create player", "error", err)
		that.writeError(writer, http.StatusInternalServerError, err)
		return
	}

	that.writeJSON(writer, http.StatusCreated, player)
}

func (that *Server) handleCreateMatch(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handleCreateMatch")

	var body createMatchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		that.writeError(writer, http.StatusBadRequest, err)
		return
	}

	match, err := that.manager.CreateMatch(req.Context(), body.PlayerID)
	if err != nil {
		log.Error("failed to create match", "error", err)
		that.writeError(writer, that.statusFor(err), err)
		return
	}

	that.writeJSON(writer, http.StatusCreated, match)
}

func (that *Server) handleGetMatch(writer http.ResponseWriter, req *http.Request) {
	matchID := chi.URLParam(req, "id")

	match, err := that.manager.GetMatch(req.Context(), matchID)
	if err != nil {
		that.writeError(writer, that.statusFor(err), err)
		return
	}

	that.writeJSON(writer, http.StatusOK, match)
}

func (that *Server) handleJoinMatch(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handleJoinMatch")

	matchID := chi.URLParam(req, "id")

	var body joinMatchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		that.writeError(writer, http.StatusBadRequest, err)
		return
	}

	match, err := that.manager.JoinMatch(req.Context(), matchID, body.PlayerID)
	if err != nil {
		log.Error("failed to join match", "error", err)
		that.writeError(writer, that.statusFor(err), err)
		return
	}

	that.writeJSON(writer, http.StatusOK, match)
}

func (that *Server) handleApplyMove(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handleApplyMove")

	var body applyMoveRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		that.writeError(writer, http.StatusBadRequest, err)
		return
	}

	match, result, err := that.manager.ApplyMove(req.Context(), body.PlayerID, body.Cell)
	if err != nil {
		log.Error("failed to apply move", "error", err)
		that.writeError(writer, that.statusFor(err), err)
		return
	}

	that.writeJSON(writer, http.StatusOK, moveResponse{
		Applied: result == game.MoveApplied,
		Match:   match,
	})
}

func (that *Server) handleResetMatch(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handleResetMatch")

	matchID := chi.URLParam(req, "id")

	match, err := that.manager.ResetMatch(req.Context(), matchID)
	if err != nil {
		log.Error("failed to reset match", "error", err)
		that.writeError(writer, that.statusFor(err), err)
		return
	}

	that.writeJSON(writer, http.StatusOK, match)
}

// statusFor - maps service errors onto HTTP status codes.
func (that *Server) statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrMatchNotFound),
		errors.Is(err, repository.ErrPlayerNotFound),
		errors.Is(err, apperror.ErrNoActiveMatch):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidCell):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrMatchFull),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrMatchNotStarted),
		errors.Is(err, apperror.ErrNotInMatch):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (that *Server) writeJSON(writer http.ResponseWriter, status int, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)

	if err := json.NewEncoder(writer).Encode(payload); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *Server) writeError(writer http.ResponseWriter, status int, err error) {
	that.writeJSON(writer, status, errorResponse{Error: err.Error()})
}
