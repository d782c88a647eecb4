package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/playgrid/tictactoe-backend/internal/entity"
	"github.com/playgrid/tictactoe-backend/internal/game"
)

type matchManager interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)
	CreateMatch(ctx context.Context, playerID string) (*entity.Match, error)
	JoinMatch(ctx context.Context, matchID, playerID string) (*entity.Match, error)
	GetMatch(ctx context.Context, matchID string) (*entity.Match, error)
	ApplyMove(ctx context.Context, playerID string, cell int) (*entity.Match, game.MoveResult, error)
	ResetMatch(ctx context.Context, matchID string) (*entity.Match, error)
}

type Server struct {
	logger  *slog.Logger
	manager matchManager
}

func New(logger *slog.Logger, manager matchManager) *Server {
	return &Server{
		logger:  logger,
		manager: manager,
	}
}

// Start - starts the HTTP API server.
func (that *Server) Start(port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Routes - wires the API routes and returns the handler.
func (that *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/ping", that.handlePing)

	router.Post("/players", that.handleCreatePlayer)

	router.Post("/matches", that.handleCreateMatch)
	router.Route("/matches/{id}", func(router chi.Router) {
		router.Get("/", that.handleGetMatch)
		router.Post("/join", that.handleJoinMatch)
		router.Post("/moves", that.handleApplyMove)
		router.Post("/reset", that.handleResetMatch)
	})

	return router
}
