package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/playgrid/tictactoe-backend/internal/apperror"
	"github.com/playgrid/tictactoe-backend/internal/entity"
	"github.com/playgrid/tictactoe-backend/internal/game"
	"github.com/playgrid/tictactoe-backend/internal/pkg"
)

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type matchRepo interface {
	CreateOrUpdate(ctx context.Context, match *entity.Match) error
	GetByID(ctx context.Context, id string) (*entity.Match, error)
	DeleteByID(ctx context.Context, id string) error
}

// MatchManager owns every live match: it loads a match, applies one engine
// operation, and stores the result. Mutations on the same match are
// serialized so the turn alternation invariant holds no matter how many
// connections feed it.
type MatchManager struct {
	logger     *slog.Logger
	playerRepo playerRepo
	matchRepo  matchRepo

	mu         sync.Mutex
	matchLocks map[string]*sync.Mutex
}

func NewMatchManager(logger *slog.Logger, playerRepo playerRepo, matchRepo matchRepo) *MatchManager {
	return &MatchManager{
		logger: logger,

		playerRepo: playerRepo,
		matchRepo:  matchRepo,

		matchLocks: make(map[string]*sync.Mutex),
	}
}

// GetOrCreatePlayer - returns the player for a session ID, registering a new
// player when the ID is empty.
func (that *MatchManager) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	if id == "" {
		player := &entity.Player{
			ID: pkg.GenerateSessionID(),
		}

		if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
			return nil, fmt.Errorf("failed to create player: %w", err)
		}

		return player, nil
	}

	player, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	return player, nil
}

// CreateMatch - creates a fresh match and seats the creating player as X.
func (that *MatchManager) CreateMatch(ctx context.Context, playerID string) (*entity.Match, error) {
	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	match := entity.NewMatch(pkg.GenerateMatchID())
	if err = match.Seat(player); err != nil {
		return nil, fmt.Errorf("failed to seat player: %w", err)
	}

	if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	if err = that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	return match, nil
}

// JoinMatch - seats the player at an existing match. The second seat gets O.
func (that *MatchManager) JoinMatch(ctx context.Context, matchID, playerID string) (*entity.Match, error) {
	unlock := that.lockMatch(matchID)
	defer unlock()

	match, err := that.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}

	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if err = match.Seat(player); err != nil {
		return nil, fmt.Errorf("failed to seat player: %w", err)
	}

	if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	if err = that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	return match, nil
}

// GetMatch - read accessor for the presentation layer.
func (that *MatchManager) GetMatch(ctx context.Context, matchID string) (*entity.Match, error) {
	match, err := that.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}

	return match, nil
}

// ApplyMove - applies one move for the given player to their match. A move
// into an occupied cell or after the match is over comes back as
// game.MoveIgnored with the state untouched; only an out-of-range cell is an
// error from the engine.
func (that *MatchManager) ApplyMove(ctx context.Context, playerID string, cell int) (*entity.Match, game.MoveResult, error) {
	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, game.MoveIgnored, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.MatchID == "" {
		return nil, game.MoveIgnored, apperror.ErrNoActiveMatch
	}

	unlock := that.lockMatch(player.MatchID)
	defer unlock()

	match, err := that.matchRepo.GetByID(ctx, player.MatchID)
	if err != nil {
		return nil, game.MoveIgnored, fmt.Errorf("failed to get match by id: %w", err)
	}

	mark, seated := match.MarkOf(player.ID)
	if !seated {
		return nil, game.MoveIgnored, fmt.Errorf("%w: player %s", apperror.ErrNotInMatch, player.ID)
	}

	if !match.IsFull() {
		return match, game.MoveIgnored, apperror.ErrMatchNotStarted
	}

	if match.State.IsOngoing() && match.State.Turn != mark {
		return match, game.MoveIgnored, apperror.ErrNotYourTurn
	}

	result, err := match.State.ApplyMove(cell)
	if err != nil {
		return nil, game.MoveIgnored, fmt.Errorf("failed to apply move: %w", err)
	}

	if result == game.MoveApplied {
		if err = that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
			return nil, game.MoveIgnored, fmt.Errorf("failed to update match: %w", err)
		}
	}

	return match, result, nil
}

// ResetMatch - replaces the match's game state with a brand-new one. Seats
// are kept; the board, turn and outcome start over.
func (that *MatchManager) ResetMatch(ctx context.Context, matchID string) (*entity.Match, error) {
	unlock := that.lockMatch(matchID)
	defer unlock()

	match, err := that.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}

	match.State.Reset()

	if err = that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	return match, nil
}

// DeleteMatch - removes a match and frees its players for a new one.
func (that *MatchManager) DeleteMatch(ctx context.Context, matchID string) error {
	unlock := that.lockMatch(matchID)
	defer unlock()

	match, err := that.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to get match by id: %w", err)
	}

	if err = that.matchRepo.DeleteByID(ctx, match.ID); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}

	for _, player := range match.Players {
		player.Mark = ""
		player.MatchID = ""

		if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
			that.logger.Error("failed to update player", "error", err)
		}
	}

	return nil
}

// lockMatch - serializes mutations per match instance.
func (that *MatchManager) lockMatch(matchID string) func() {
	that.mu.Lock()
	lock, ok := that.matchLocks[matchID]
	if !ok {
		lock = &sync.Mutex{}
		that.matchLocks[matchID] = lock
	}
	that.mu.Unlock()

	lock.Lock()

	return lock.Unlock
}
