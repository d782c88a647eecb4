package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/playgrid/tictactoe-backend/internal/entity"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	CreateOrUpdate(ctx context.Context, match *entity.Match) error
	GetByID(ctx context.Context, id string) (*entity.Match, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbMatch struct {
	client *redis.Client
}

func NewMatchRepository(client *redis.Client) MatchRepository {
	return &dbMatch{
		client: client,
	}
}

func (that *dbMatch) CreateOrUpdate(ctx context.Context, match *entity.Match) error {
	matchJSON, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	matchKey := "match:" + match.ID
	if err = that.client.Set(ctx, matchKey, matchJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set match: %w", err)
	}

	return nil
}

func (that *dbMatch) GetByID(ctx context.Context, id string) (*entity.Match, error) {
	matchKey := "match:" + id

	response, err := that.client.Get(ctx, matchKey).Result()

	if errors.Is(err, redis.Nil) {
		return &entity.Match{}, ErrMatchNotFound
	}

	if err != nil {
		return &entity.Match{}, fmt.Errorf("failed to get match by ID: %w", err)
	}

	var existingMatch entity.Match
	if err = json.Unmarshal([]byte(response), &existingMatch); err != nil {
		return &entity.Match{}, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &existingMatch, nil
}

func (that *dbMatch) DeleteByID(ctx context.Context, id string) error {
	matchKey := "match:" + id

	if err := that.client.Del(ctx, matchKey).Err(); err != nil {
		return fmt.Errorf("failed to delete match by ID: %w", err)
	}

	return nil
}
