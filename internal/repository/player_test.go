package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playgrid/tictactoe-backend/internal/entity"
	"github.com/playgrid/tictactoe-backend/testing/suite"
)

func TestPlayerRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	playerRepo := NewPlayerRepository(st.Storage)

	// Given: a player with an ID and a mark
	player := &entity.Player{
		ID:   "p1",
		Mark: "X",
	}

	// When: CreateOrUpdate is called
	err := playerRepo.CreateOrUpdate(ctx, player)

	// Then: no error should be returned
	require.NoError(t, err)
}

func TestPlayerRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		playerRepo := NewPlayerRepository(st.Storage)

		// Given: a stored player
		player := &entity.Player{
			ID:      "p1",
			Mark:    "X",
			MatchID: "123",
		}
		require.NoError(t, playerRepo.CreateOrUpdate(ctx, player))

		// When: GetByID is called with the existing ID
		retrievedPlayer, err := playerRepo.GetByID(ctx, player.ID)

		// Then: the retrieved player should match the saved one
		require.NoError(t, err)
		require.Equal(t, player, retrievedPlayer)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		playerRepo := NewPlayerRepository(st.Storage)

		// When: GetByID is called with a non-existent ID
		retrievedPlayer, err := playerRepo.GetByID(ctx, "stranger")

		// Then: an ErrPlayerNotFound error should be returned
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPlayerNotFound)
		assert.Empty(t, retrievedPlayer.ID)
	})
}
