package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playgrid/tictactoe-backend/internal/entity"
	"github.com/playgrid/tictactoe-backend/internal/game"
	"github.com/playgrid/tictactoe-backend/internal/repository"
	"github.com/playgrid/tictactoe-backend/internal/usecase"
)

// in-memory repositories so the API can be exercised without redis

type memPlayerRepo struct {
	players map[string]entity.Player
}

func (that *memPlayerRepo) CreateOrUpdate(_ context.Context, player *entity.Player) error {
	that.players[player.ID] = *player
	return nil
}

func (that *memPlayerRepo) GetByID(_ context.Context, id string) (*entity.Player, error) {
	player, ok := that.players[id]
	if !ok {
		return &entity.Player{}, repository.ErrPlayerNotFound
	}
	return &player, nil
}

type memMatchRepo struct {
	matches map[string]entity.Match
}

func (that *memMatchRepo) CreateOrUpdate(_ context.Context, match *entity.Match) error {
	that.matches[match.ID] = *match
	return nil
}

func (that *memMatchRepo) GetByID(_ context.Context, id string) (*entity.Match, error) {
	match, ok := that.matches[id]
	if !ok {
		return &entity.Match{}, repository.ErrMatchNotFound
	}
	return &match, nil
}

func (that *memMatchRepo) DeleteByID(_ context.Context, id string) error {
	delete(that.matches, id)
	return nil
}

func newTestServer() http.Handler {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	manager := usecase.NewMatchManager(
		logger,
		&memPlayerRepo{players: make(map[string]entity.Player)},
		&memMatchRepo{matches: make(map[string]entity.Match)},
	)

	return New(logger, manager).Routes()
}

func doJSON(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))

	return out
}

func createPlayer(t *testing.T, handler http.Handler) entity.Player {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/players", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	return decodeBody[entity.Player](t, rec)
}

// startedMatch - creates two players and a full match over the API.
func startedMatch(t *testing.T, handler http.Handler) (entity.Match, entity.Player, entity.Player) {
	t.Helper()

	first := createPlayer(t, handler)
	second := createPlayer(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/matches", createMatchRequest{PlayerID: first.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	match := decodeBody[entity.Match](t, rec)

	rec = doJSON(t, handler, http.MethodPost, "/matches/"+match.ID+"/join", joinMatchRequest{PlayerID: second.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	return decodeBody[entity.Match](t, rec), first, second
}

func TestPing(t *testing.T) {
	handler := newTestServer()

	rec := doJSON(t, handler, http.MethodGet, "/ping", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestCreateAndGetMatch(t *testing.T) {
	handler := newTestServer()

	// Given: two players seated over the API
	match, first, second := startedMatch(t, handler)
	require.True(t, match.IsFull())

	// When: reading the match back
	rec := doJSON(t, handler, http.MethodGet, "/matches/"+match.ID, nil)

	// Then: the fresh state with both seats comes back
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[entity.Match](t, rec)
	assert.Equal(t, *game.NewGame(), got.State)

	mark, ok := got.MarkOf(first.ID)
	require.True(t, ok)
	assert.Equal(t, game.PlayerX, mark)

	mark, ok = got.MarkOf(second.ID)
	require.True(t, ok)
	assert.Equal(t, game.PlayerO, mark)
}

func TestGetMatch_NotFound(t *testing.T) {
	handler := newTestServer()

	// When: reading a match that does not exist
	rec := doJSON(t, handler, http.MethodGet, "/matches/no-such-match", nil)

	// Then: 404
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplyMove(t *testing.T) {
	t.Run("Accepted move comes back applied", func(t *testing.T) {
		handler := newTestServer()
		match, first, _ := startedMatch(t, handler)

		// When: X takes cell 0
		rec := doJSON(t, handler, http.MethodPost, "/matches/"+match.ID+"/moves", applyMoveRequest{PlayerID: first.ID, Cell: 0})

		// Then: 200 with applied=true
		require.Equal(t, http.StatusOK, rec.Code)
		response := decodeBody[struct {
			Applied bool         `json:"applied"`
			Match   entity.Match `json:"match"`
		}](t, rec)
		assert.True(t, response.Applied)
		assert.Equal(t, game.PlayerX, response.Match.State.Board[0])
		assert.Equal(t, game.PlayerO, response.Match.State.Turn)
	})

	t.Run("Occupied cell comes back as applied=false, not an error", func(t *testing.T) {
		handler := newTestServer()
		match, first, second := startedMatch(t, handler)

		rec := doJSON(t, handler, http.MethodPost, "/matches/"+match.ID+"/moves", applyMoveRequest{PlayerID: first.ID, Cell: 0})
		require.Equal(t, http.StatusOK, rec.Code)
		rec = doJSON(t, handler, http.MethodPost, "/matches/"+match.ID+"/moves", applyMoveRequest{PlayerID: second.ID, Cell: 4})
		require.Equal(t, http.StatusOK, rec.Code)

		// When: X plays the occupied cell 0
		rec = doJSON(t, handler, http.MethodPost, "/matches/"+match.ID+"/moves", applyMoveRequest{PlayerID: first.ID, Cell: 0})

		// Then: 200 with applied=false and the board unchanged
		require.Equal(t, http.StatusOK, rec.Code)
		response := decodeBody[struct {
			Applied bool         `json:"applied"`
			Match   entity.Match `json:"match"`
		}](t, rec)
		assert.False(t, response.Applied)
		assert.Equal(t, game.PlayerX, response.Match.State.Board[0])
	})

	t.Run("Out-of-range cell is a 400", func(t *testing.T) {
		handler := newTestServer()
		match, first, _ := startedMatch(t, handler)

		// When: X plays cell 9
		rec := doJSON(t, handler, http.MethodPost, "/matches/"+match.ID+"/moves", applyMoveRequest{PlayerID: first.ID, Cell: 9})

		// Then: 400
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Out-of-turn move is a 409", func(t *testing.T) {
		handler := newTestServer()
		match, _, second := startedMatch(t, handler)

		// When: O moves first
		rec := doJSON(t, handler, http.MethodPost, "/matches/"+match.ID+"/moves", applyMoveRequest{PlayerID: second.ID, Cell: 0})

		// Then: 409
		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestResetMatch(t *testing.T) {
	handler := newTestServer()

	// Given: a match X has won over the API
	match, first, second := startedMatch(t, handler)
	for _, move := range []applyMoveRequest{
		{PlayerID: first.ID, Cell: 0},
		{PlayerID: second.ID, Cell: 3},
		{PlayerID: first.ID, Cell: 1},
		{PlayerID: second.ID, Cell: 4},
		{PlayerID: first.ID, Cell: 2},
	} {
		rec := doJSON(t, handler, http.MethodPost, "/matches/"+match.ID+"/moves", move)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, handler, http.MethodGet, "/matches/"+match.ID, nil)
	won := decodeBody[entity.Match](t, rec)
	require.Equal(t, game.StatusWon, won.State.Status)
	require.Equal(t, []int{0, 1, 2}, won.State.WinningLine)

	// When: the match is reset
	rec = doJSON(t, handler, http.MethodPost, "/matches/"+match.ID+"/reset", nil)

	// Then: the state is a brand-new game with both seats kept
	require.Equal(t, http.StatusOK, rec.Code)
	reset := decodeBody[entity.Match](t, rec)
	assert.Equal(t, *game.NewGame(), reset.State)
	assert.True(t, reset.IsFull())
}
