package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playgrid/tictactoe-backend/internal/entity"
	"github.com/playgrid/tictactoe-backend/internal/game"
)

const (
	ActionConnect    = "connect"
	ActionMatchNew   = "match:new"
	ActionMatchJoin  = "match:join"
	ActionMatchMove  = "match:move"
	ActionMatchReset = "match:reset"
	ActionMatchState = "match:state"
	ActionError      = "error"
)

var ErrNotConnected = errors.New("player is not connected")

type matchManager interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)
	CreateMatch(ctx context.Context, playerID string) (*entity.Match, error)
	JoinMatch(ctx context.Context, matchID, playerID string) (*entity.Match, error)
	GetMatch(ctx context.Context, matchID string) (*entity.Match, error)
	ApplyMove(ctx context.Context, playerID string, cell int) (*entity.Match, game.MoveResult, error)
	ResetMatch(ctx context.Context, matchID string) (*entity.Match, error)
}

// session is one connected client: its socket, and the player it speaks for.
type session struct {
	conn     *websocket.Conn
	playerID string
	matchID  string

	mu sync.Mutex // serializes writes to the socket
}

func (that *session) send(ctx context.Context, action string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if err = wsjson.Write(ctx, that.conn, &Message{Action: action, Payload: raw}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

type Server struct {
	logger   *slog.Logger
	manager  matchManager
	handlers map[string]func(ctx context.Context, sess *session, message *Message) error

	mu   sync.Mutex
	subs map[string]map[*session]struct{} // matchID -> sessions watching it
}

func New(logger *slog.Logger, manager matchManager) *Server {
	server := &Server{
		logger:   logger,
		manager:  manager,
		handlers: make(map[string]func(context.Context, *session, *Message) error),
		subs:     make(map[string]map[*session]struct{}),
	}

	server.handlers[ActionConnect] = server.handleConnect
	server.handlers[ActionMatchNew] = server.handleNewMatch
	server.handlers[ActionMatchJoin] = server.handleJoinMatch
	server.handlers[ActionMatchMove] = server.handleMove
	server.handlers[ActionMatchReset] = server.handleReset

	return server
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(ctx),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Handler - returns the HTTP handler serving the /ws endpoint.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(writer http.ResponseWriter, req *http.Request) {
		that.acceptConnection(ctx, writer, req)
	})

	return mux
}

// acceptConnection - upgrades the connection and runs its message loop.
func (that *Server) acceptConnection(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "acceptConnection")

	conn, err := websocket.Accept(writer, req, nil)
	if err != nil {
		log.Error("failed to accept websocket connection", "error", err)
		return
	}

	sess := &session{conn: conn}
	defer func() {
		that.unsubscribe(sess)
		_ = conn.CloseNow()
	}()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(ctx, sess); err != nil {
		log.Info("connection closed", "error", err)
	}
}

// handleMessages - processes messages from the client until the socket closes.
func (that *Server) handleMessages(ctx context.Context, sess *session) error {
	log := that.logger.With("method", "handleMessages")

	for {
		var message Message
		if err := wsjson.Read(ctx, sess.conn, &message); err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)

			if err := sess.send(ctx, ActionError, ErrorPayload{Error: "unknown action: " + message.Action}); err != nil {
				return err
			}
			continue
		}

		if err := handler(ctx, sess, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)

			if err = sess.send(ctx, ActionError, ErrorPayload{Error: err.Error()}); err != nil {
				return err
			}
		}
	}
}

// subscribe - registers the session for state pushes on a match.
func (that *Server) subscribe(sess *session, matchID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if sess.matchID != "" {
		if set, ok := that.subs[sess.matchID]; ok {
			delete(set, sess)
		}
	}

	sess.matchID = matchID

	set, ok := that.subs[matchID]
	if !ok {
		set = make(map[*session]struct{})
		that.subs[matchID] = set
	}
	set[sess] = struct{}{}
}

func (that *Server) unsubscribe(sess *session) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if set, ok := that.subs[sess.matchID]; ok {
		delete(set, sess)
	}
}

// broadcastState - pushes the full match state to every session watching the
// match, so each client can re-render after every accepted operation.
func (that *Server) broadcastState(ctx context.Context, match *entity.Match) {
	log := that.logger.With("method", "broadcastState")

	that.mu.Lock()
	watchers := make([]*session, 0, len(that.subs[match.ID]))
	for sess := range that.subs[match.ID] {
		watchers = append(watchers, sess)
	}
	that.mu.Unlock()

	for _, sess := range watchers {
		if err := sess.send(ctx, ActionMatchState, StatePayload{Match: match}); err != nil {
			log.Error("failed to push state", "error", err)
		}
	}
}
