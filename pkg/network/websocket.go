package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/racewire/pitlane/pkg/log"
	"github.com/racewire/pitlane/pkg/messages"
	"github.com/racewire/pitlane/pkg/queue"
	"github.com/racewire/pitlane/pkg/sessions"
)

// WSServer accepts websocket connections, registers them with the
// session manager, and feeds inbound commands to the game loop's
// command queue. It holds no game state.
type WSServer struct {
	port         int
	manager      *sessions.Manager
	commandQueue queue.Queue
}

type NewWSServerOptions struct {
	Port         int
	Manager      *sessions.Manager
	CommandQueue queue.Queue
}

// NewWSServer creates a new websocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	return &WSServer{
		port:         opts.Port,
		manager:      opts.Manager,
		commandQueue: opts.CommandQueue,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Start starts the websocket server and blocks until ctx is done or
// the listener fails.
func (s *WSServer) Start(ctx context.Context) error {
	router := mux.NewRouter()
	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("Failed to upgrade to websocket: %v", err)
			return
		}
		log.Debug("New websocket connection from %s", conn.RemoteAddr().String())
		go s.handleConnection(conn)
	})
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	log.Info("Websocket server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("Websocket server closed")
			return nil
		}
		return fmt.Errorf("websocket server error: %v", err)
	}
	return nil
}

// handleConnection owns one connection's read loop. Commands are
// enqueued for the game loop; this goroutine never touches game state.
func (s *WSServer) handleConnection(conn *websocket.Conn) {
	c := s.manager.Add(conn)
	sessionID := c.ID
	defer func() {
		s.manager.Remove(sessionID)
		c.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error("Error reading from session %s: %v", sessionID, err)
			}
			log.Trace("Connection closed for session %s", sessionID)
			return
		}

		msg, err := messages.Deserialize(data)
		if err != nil {
			log.Warn("Dropping malformed message from session %s: %v", sessionID, err)
			continue
		}

		if !s.commandQueue.Enqueue(&messages.Inbound{SessionID: sessionID, Msg: msg}) {
			log.Warn("Command queue full, dropping %s from session %s", msg.Type, sessionID)
		}
	}
}
