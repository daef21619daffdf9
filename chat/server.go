package chat

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the token query param is the gate, not the origin
	},
}

// Server upgrades authenticated HTTP requests to chat connections and runs
// one read loop per connection. Events from one connection are handled in
// order; events from different connections interleave.
type Server struct {
	Gate       Gate
	Hub        *Hub
	Controller *Controller
}

// Handler is the /ws/chat endpoint. The credential is checked before the
// upgrade; a rejected handshake never reaches the hub or the controller.
func (s *Server) Handler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Gate.Authenticate(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		zap.S().Warnw("chat: handshake rejected", "reason", err.Error())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintf(w, `{"error": "Authentication error: %s"}`, err)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("chat: websocket upgrade failed", "error", err)
		return
	}

	client := &conn{ws: ws}
	zap.S().Infow("chat: client connected", "user", sess.UserID.Hex())

	defer func() {
		s.Hub.Remove(client)
		ws.Close()
		zap.S().Infow("chat: client disconnected", "user", sess.UserID.Hex())
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		s.Controller.Dispatch(context.Background(), sess, client, data)
	}
}

// conn wraps a websocket connection with serialized writes, since broadcasts
// for a room may fire from several read loops at once
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) Send(evt Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.WriteJSON(evt); err != nil {
		zap.S().Debugw("chat: write failed", "error", err)
	}
}
