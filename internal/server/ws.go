package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/parley-lang/parley/internal/interpreter"
	"github.com/parley-lang/parley/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size. Utterances are short.
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The API is token-protected; origins are not restricted.
		return true
	},
}

// wsMessage is one inbound user frame.
type wsMessage struct {
	Message string `json:"message"`
}

// wsClient pairs one WebSocket connection with one dialogue session.
type wsClient struct {
	conn      *websocket.Conn
	send      chan interpreter.Output
	engine    *interpreter.Interpreter
	sessionID string
	logger    *zap.Logger

	// finished is set when the dialogue reached FINISHED so the server
	// can drop the session once the connection winds down.
	finished bool
}

// handleWebSocket upgrades the connection and speaks the chat protocol:
// read {"message": ...} frames, feed them to the interpreter, write
// Output frames back. The session must already exist via /api/start.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "Session id is required")
		return
	}

	engine, _, ok := s.engineForSession(sessionID)
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	if _, err := engine.GetSession(sessionID); err != nil {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		conn:      conn,
		send:      make(chan interpreter.Output, 8),
		engine:    engine,
		sessionID: sessionID,
		logger:    s.logger.With(zap.String("session_id", sessionID)),
	}

	go client.writePump()
	client.readPump()

	if client.finished {
		engine.RemoveSession(sessionID)
		s.sessionScenario.Delete(sessionID)
	}
}

// readPump drives the session from inbound frames. It is the only
// sender on c.send and closes it on return, which shuts down writePump.
func (c *wsClient) readPump() {
	defer func() {
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg wsMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		output := c.engine.ProcessInput(context.Background(), c.sessionID, msg.Message)
		c.send <- output

		if output.State == session.StateFinished || output.State == session.StateError {
			c.finished = output.State == session.StateFinished
			return
		}
	}
}

// writePump serializes all writes: outputs from the session and
// keepalive pings. It exits when readPump closes the send channel.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case output, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(output); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
