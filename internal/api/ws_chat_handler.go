package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"go-insure/internal/dialogue"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket connection wrapper with mutex for thread-safe writes
type safeWSConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *safeWSConn) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *safeWSConn) ReadMessage() (int, []byte, error) {
	return s.conn.ReadMessage()
}

func (s *safeWSConn) Close() error {
	return s.conn.Close()
}

// GET /ws/chat
// Each text frame is one dialogue.Message; each reply is written back as JSON.
// Frames are handled in order, so turns on one socket never overlap.
func WSChatHandler(turns TurnHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawConn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("[WS] upgrade failed:", err)
			return
		}
		conn := &safeWSConn{conn: rawConn}
		defer conn.Close()

		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("[WS] read failed: %v", err)
				}
				return
			}
			var msg dialogue.Message
			if err := json.Unmarshal(frame, &msg); err != nil {
				if conn.WriteJSON(map[string]string{"error": "invalid JSON"}) != nil {
					return
				}
				continue
			}
			reply, err := turns.HandleTurn(c.Request.Context(), msg)
			switch {
			case errors.Is(err, dialogue.ErrMissingIdentifier):
				err = conn.WriteJSON(map[string]string{"error": "phone_number is required"})
			case err != nil:
				log.Printf("[WS] turn failed: %v", err)
				err = conn.WriteJSON(map[string]string{"error": "failed to process message"})
			default:
				err = conn.WriteJSON(reply)
			}
			if err != nil {
				log.Printf("[WS] write failed: %v", err)
				return
			}
		}
	}
}
