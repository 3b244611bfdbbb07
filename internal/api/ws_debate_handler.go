package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"go-debate/internal/archive"
	"go-debate/internal/auth"
	"go-debate/internal/config"
	"go-debate/internal/db"
	"go-debate/internal/debate"
	"go-debate/internal/llm"
	"go-debate/internal/session"
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

// WSDebateHandler runs a debate over a websocket. The first client frame
// carries the debate request; every engine event is relayed as one JSON
// frame. A {"type":"stop"} frame (or a closed socket) cancels the run.
func WSDebateHandler(cfg *config.Config, mgr *llm.Manager, arch *archive.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing JWT"})
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")
		claims, err := auth.ParseJWT(cfg.Server.JWTSecret, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid JWT"})
			return
		}

		rawConn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("WebSocket upgrade failed:", err)
			return
		}
		conn := &safeWSConn{conn: rawConn}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			conn.WriteJSON(map[string]string{"error": "invalid initial payload"})
			return
		}
		var req debateRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			conn.WriteJSON(map[string]string{"error": "invalid JSON"})
			return
		}
		if strings.TrimSpace(req.Topic) == "" {
			conn.WriteJSON(map[string]string{"error": "missing topic"})
			return
		}

		// The request context is unreliable once the connection is hijacked;
		// the read loop below owns cancellation instead.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Reads run in the background for the rest of the session: a stop
		// frame or a dead socket cancels the engine mid-turn.
		go func() {
			for {
				_, raw, err := rawConn.ReadMessage()
				if err != nil {
					cancel() // WS closed
					return
				}
				var frame map[string]interface{}
				if json.Unmarshal(raw, &frame) == nil && frame["type"] == "stop" {
					cancel() // Explicit stop frame
					return
				}
			}
		}()

		engine := BuildEngine(cfg, mgr)
		st := engine.CreateState(req.Topic, req.TimeContext, req.PRGoal, resolveRounds(req.MaxRounds, cfg.Debate.MaxRounds))
		arch.Seed(ctx, st)

		if err := engine.Stream(ctx, st, func(ev debate.Event) {
			conn.WriteJSON(ev)
		}); err != nil {
			log.Printf("[API] WARNING: ws debate session %s failed: %v", st.SessionID, err)
			conn.WriteJSON(map[string]string{"error": "debate failed: " + err.Error()})
			return
		}

		if _, err := session.NewStore(db.DB).Save(context.Background(), st, claims.UserID); err != nil {
			log.Printf("[API] WARNING: failed to save session %s: %v", st.SessionID, err)
		}
		arch.ArchiveAsync(st)
	}
}
