package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"smartqueue/internal/handler/middleware"
	"smartqueue/internal/pubsub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced at the HTTP layer; the upgrade itself
		// accepts any origin.
		return true
	},
}

type WSHandler struct {
	broadcaster *pubsub.Broadcaster
}

func NewWSHandler(broadcaster *pubsub.Broadcaster) *WSHandler {
	return &WSHandler{broadcaster: broadcaster}
}

// Subscribe upgrades the connection and streams events for the requested
// topics. Every connection is implicitly subscribed to its own user topic;
// slot topics come from ?topics=slot:<id>,... and the admin topic is granted
// by role. Delivery is at-most-once: clients resync via the queue-status read
// after a reconnect.
func (h *WSHandler) Subscribe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}
	role, _ := middleware.GetUserRole(c)

	topics := []string{pubsub.UserTopic(userID)}
	if raw := c.Query("topics"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if t == pubsub.TopicAdmin && !role.IsAdmin() {
				c.JSON(http.StatusForbidden, gin.H{
					"error": "Admin topic requires admin role",
				})
				return
			}
			topics = append(topics, t)
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote its own error response.
		slog.Warn("websocket upgrade failed", "error", err, "user_id", userID)
		return
	}

	sub := h.broadcaster.Subscribe(topics...)
	go h.writePump(conn, sub)
	h.readPump(conn, sub)
}

// readPump drains client frames until disconnect; inbound payloads are
// ignored, the socket is push-only.
func (h *WSHandler) readPump(conn *websocket.Conn, sub *pubsub.Subscription) {
	defer func() {
		sub.Close()
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WSHandler) writePump(conn *websocket.Conn, sub *pubsub.Subscription) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
