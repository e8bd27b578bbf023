package notify

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict to the tenant's portal origin once custom domains land
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	hub    *Hub
	logger *zap.Logger
}

func NewHandler(hub *Hub, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{hub: hub, logger: logger}
}

// RegisterStaffRoutes wires the notification socket. Auth middleware
// has already put tenant_id and member_id on the context.
func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.GET("/admin/notifications/ws", h.connect)
}

func (h *Handler) connect(c *gin.Context) {
	tenantID := c.GetInt64("tenant_id")
	memberID := c.GetInt64("member_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := h.hub.Register(tenantID, memberID, conn)
	h.logger.Info("staff client connected",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("member_id", memberID))

	defer func() {
		h.hub.Unregister(tenantID, memberID)
		h.logger.Info("staff client disconnected",
			zap.Int64("tenant_id", tenantID),
			zap.Int64("member_id", memberID))
	}()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})
	go h.pingLoop(client)

	// the socket is push-only; the read loop just consumes control
	// frames until the client goes away
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) pingLoop(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if err := client.ping(); err != nil {
			return
		}
	}
}
