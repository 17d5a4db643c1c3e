package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wfunc/dig-game/internal/middleware"
	ws "github.com/wfunc/dig-game/internal/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler WebSocket处理器
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(hub *ws.Hub, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// 在生产环境中应该检查Origin
				return true
			},
		},
		logger: logger,
	}
}

// GameWebSocket 发掘会话实时事件连接
func (h *WebSocketHandler) GameWebSocket(c *gin.Context) {
	// 获取用户ID（可选）
	userID, exists := middleware.GetUserID(c)

	// 未认证时以访客模式连接（课堂投屏等只读场景）
	if !exists || userID == 0 {
		userID = 0
		h.logger.Info("WebSocket访客连接", zap.String("ip", c.ClientIP()))
	}

	// 升级为WebSocket连接
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败",
			zap.Uint("user_id", userID),
			zap.Error(err))
		return
	}

	// 创建客户端
	client := ws.NewClient(h.hub, conn, userID)

	// 获取会话ID（如果有）
	sessionID := c.Query("session_id")
	if sessionID != "" {
		client.SessionID = sessionID
	}

	// 注册客户端
	h.hub.Register(client)

	// 启动读写协程
	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("WebSocket连接建立",
		zap.String("client_id", client.ID),
		zap.Uint("user_id", userID),
		zap.String("session_id", sessionID))
}

// GetOnlineCount 获取在线人数
func (h *WebSocketHandler) GetOnlineCount(c *gin.Context) {
	count := h.hub.GetOnlineCount()
	users := h.hub.GetOnlineUsers()

	c.JSON(http.StatusOK, gin.H{
		"online_count": count,
		"online_users": users,
	})
}
