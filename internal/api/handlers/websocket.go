package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/IMPACT-HRIS/IM-Chat/internal/middleware"
	"github.com/IMPACT-HRIS/IM-Chat/internal/service"
)

// upgrader for chat sockets
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the web client is served from a different origin than the socket endpoint
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades chat connections and hands them to the chat engine.
type WebSocketHandler struct {
	chatService *service.ChatService
	logger      *zap.Logger
}

func NewWebSocketHandler(chatService *service.ChatService, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// HandleWebSocket serves one socket until it closes.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	var identity *service.Identity
	if claims, ok := middleware.Claims(c); ok {
		identity = &service.Identity{
			SSOID:     claims.SSOID,
			Role:      claims.Role,
			Username:  claims.Username,
			FirstName: claims.FirstName,
			LastName:  claims.LastName,
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written an HTTP error
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := service.NewClient(conn, identity, h.logger)
	h.chatService.HandleClient(c.Request.Context(), client)
}
