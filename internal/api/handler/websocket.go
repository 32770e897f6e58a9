package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/qs3c/revastra_server/internal/pkg/jwt"
	"github.com/qs3c/revastra_server/internal/pkg/response"
	"github.com/qs3c/revastra_server/internal/pkg/ws"
)

// 客户端发来的指令
const (
	wsSubscribe   = "subscribe"
	wsUnsubscribe = "unsubscribe"
	wsPing        = "ping"
)

// ConversationAccess 订阅前校验参与者身份
type ConversationAccess interface {
	CanAccess(ctx context.Context, userID, conversationID int64) error
}

type wsCommand struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id"`
}

type WebSocketHandler struct {
	hub       *ws.Hub
	access    ConversationAccess
	jwtSecret string
	upgrader  websocket.Upgrader
	log       zerolog.Logger
}

func NewWebSocketHandler(hub *ws.Hub, access ConversationAccess, jwtSecret string, allowedOrigins []string, log zerolog.Logger) *WebSocketHandler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	return &WebSocketHandler{
		hub:       hub,
		access:    access,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(origins) == 0 {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
		log: log,
	}
}

// Handle WebSocket 连接处理
// GET /api/v1/ws?token=xxx
func (h *WebSocketHandler) Handle(c *gin.Context) {
	// 验证 JWT Token
	token := c.Query("token")
	if token == "" {
		response.AuthError(c, "missing token")
		return
	}

	claims, err := jwt.ParseToken(token, h.jwtSecret)
	if err != nil {
		response.AuthError(c, "invalid token")
		return
	}

	// 升级连接
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := &ws.Client{
		UserID: claims.UserID,
		Conn:   conn,
	}
	h.hub.Register(client)

	go h.readLoop(client)
}

// readLoop 处理订阅指令，连接断开时退订全部会话
func (h *WebSocketHandler) readLoop(client *ws.Client) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn.Close()
	}()

	for {
		_, data, err := client.Conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd wsCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			h.reply(client, "error", gin.H{"message": "invalid command"})
			continue
		}

		switch cmd.Type {
		case wsSubscribe:
			if err := h.access.CanAccess(context.Background(), client.UserID, cmd.ConversationID); err != nil {
				h.reply(client, "error", gin.H{"message": err.Error(), "conversation_id": cmd.ConversationID})
				continue
			}
			h.hub.Subscribe(client, cmd.ConversationID)
			h.reply(client, "subscribed", gin.H{"conversation_id": cmd.ConversationID})
		case wsUnsubscribe:
			h.hub.Unsubscribe(client, cmd.ConversationID)
			h.reply(client, "unsubscribed", gin.H{"conversation_id": cmd.ConversationID})
		case wsPing:
			h.reply(client, "pong", nil)
		default:
			h.reply(client, "error", gin.H{"message": "unknown command"})
		}
	}
}

func (h *WebSocketHandler) reply(client *ws.Client, typ string, data interface{}) {
	if err := client.Send(&ws.Message{Type: typ, Data: data}); err != nil {
		h.log.Debug().Err(err).Int64("user_id", client.UserID).Msg("ws reply failed")
	}
}
