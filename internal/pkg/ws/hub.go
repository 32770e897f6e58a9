package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/qs3c/revastra_server/internal/pkg/pubsub"
)

// 单次写入的最长等待，超时的连接会被关闭
const writeWait = 5 * time.Second

type Hub struct {
	// 每个用户可以有多个连接（多标签页、重连等场景）
	clients map[int64]map[*Client]struct{}
	// 会话订阅：conversation_id -> 连接
	rooms     map[int64]map[*Client]struct{}
	mu        sync.RWMutex
	log       zerolog.Logger
	writeWait time.Duration
}

type Client struct {
	UserID int64
	Conn   *websocket.Conn
	mu     sync.Mutex // 写锁，防止并发写入
	rooms  map[int64]struct{}
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:   make(map[int64]map[*Client]struct{}),
		rooms:     make(map[int64]map[*Client]struct{}),
		log:       log,
		writeWait: writeWait,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]struct{})
	}
	h.clients[client.UserID][client] = struct{}{}

	h.log.Debug().Int64("user_id", client.UserID).
		Int("user_conns", len(h.clients[client.UserID])).
		Msg("ws connected")
}

// Unregister 移除连接并退订它订阅的所有会话
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	for convID := range client.rooms {
		h.leave(client, convID)
	}
	client.rooms = nil

	h.log.Debug().Int64("user_id", client.UserID).Msg("ws disconnected")
}

// Subscribe 订阅会话，调用方负责校验参与者身份
func (h *Hub) Subscribe(client *Client, conversationID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[conversationID] == nil {
		h.rooms[conversationID] = make(map[*Client]struct{})
	}
	h.rooms[conversationID][client] = struct{}{}

	if client.rooms == nil {
		client.rooms = make(map[int64]struct{})
	}
	client.rooms[conversationID] = struct{}{}
}

func (h *Hub) Unsubscribe(client *Client, conversationID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leave(client, conversationID)
	delete(client.rooms, conversationID)
}

// leave 需要持有写锁
func (h *Hub) leave(client *Client, conversationID int64) {
	if room, ok := h.rooms[conversationID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, conversationID)
		}
	}
}

// SendToUser 向指定用户的所有连接发送消息
func (h *Hub) SendToUser(userID int64, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	h.write(clients, data)
	return nil
}

// SendToConversation 推送给会话订阅者以及 alsoUsers 的所有连接，同一连接只写一次
func (h *Hub) SendToConversation(conversationID int64, msg *Message, alsoUsers ...int64) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	// 复制一份引用，避免长时间持锁
	h.mu.RLock()
	seen := make(map[*Client]struct{})
	clients := make([]*Client, 0)
	for c := range h.rooms[conversationID] {
		seen[c] = struct{}{}
		clients = append(clients, c)
	}
	for _, uid := range alsoUsers {
		for c := range h.clients[uid] {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	h.write(clients, data)
	return nil
}

// HandleChatEvent 把 redis 广播的聊天事件推给本实例上的连接
func (h *Hub) HandleChatEvent(evt *pubsub.ChatEvent) {
	msg := &Message{Type: evt.Type, Data: evt}
	if err := h.SendToConversation(evt.ConversationID, msg, evt.RecipientID); err != nil {
		h.log.Warn().Err(err).Int64("conversation_id", evt.ConversationID).Msg("failed to deliver chat event")
	}
}

func (h *Hub) write(clients []*Client, data []byte) {
	for _, c := range clients {
		if err := c.writeFrame(data, h.writeWait); err != nil {
			h.log.Warn().Err(err).Int64("user_id", c.UserID).Msg("ws write failed")
			// 写超时后连接不可再用，读循环会随之退出并注销
			c.Conn.Close()
		}
	}
}

func (c *Client) writeFrame(data []byte, wait time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Conn.SetWriteDeadline(time.Now().Add(wait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// Send 向单个连接写消息
func (c *Client) Send(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.writeFrame(data, writeWait)
}

// IsOnline 检查用户是否在线
func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns, ok := h.clients[userID]
	return ok && len(conns) > 0
}

// ConnectionCount 获取在线连接数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}

// SubscriberCount 会话订阅连接数
func (h *Hub) SubscriberCount(conversationID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}
