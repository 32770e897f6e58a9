package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelChatEvents = "chat_events"
)

// 事件类型
const (
	EventMessageCreated = "message.created"
	EventMessageRead    = "message.read"
)

// ChatEvent 聊天事件，多个 server 实例通过 redis 广播后各自推给本地连接
type ChatEvent struct {
	Type           string      `json:"type"`
	ConversationID int64       `json:"conversation_id"`
	SenderID       int64       `json:"sender_id"`
	RecipientID    int64       `json:"recipient_id"`
	MessageID      int64       `json:"message_id,omitempty"`
	Payload        interface{} `json:"payload,omitempty"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish 发布聊天事件
func (p *Publisher) Publish(ctx context.Context, evt *ChatEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal chat event: %w", err)
	}

	return p.client.Publish(ctx, ChannelChatEvents, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅聊天事件，阻塞直到 ctx 结束
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*ChatEvent)) error {
	pubsub := s.client.Subscribe(ctx, ChannelChatEvents)
	defer pubsub.Close()

	// 等待订阅确认，保证返回前已可以收到消息
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var evt ChatEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue // 忽略解析错误
			}

			handler(&evt)
		}
	}
}
