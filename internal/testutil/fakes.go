package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/qs3c/revastra_server/internal/pkg/email"
	"github.com/qs3c/revastra_server/internal/pkg/pubsub"
	"github.com/qs3c/revastra_server/internal/pkg/queue"
)

// RecordingQueue 记录入队的邮件任务
type RecordingQueue struct {
	mu   sync.Mutex
	Jobs []*queue.EmailJob
	Err  error
}

func (q *RecordingQueue) Push(_ context.Context, job *queue.EmailJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return q.Err
	}
	q.Jobs = append(q.Jobs, job)
	return nil
}

// Kinds 已入队任务的类型
func (q *RecordingQueue) Kinds() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	kinds := make([]string, 0, len(q.Jobs))
	for _, j := range q.Jobs {
		kinds = append(kinds, j.Kind)
	}
	return kinds
}

// RecordingPublisher 记录发布的聊天事件
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []*pubsub.ChatEvent
}

func (p *RecordingPublisher) Publish(_ context.Context, evt *pubsub.ChatEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, evt)
	return nil
}

// StaticPresence 固定的在线用户集合
type StaticPresence map[int64]bool

func (p StaticPresence) IsOnline(userID int64) bool {
	return p[userID]
}

// RecordingMailer 记录发送的邮件；FailFor 中的收件人返回错误
type RecordingMailer struct {
	mu      sync.Mutex
	Sent    []*email.Message
	FailFor map[string]bool
}

func (m *RecordingMailer) Send(_ context.Context, msg *email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFor[msg.To] {
		return errors.New("smtp: mailbox unavailable")
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// SentTo 发给某个地址的邮件
func (m *RecordingMailer) SentTo(to string) []*email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*email.Message
	for _, msg := range m.Sent {
		if msg.To == to {
			out = append(out, msg)
		}
	}
	return out
}
