package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// 邮件任务类型
const (
	KindWelcome      = "welcome"
	KindVerification = "verification"
	KindNewMessage   = "new_message"
)

type Queue struct {
	client    *redis.Client
	queueName string
}

// EmailJob 异步邮件任务
type EmailJob struct {
	Kind           string `json:"kind"`
	To             string `json:"to"`
	RecipientName  string `json:"recipient_name"`
	Code           string `json:"code,omitempty"`
	SenderName     string `json:"sender_name,omitempty"`
	ListingTitle   string `json:"listing_title,omitempty"`
	Preview        string `json:"preview,omitempty"`
	ConversationID int64  `json:"conversation_id,omitempty"`
	EnqueuedAt     int64  `json:"enqueued_at"`
}

func NewQueue(client *redis.Client, queueName string) *Queue {
	return &Queue{
		client:    client,
		queueName: queueName,
	}
}

// Push 将任务加入队列
func (q *Queue) Push(ctx context.Context, job *EmailJob) error {
	if job.EnqueuedAt == 0 {
		job.EnqueuedAt = time.Now().Unix()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return q.client.LPush(ctx, q.queueName, data).Err()
}

// Pop 从队列获取任务（阻塞）
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*EmailJob, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // 超时，无任务
		}
		return nil, fmt.Errorf("failed to pop from queue: %w", err)
	}

	if len(result) < 2 {
		return nil, nil
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// Length 获取队列长度
func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueName).Result()
}
