package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, cleanup
}

func TestNewQueue(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	q := NewQueue(client, "test_queue")

	assert.NotNil(t, q)
	assert.Equal(t, "test_queue", q.queueName)
	assert.Equal(t, client, q.client)
}

func TestQueue_PushPop(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	q := NewQueue(client, "email_jobs")

	job := &EmailJob{
		Kind:           KindNewMessage,
		To:             "seller@example.com",
		RecipientName:  "Meera",
		SenderName:     "Arjun",
		ListingTitle:   "Denim Jacket",
		Preview:        "Can you do 600?",
		ConversationID: 12,
	}
	require.NoError(t, q.Push(ctx, job))

	length, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)

	got, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, KindNewMessage, got.Kind)
	assert.Equal(t, "seller@example.com", got.To)
	assert.Equal(t, "Arjun", got.SenderName)
	assert.Equal(t, int64(12), got.ConversationID)
	assert.NotZero(t, got.EnqueuedAt)
}

func TestQueue_FIFO(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	q := NewQueue(client, "test_fifo_queue")

	for _, to := range []string{"a@x.in", "b@x.in", "c@x.in"} {
		require.NoError(t, q.Push(ctx, &EmailJob{Kind: KindWelcome, To: to}))
	}

	for _, want := range []string{"a@x.in", "b@x.in", "c@x.in"} {
		got, err := q.Pop(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want, got.To)
	}
}

func TestQueue_PopEmpty(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	q := NewQueue(client, "test_empty_queue")

	// miniredis 对 BRPop 超时的支持有限，只校验不会返回任务
	result, err := q.Pop(context.Background(), 10*time.Millisecond)
	if err == nil {
		assert.Nil(t, result)
	}
}

func TestQueue_MultipleQueues(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	q1 := NewQueue(client, "queue_1")
	q2 := NewQueue(client, "queue_2")

	require.NoError(t, q1.Push(ctx, &EmailJob{Kind: KindWelcome, To: "one@x.in"}))
	require.NoError(t, q2.Push(ctx, &EmailJob{Kind: KindVerification, To: "two@x.in", Code: "111222"}))

	r1, err := q1.Pop(ctx, time.Second)
	require.NoError(t, err)
	r2, err := q2.Pop(ctx, time.Second)
	require.NoError(t, err)

	assert.Equal(t, "one@x.in", r1.To)
	assert.Equal(t, "111222", r2.Code)
}
