package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/revastra_server/internal/pkg/queue"
	"github.com/qs3c/revastra_server/internal/testutil"
)

func TestNewProcessor(t *testing.T) {
	mailer := &testutil.RecordingMailer{}
	processor := NewProcessor(mailer, "https://revastra.in", zerolog.Nop())

	assert.NotNil(t, processor)
	assert.Equal(t, "https://revastra.in", processor.siteURL)
}

func TestProcessor_Process(t *testing.T) {
	tests := []struct {
		name        string
		job         *queue.EmailJob
		wantSubject string
		wantBody    string
	}{
		{
			name:        "verification",
			job:         &queue.EmailJob{Kind: queue.KindVerification, To: "a@example.com", RecipientName: "Asha", Code: "c0ffee"},
			wantSubject: "Verify your email",
			wantBody:    "c0ffee",
		},
		{
			name:        "welcome",
			job:         &queue.EmailJob{Kind: queue.KindWelcome, To: "a@example.com", RecipientName: "Asha"},
			wantSubject: "Welcome",
			wantBody:    "https://revastra.in",
		},
		{
			name: "new message",
			job: &queue.EmailJob{Kind: queue.KindNewMessage, To: "a@example.com", RecipientName: "Asha",
				SenderName: "Vikram", ListingTitle: "Denim jacket", Preview: "still available?", ConversationID: 9},
			wantSubject: "Vikram",
			wantBody:    "https://revastra.in/messages/9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &testutil.RecordingMailer{}
			processor := NewProcessor(mailer, "https://revastra.in", zerolog.Nop())

			require.NoError(t, processor.Process(context.Background(), tt.job))
			require.Len(t, mailer.Sent, 1)
			assert.Equal(t, "a@example.com", mailer.Sent[0].To)
			assert.Contains(t, mailer.Sent[0].Subject, tt.wantSubject)
			assert.Contains(t, mailer.Sent[0].HTML, tt.wantBody)
		})
	}
}

func TestProcessor_ProcessInvalid(t *testing.T) {
	mailer := &testutil.RecordingMailer{FailFor: map[string]bool{"bounce@example.com": true}}
	processor := NewProcessor(mailer, "", zerolog.Nop())
	ctx := context.Background()

	assert.Error(t, processor.Process(ctx, &queue.EmailJob{Kind: "digest", To: "a@example.com"}))
	assert.Error(t, processor.Process(ctx, &queue.EmailJob{Kind: queue.KindWelcome}))
	assert.Error(t, processor.Process(ctx, &queue.EmailJob{Kind: queue.KindVerification, To: "a@example.com"}))
	assert.Error(t, processor.Process(ctx, &queue.EmailJob{Kind: queue.KindWelcome, To: "bounce@example.com"}))
	assert.Empty(t, mailer.Sent)
}

func TestProcessor_RunConsumesQueue(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	q := queue.NewQueue(rdb, "email_jobs_test")
	ctx := context.Background()
	require.NoError(t, q.Push(ctx, &queue.EmailJob{Kind: queue.KindWelcome, To: "one@example.com"}))
	require.NoError(t, q.Push(ctx, &queue.EmailJob{Kind: "bogus", To: "two@example.com"}))
	require.NoError(t, q.Push(ctx, &queue.EmailJob{Kind: queue.KindWelcome, To: "three@example.com"}))

	mailer := &testutil.RecordingMailer{}
	processor := NewProcessor(mailer, "https://revastra.in", zerolog.Nop())

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		processor.Run(runCtx, q, 2, 100*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return len(mailer.SentTo("one@example.com")) == 1 && len(mailer.SentTo("three@example.com")) == 1
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("workers did not stop")
	}

	n, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
