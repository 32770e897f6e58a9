package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pass"
	"github.com/qs3c/revastra_server/internal/pkg/pubsub"
	"github.com/qs3c/revastra_server/internal/pkg/queue"
	"github.com/qs3c/revastra_server/internal/testutil"
)

func TestChatService_StartConversationReservesChat(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := testutil.TestUser(t, env.db)
	seller := testutil.TestUser(t, env.db)
	listing := testutil.TestListing(t, env.db, seller.ID)

	resp, err := env.chats.StartConversation(ctx, buyer.ID, &dto.StartConversationRequest{SellerID: seller.ID, ListingID: &listing.ID})
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.NotZero(t, resp.ConversationID)

	usage, err := env.usageRepo.Get(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.ChatsUsed)

	// 同一会话再次发起不占额度
	again, err := env.chats.StartConversation(ctx, buyer.ID, &dto.StartConversationRequest{SellerID: seller.ID, ListingID: &listing.ID})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, resp.ConversationID, again.ConversationID)

	usage, err = env.usageRepo.Get(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.ChatsUsed)
}

func TestChatService_StartConversationLimitReached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := testutil.TestUser(t, env.db)
	seller := testutil.TestUser(t, env.db)
	testutil.TestUsage(t, env.db, buyer.ID, 2, 0)

	_, err := env.chats.StartConversation(ctx, buyer.ID, &dto.StartConversationRequest{SellerID: seller.ID})
	assert.ErrorIs(t, err, ErrChatLimitReached)

	var count int64
	require.NoError(t, env.db.Model(&model.Conversation{}).Count(&count).Error)
	assert.Zero(t, count)

	usage, err := env.usageRepo.Get(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, usage.ChatsUsed)
}

func TestChatService_StartConversationConcurrent(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) *gorm.DB
	}{
		{"sqlite", testutil.SetupTestDB},
		{"mysql", testutil.SetupTestDBWithMySQL},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			env := newTestEnvOn(t, b.open(t))
			ctx := context.Background()
			buyer := testutil.TestUser(t, env.db)
			seller := testutil.TestUser(t, env.db)
			testutil.TestUsage(t, env.db, buyer.ID, 0, 0)

			const workers = 6
			listings := make([]int64, workers)
			for i := range listings {
				listings[i] = testutil.TestListing(t, env.db, seller.ID).ID
			}

			errs := make([]error, workers)
			var wg sync.WaitGroup
			start := make(chan struct{})
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					<-start
					_, errs[i] = env.chats.StartConversation(ctx, buyer.ID, &dto.StartConversationRequest{
						SellerID:  seller.ID,
						ListingID: &listings[i],
					})
				}(i)
			}
			close(start)
			wg.Wait()

			created := 0
			for _, err := range errs {
				switch {
				case err == nil:
					created++
				case errors.Is(err, ErrChatLimitReached):
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}
			assert.Equal(t, 2, created)

			usage, err := env.usageRepo.Get(ctx, buyer.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, usage.ChatsUsed)

			var count int64
			require.NoError(t, env.db.Model(&model.Conversation{}).Where("buyer_id = ?", buyer.ID).Count(&count).Error)
			assert.Equal(t, int64(2), count)
		})
	}
}

func TestChatService_StartConversationSameThreadConcurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := testutil.TestUser(t, env.db)
	seller := testutil.TestUser(t, env.db)

	const workers = 5
	ids := make([]int64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := env.chats.StartConversation(ctx, buyer.ID, &dto.StartConversationRequest{SellerID: seller.ID})
			errs[i] = err
			if err == nil {
				ids[i] = resp.ConversationID
			}
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	usage, err := env.usageRepo.Get(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.ChatsUsed)
}

func TestChatService_StartConversationUnlimited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := testutil.TestUser(t, env.db)
	testutil.TestPass(t, env.db, buyer.ID, pass.BuyerPro)
	testutil.TestUsage(t, env.db, buyer.ID, 500, 0)

	for i := 0; i < 3; i++ {
		seller := testutil.TestUser(t, env.db)
		resp, err := env.chats.StartConversation(ctx, buyer.ID, &dto.StartConversationRequest{SellerID: seller.ID})
		require.NoError(t, err)
		assert.True(t, resp.Created)
	}
}

func TestChatService_StartConversationValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := testutil.TestUser(t, env.db)
	seller := testutil.TestUser(t, env.db)
	other := testutil.TestUser(t, env.db)
	listing := testutil.TestListing(t, env.db, other.ID)
	missing := int64(99999)

	_, err := env.chats.StartConversation(ctx, buyer.ID, &dto.StartConversationRequest{SellerID: buyer.ID})
	assert.ErrorIs(t, err, ErrChatWithSelf)

	_, err = env.chats.StartConversation(ctx, buyer.ID, &dto.StartConversationRequest{SellerID: 99999})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.chats.StartConversation(ctx, buyer.ID, &dto.StartConversationRequest{SellerID: seller.ID, ListingID: &listing.ID})
	assert.ErrorIs(t, err, ErrListingSellerMismatch)

	_, err = env.chats.StartConversation(ctx, buyer.ID, &dto.StartConversationRequest{SellerID: seller.ID, ListingID: &missing})
	assert.ErrorIs(t, err, ErrListingNotFound)

	usage, err := env.usageRepo.Get(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Zero(t, usage.ChatsUsed)
}

func TestChatService_SendMessageOfflineRecipient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := testutil.TestUser(t, env.db, testutil.WithDisplayName("Asha"))
	seller := testutil.TestUser(t, env.db, testutil.WithEmail("seller@example.com"))
	listing := testutil.TestListing(t, env.db, seller.ID)
	conv := testutil.TestConversation(t, env.db, buyer.ID, seller.ID, &listing.ID)

	msg, err := env.chats.SendMessage(ctx, buyer.ID, conv.ID, "  is this still available?  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "is this still available?", msg.Content)

	require.Len(t, env.publisher.Events, 1)
	evt := env.publisher.Events[0]
	assert.Equal(t, pubsub.EventMessageCreated, evt.Type)
	assert.Equal(t, seller.ID, evt.RecipientID)
	assert.Equal(t, msg.ID, evt.MessageID)

	require.Len(t, env.jobs.Jobs, 1)
	job := env.jobs.Jobs[0]
	assert.Equal(t, queue.KindNewMessage, job.Kind)
	assert.Equal(t, "seller@example.com", job.To)
	assert.Equal(t, "Asha", job.SenderName)
	assert.Equal(t, listing.Title, job.ListingTitle)

	got, err := env.convRepo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessageAt)
}

func TestChatService_SendMessageOnlineRecipient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := testutil.TestUser(t, env.db)
	seller := testutil.TestUser(t, env.db)
	conv := testutil.TestConversation(t, env.db, buyer.ID, seller.ID, nil)
	env.presence[seller.ID] = true

	_, err := env.chats.SendMessage(ctx, buyer.ID, conv.ID, "hello", nil)
	require.NoError(t, err)

	assert.Len(t, env.publisher.Events, 1)
	assert.Empty(t, env.jobs.Jobs)
}

func TestChatService_SendImageMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := testutil.TestUser(t, env.db)
	seller := testutil.TestUser(t, env.db)
	conv := testutil.TestConversation(t, env.db, buyer.ID, seller.ID, nil)

	img := &FileUpload{Filename: "saree.JPG", Size: 4, Reader: strings.NewReader("jpeg")}
	msg, err := env.chats.SendMessage(ctx, seller.ID, conv.ID, "", img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg.ImageURL, "memory://chat/conversations/"))
	assert.Equal(t, 1, env.chat.Len())
	assert.Zero(t, env.media.Len())
}

func TestChatService_SendMessageRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := testutil.TestUser(t, env.db)
	seller := testutil.TestUser(t, env.db)
	stranger := testutil.TestUser(t, env.db)
	conv := testutil.TestConversation(t, env.db, buyer.ID, seller.ID, nil)

	_, err := env.chats.SendMessage(ctx, buyer.ID, conv.ID, "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = env.chats.SendMessage(ctx, buyer.ID, conv.ID, strings.Repeat("a", maxMessageLength+1), nil)
	assert.ErrorIs(t, err, ErrMessageTooLong)

	_, err = env.chats.SendMessage(ctx, stranger.ID, conv.ID, "hi", nil)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.chats.SendMessage(ctx, buyer.ID, 99999, "hi", nil)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	img := &FileUpload{Filename: "doc.pdf", Size: 3, Reader: strings.NewReader("pdf")}
	_, err = env.chats.SendMessage(ctx, buyer.ID, conv.ID, "", img)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	assert.Empty(t, env.publisher.Events)
}

func TestChatService_MarkReadAndUnread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := testutil.TestUser(t, env.db)
	seller := testutil.TestUser(t, env.db)
	conv := testutil.TestConversation(t, env.db, buyer.ID, seller.ID, nil)
	env.presence[seller.ID] = true

	_, err := env.chats.SendMessage(ctx, buyer.ID, conv.ID, "one", nil)
	require.NoError(t, err)
	_, err = env.chats.SendMessage(ctx, buyer.ID, conv.ID, "two", nil)
	require.NoError(t, err)

	unread, err := env.chats.UnreadCount(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	n, err := env.chats.MarkRead(ctx, seller.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	last := env.publisher.Events[len(env.publisher.Events)-1]
	assert.Equal(t, pubsub.EventMessageRead, last.Type)
	assert.Equal(t, buyer.ID, last.RecipientID)

	n, err = env.chats.MarkRead(ctx, seller.ID, conv.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, env.publisher.Events, 3)
}

func TestChatService_ListConversationsAndMessages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := testutil.TestUser(t, env.db)
	seller := testutil.TestUser(t, env.db, testutil.WithDisplayName("Meera"))
	listing := testutil.TestListing(t, env.db, seller.ID)
	conv := testutil.TestConversation(t, env.db, buyer.ID, seller.ID, &listing.ID)
	env.presence[buyer.ID] = true
	env.presence[seller.ID] = true

	for _, text := range []string{"hi", "price?", "450 final"} {
		sender := buyer.ID
		if text == "450 final" {
			sender = seller.ID
		}
		_, err := env.chats.SendMessage(ctx, sender, conv.ID, text, nil)
		require.NoError(t, err)
	}

	items, err := env.chats.ListConversations(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsBuyer)
	assert.Equal(t, "Meera", items[0].Counterpart.DisplayName)
	assert.Equal(t, listing.ID, items[0].Listing.ID)
	assert.Equal(t, "450 final", items[0].LastMessage)
	assert.Equal(t, int64(1), items[0].UnreadCount)

	msgs, total, err := env.chats.ListMessages(ctx, seller.ID, conv.ID, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, msgs, 3)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "450 final", msgs[2].Content)

	assert.NoError(t, env.chats.CanAccess(ctx, seller.ID, conv.ID))
	stranger := testutil.TestUser(t, env.db)
	assert.ErrorIs(t, env.chats.CanAccess(ctx, stranger.ID, conv.ID), ErrForbidden)
}

func TestChatService_ListConversationsQueryCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := testutil.TestUser(t, env.db)

	var queries int
	count := func(*gorm.DB) { queries++ }
	require.NoError(t, env.db.Callback().Query().After("gorm:query").Register("test:count_query", count))
	require.NoError(t, env.db.Callback().Row().After("gorm:row").Register("test:count_row", count))

	addThread := func() {
		seller := testutil.TestUser(t, env.db)
		listing := testutil.TestListing(t, env.db, seller.ID)
		conv := testutil.TestConversation(t, env.db, buyer.ID, seller.ID, &listing.ID)
		testutil.TestMessage(t, env.db, conv.ID, seller.ID, "still available", time.Time{})
	}

	addThread()
	queries = 0
	items, err := env.chats.ListConversations(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	single := queries

	for i := 0; i < 4; i++ {
		addThread()
	}
	queries = 0
	items, err = env.chats.ListConversations(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, single, queries)

	for _, item := range items {
		assert.Equal(t, "still available", item.LastMessage)
		assert.Equal(t, int64(1), item.UnreadCount)
	}
}
