package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pkg/email"
	"github.com/qs3c/revastra_server/internal/pkg/pubsub"
	"github.com/qs3c/revastra_server/internal/pkg/queue"
	"github.com/qs3c/revastra_server/internal/repository"
)

var (
	ErrChatWithSelf          = errors.New("不能和自己聊天")
	ErrConversationNotFound  = errors.New("会话不存在")
	ErrEmptyMessage          = errors.New("消息内容不能为空")
	ErrMessageTooLong        = errors.New("消息内容过长")
	ErrListingSellerMismatch = errors.New("商品不属于该卖家")
)

const maxMessageLength = 4000

// EventPublisher 聊天事件广播
type EventPublisher interface {
	Publish(ctx context.Context, evt *pubsub.ChatEvent) error
}

// Presence 在线状态
type Presence interface {
	IsOnline(userID int64) bool
}

type ChatService struct {
	db          *gorm.DB
	convRepo    *repository.ConversationRepository
	msgRepo     *repository.MessageRepository
	usageRepo   *repository.UsageRepository
	userRepo    *repository.UserRepository
	listingRepo *repository.ListingRepository
	passes      *PassService
	uploads     *UploadService
	publisher   EventPublisher
	presence    Presence
	jobs        EmailQueue
	log         zerolog.Logger
	now         func() time.Time
}

func NewChatService(
	db *gorm.DB,
	convRepo *repository.ConversationRepository,
	msgRepo *repository.MessageRepository,
	usageRepo *repository.UsageRepository,
	userRepo *repository.UserRepository,
	listingRepo *repository.ListingRepository,
	passes *PassService,
	uploads *UploadService,
	publisher EventPublisher,
	presence Presence,
	jobs EmailQueue,
	log zerolog.Logger,
) *ChatService {
	return &ChatService{
		db:          db,
		convRepo:    convRepo,
		msgRepo:     msgRepo,
		usageRepo:   usageRepo,
		userRepo:    userRepo,
		listingRepo: listingRepo,
		passes:      passes,
		uploads:     uploads,
		publisher:   publisher,
		presence:    presence,
		jobs:        jobs,
		log:         log,
		now:         time.Now,
	}
}

// StartConversation 发起会话
//
// 同一 (买家, 卖家, 商品) 已有会话时直接复用，不占用额度；
// 否则在同一事务内原子占用一次会话额度并创建会话，额度不足时什么都不写。
func (s *ChatService) StartConversation(ctx context.Context, buyerID int64, req *dto.StartConversationRequest) (*dto.StartConversationResponse, error) {
	if req.SellerID == buyerID {
		return nil, ErrChatWithSelf
	}

	if _, err := s.userRepo.GetByID(ctx, req.SellerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.ListingID != nil {
		listing, err := s.listingRepo.GetByID(ctx, *req.ListingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrListingNotFound
			}
			return nil, err
		}
		if listing.SellerID != req.SellerID {
			return nil, ErrListingSellerMismatch
		}
		if listing.Status == model.ListingDeleted {
			return nil, ErrListingNotFound
		}
	}

	ent, err := s.passes.Entitlement(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	var resp *dto.StartConversationResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		convRepo := s.convRepo.WithTx(tx)

		existing, err := convRepo.FindByTriple(ctx, buyerID, req.SellerID, req.ListingID)
		if err == nil {
			resp = &dto.StartConversationResponse{ConversationID: existing.ID}
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := s.usageRepo.WithTx(tx).ReserveChat(ctx, buyerID, ent.ChatLimit, ent.UnlimitedChats); err != nil {
			if errors.Is(err, repository.ErrLimitReached) {
				return ErrChatLimitReached
			}
			return err
		}

		conv := &model.Conversation{BuyerID: buyerID, SellerID: req.SellerID, ListingID: req.ListingID}
		if err := convRepo.Create(ctx, conv); err != nil {
			return err
		}
		resp = &dto.StartConversationResponse{ConversationID: conv.ID, Created: true}
		return nil
	})

	// 并发创建撞上唯一索引：事务已回滚额度，返回对方创建的会话
	if errors.Is(err, repository.ErrConflict) {
		existing, findErr := s.convRepo.FindByTriple(ctx, buyerID, req.SellerID, req.ListingID)
		if findErr != nil {
			return nil, findErr
		}
		return &dto.StartConversationResponse{ConversationID: existing.ID}, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// SendMessage 发送消息；有图片时先上传到聊天 bucket，再写入消息
func (s *ChatService) SendMessage(ctx context.Context, senderID, conversationID int64, content string, image *FileUpload) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && image == nil {
		return nil, ErrEmptyMessage
	}
	if len([]rune(content)) > maxMessageLength {
		return nil, ErrMessageTooLong
	}

	conv, err := s.participant(ctx, senderID, conversationID)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      s.now(),
	}

	if image != nil {
		url, err := s.uploads.UploadChat(ctx, conversationID, image)
		if err != nil {
			return nil, err
		}
		msg.ImageURL = url
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.msgRepo.WithTx(tx).Create(ctx, msg); err != nil {
			return err
		}
		return s.convRepo.WithTx(tx).TouchLastMessage(ctx, conversationID, msg.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	recipientID := conv.Counterpart(senderID)
	s.publish(ctx, &pubsub.ChatEvent{
		Type:           pubsub.EventMessageCreated,
		ConversationID: conversationID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		MessageID:      msg.ID,
		Payload:        msg,
	})

	if s.presence == nil || !s.presence.IsOnline(recipientID) {
		s.notifyOffline(ctx, conv, senderID, recipientID, msg)
	}

	return msg, nil
}

// MarkRead 把对方发来的未读消息置为已读
func (s *ChatService) MarkRead(ctx context.Context, userID, conversationID int64) (int64, error) {
	conv, err := s.participant(ctx, userID, conversationID)
	if err != nil {
		return 0, err
	}

	n, err := s.msgRepo.MarkRead(ctx, conversationID, userID, s.now())
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.publish(ctx, &pubsub.ChatEvent{
			Type:           pubsub.EventMessageRead,
			ConversationID: conversationID,
			SenderID:       userID,
			RecipientID:    conv.Counterpart(userID),
		})
	}
	return n, nil
}

// ListConversations 会话列表
func (s *ChatService) ListConversations(ctx context.Context, userID int64) ([]*dto.ConversationItem, error) {
	convs, err := s.convRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}
	latest, err := s.msgRepo.LatestIn(ctx, ids)
	if err != nil {
		return nil, err
	}
	unread, err := s.msgRepo.UnreadIn(ctx, ids, userID)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ConversationItem, 0, len(convs))
	for _, c := range convs {
		item := &dto.ConversationItem{
			ID:      c.ID,
			IsBuyer: c.BuyerID == userID,
		}

		other := c.Seller
		if !item.IsBuyer {
			other = c.Buyer
		}
		if other != nil {
			item.Counterpart = &dto.UserBrief{ID: other.ID, DisplayName: other.DisplayName, AvatarURL: other.AvatarURL}
		}

		if c.Listing != nil {
			item.Listing = &dto.ListingBrief{
				ID:     c.Listing.ID,
				Title:  c.Listing.Title,
				Price:  c.Listing.Price,
				Status: string(c.Listing.Status),
			}
			if len(c.Listing.Images) > 0 {
				item.Listing.Image = c.Listing.Images[0]
			}
		}

		if m := latest[c.ID]; m != nil {
			item.LastMessage = email.Preview(m.Content, m.ImageURL != "")
			item.LastMessageAt = m.CreatedAt.Format(time.RFC3339)
		}
		item.UnreadCount = unread[c.ID]

		items = append(items, item)
	}
	return items, nil
}

// ListMessages 按插入顺序返回消息
func (s *ChatService) ListMessages(ctx context.Context, userID, conversationID int64, page, pageSize int) ([]*model.Message, int64, error) {
	if _, err := s.participant(ctx, userID, conversationID); err != nil {
		return nil, 0, err
	}
	page, pageSize = normalizePage(page, pageSize, 200)
	return s.msgRepo.ListByConversation(ctx, conversationID, page, pageSize)
}

// UnreadCount 未读总数
func (s *ChatService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.msgRepo.CountUnreadForUser(ctx, userID)
}

// CanAccess 用户是否为会话参与者（websocket 订阅前校验）
func (s *ChatService) CanAccess(ctx context.Context, userID, conversationID int64) error {
	_, err := s.participant(ctx, userID, conversationID)
	return err
}

func (s *ChatService) participant(ctx context.Context, userID, conversationID int64) (*model.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrForbidden
	}
	return conv, nil
}

func (s *ChatService) publish(ctx context.Context, evt *pubsub.ChatEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Warn().Err(err).Str("type", evt.Type).Int64("conversation_id", evt.ConversationID).Msg("failed to publish chat event")
	}
}

// notifyOffline 接收方不在线时投递新消息邮件
func (s *ChatService) notifyOffline(ctx context.Context, conv *model.Conversation, senderID, recipientID int64, msg *model.Message) {
	if s.jobs == nil {
		return
	}

	users, err := s.userRepo.GetByIDs(ctx, []int64{senderID, recipientID})
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load users for message email")
		return
	}
	recipient, sender := users[recipientID], users[senderID]
	if recipient == nil || recipient.EmailAddress() == "" || sender == nil {
		return
	}

	job := &queue.EmailJob{
		Kind:           queue.KindNewMessage,
		To:             recipient.EmailAddress(),
		RecipientName:  recipient.DisplayName,
		SenderName:     sender.DisplayName,
		Preview:        email.Preview(msg.Content, msg.ImageURL != ""),
		ConversationID: conv.ID,
	}
	if conv.ListingID != nil {
		if listing, err := s.listingRepo.GetByID(ctx, *conv.ListingID); err == nil {
			job.ListingTitle = listing.Title
		}
	}

	if err := s.jobs.Push(ctx, job); err != nil {
		s.log.Warn().Err(err).Int64("message_id", msg.ID).Msg("failed to enqueue message email")
	}
}
