package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/internal/model"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// WithTx 绑定到事务
func (r *ConversationRepository) WithTx(tx *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: tx}
}

func (r *ConversationRepository) Create(ctx context.Context, c *model.Conversation) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *ConversationRepository) GetByID(ctx context.Context, id int64) (*model.Conversation, error) {
	var c model.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// FindByTriple 按 (buyer, seller, listing) 查找，listingID 为 nil 表示不关联商品
func (r *ConversationRepository) FindByTriple(ctx context.Context, buyerID, sellerID int64, listingID *int64) (*model.Conversation, error) {
	var c model.Conversation
	err := r.db.WithContext(ctx).
		Where("thread_key = ?", model.ThreadKey(buyerID, sellerID, listingID)).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *ConversationRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Conversation, error) {
	var convs []*model.Conversation
	err := r.db.WithContext(ctx).
		Preload("Buyer").Preload("Seller").Preload("Listing").
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("COALESCE(last_message_at, created_at) DESC, id DESC").
		Find(&convs).Error
	return convs, err
}

func (r *ConversationRepository) TouchLastMessage(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", id).
		Update("last_message_at", at).Error
}

func (r *ConversationRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Count(&count).Error
	return count, err
}
