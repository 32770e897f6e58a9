package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Conversation 买家-卖家-商品 三元组
type Conversation struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	BuyerID       int64      `gorm:"not null;index" json:"buyer_id"`
	SellerID      int64      `gorm:"not null;index" json:"seller_id"`
	ListingID     *int64     `gorm:"index" json:"listing_id,omitempty"`
	ThreadKey     string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	LastMessageAt *time.Time `gorm:"index" json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`

	// 关联
	Buyer   *User    `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Seller  *User    `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Listing *Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// ThreadKey 三元组的非空唯一键，不关联商品时 listing 记为 0
func ThreadKey(buyerID, sellerID int64, listingID *int64) string {
	var listing int64
	if listingID != nil {
		listing = *listingID
	}
	return fmt.Sprintf("%d:%d:%d", buyerID, sellerID, listing)
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	c.ThreadKey = ThreadKey(c.BuyerID, c.SellerID, c.ListingID)
	return nil
}

// HasParticipant 是否为会话双方之一
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// Counterpart 返回另一方
func (c *Conversation) Counterpart(userID int64) int64 {
	if c.BuyerID == userID {
		return c.SellerID
	}
	return c.BuyerID
}

// Message 只追加，已读与提醒标记除外
type Message struct {
	ID                   int64      `gorm:"primaryKey" json:"id"`
	ConversationID       int64      `gorm:"not null;index" json:"conversation_id"`
	SenderID             int64      `gorm:"not null;index" json:"sender_id"`
	Content              string     `gorm:"type:text" json:"content"`
	ImageURL             string     `gorm:"size:500" json:"image_url,omitempty"`
	IsRead               bool       `gorm:"index" json:"is_read"`
	ReadAt               *time.Time `json:"read_at,omitempty"`
	FirstReminderSentAt  *time.Time `json:"-"`
	SecondReminderSentAt *time.Time `json:"-"`
	CreatedAt            time.Time  `gorm:"index" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
