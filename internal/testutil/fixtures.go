package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/pass"
)

var seq int64

func nextSeq() int64 {
	return atomic.AddInt64(&seq, 1)
}

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	n := nextSeq()
	email := fmt.Sprintf("test_%d_%d@example.com", n, time.Now().UnixNano())
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		DisplayName:   fmt.Sprintf("Test User %d", n),
		Email:         &email,
		PasswordHash:  &passwordHash,
		City:          "Pune",
		EmailVerified: true,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithDisplayName 设置昵称
func WithDisplayName(name string) func(*model.User) {
	return func(u *model.User) {
		u.DisplayName = name
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = &email
	}
}

// WithoutEmail 没有邮箱的用户
func WithoutEmail() func(*model.User) {
	return func(u *model.User) {
		u.Email = nil
	}
}

// WithPhone 设置电话
func WithPhone(phone string) func(*model.User) {
	return func(u *model.User) {
		u.Phone = phone
	}
}

// WithVerified 管理员认证
func WithVerified() func(*model.User) {
	return func(u *model.User) {
		u.IsVerified = true
	}
}

// TestAdmin 创建管理员
func TestAdmin(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()

	user := TestUser(t, db, WithDisplayName("Admin"))
	if err := db.Create(&model.UserRole{UserID: user.ID, Role: model.RoleAdmin}).Error; err != nil {
		t.Fatalf("Failed to grant admin role: %v", err)
	}
	return user
}

// TestPass 为用户写入一条从现在起 30 天有效的通行证
func TestPass(t *testing.T, db *gorm.DB, userID int64, passType pass.Type, opts ...func(*model.UserPass)) *model.UserPass {
	t.Helper()

	now := time.Now()
	p := &model.UserPass{
		UserID:    userID,
		PassType:  string(passType),
		Amount:    pass.Info(passType).Price,
		StartsAt:  now.Add(-time.Minute),
		ExpiresAt: now.Add(30 * 24 * time.Hour),
		IsActive:  true,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to create test pass: %v", err)
	}
	return p
}

// WithExpiresAt 设置过期时间
func WithExpiresAt(at time.Time) func(*model.UserPass) {
	return func(p *model.UserPass) {
		p.ExpiresAt = at
	}
}

// TestUsage 直接写入用量
func TestUsage(t *testing.T, db *gorm.DB, userID int64, chats, listings int) *model.UserUsage {
	t.Helper()

	u := &model.UserUsage{UserID: userID, ChatsUsed: chats, ListingsUsed: listings}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("Failed to create test usage: %v", err)
	}
	return u
}

// TestListing 创建测试商品，默认已上架已审核
func TestListing(t *testing.T, db *gorm.DB, sellerID int64, opts ...func(*model.Listing)) *model.Listing {
	t.Helper()

	published := time.Now().Add(-48 * time.Hour)
	l := &model.Listing{
		SellerID:    sellerID,
		Title:       fmt.Sprintf("Cotton Kurta %d", nextSeq()),
		Description: "Lightly worn, washed once",
		Price:       450,
		Category:    "ethnic",
		Condition:   "like_new",
		Size:        "M",
		City:        "Pune",
		Images:      model.StringArray{"https://cdn.example.com/listings/1.jpg"},
		Status:      model.ListingActive,
		IsApproved:  true,
		PublishedAt: &published,
	}

	for _, opt := range opts {
		opt(l)
	}

	if err := db.Create(l).Error; err != nil {
		t.Fatalf("Failed to create test listing: %v", err)
	}
	return l
}

// WithListingStatus 设置状态
func WithListingStatus(status model.ListingStatus) func(*model.Listing) {
	return func(l *model.Listing) {
		l.Status = status
		if status != model.ListingActive {
			l.PublishedAt = nil
		}
	}
}

// WithApproved 设置审核状态
func WithApproved(approved bool) func(*model.Listing) {
	return func(l *model.Listing) {
		l.IsApproved = approved
	}
}

// WithPublishedAt 设置发布时间
func WithPublishedAt(at time.Time) func(*model.Listing) {
	return func(l *model.Listing) {
		l.PublishedAt = &at
	}
}

// WithImages 设置图片
func WithImages(images ...string) func(*model.Listing) {
	return func(l *model.Listing) {
		l.Images = images
	}
}

// WithPrice 设置价格
func WithPrice(price float64) func(*model.Listing) {
	return func(l *model.Listing) {
		l.Price = price
	}
}

// WithPriority 优先展示
func WithPriority() func(*model.Listing) {
	return func(l *model.Listing) {
		l.IsPriority = true
	}
}

// TestConversation 创建会话
func TestConversation(t *testing.T, db *gorm.DB, buyerID, sellerID int64, listingID *int64) *model.Conversation {
	t.Helper()

	c := &model.Conversation{BuyerID: buyerID, SellerID: sellerID, ListingID: listingID}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("Failed to create test conversation: %v", err)
	}
	return c
}

// TestMessage 创建消息，createdAt 为零值时使用当前时间
func TestMessage(t *testing.T, db *gorm.DB, conversationID, senderID int64, content string, createdAt time.Time) *model.Message {
	t.Helper()

	m := &model.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      createdAt,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("Failed to create test message: %v", err)
	}
	return m
}
