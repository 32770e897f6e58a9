package model

import (
	"time"
)

// UserPass 通行证分配记录
type UserPass struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	PassType  string    `gorm:"size:30;not null" json:"pass_type"`
	Amount    float64   `gorm:"type:decimal(10,2)" json:"amount"`
	StartsAt  time.Time `gorm:"not null" json:"starts_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	IsActive  bool      `gorm:"index" json:"is_active"`
	PaymentID *string   `gorm:"size:100;uniqueIndex" json:"payment_id,omitempty"`
	OrderID   string    `gorm:"size:100" json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserPass) TableName() string {
	return "user_passes"
}

// ValidAt 在 t 时刻是否有效
func (p *UserPass) ValidAt(t time.Time) bool {
	return p.IsActive && !t.Before(p.StartsAt) && t.Before(p.ExpiresAt)
}

// 支付订单状态
const (
	OrderCreated = "created"
	OrderPaid    = "paid"
)

// PaymentOrder 下单时锁定通行证类型与金额，支付成功后只能核销一次
type PaymentOrder struct {
	ID        int64     `gorm:"primaryKey" json:"-"`
	OrderID   string    `gorm:"size:100;not null;uniqueIndex" json:"order_id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	PassType  string    `gorm:"size:30;not null" json:"pass_type"`
	Amount    float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status    string    `gorm:"size:20;not null;default:created" json:"status"`
	PaymentID *string   `gorm:"size:100;uniqueIndex" json:"payment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PaymentOrder) TableName() string {
	return "payment_orders"
}

// UserUsage 用量计数，只增不减
type UserUsage struct {
	ID           int64     `gorm:"primaryKey" json:"-"`
	UserID       int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	ChatsUsed    int       `gorm:"not null;default:0" json:"chats_used"`
	ListingsUsed int       `gorm:"not null;default:0" json:"listings_used"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (UserUsage) TableName() string {
	return "user_usage"
}
