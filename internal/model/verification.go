package model

import (
	"time"
)

const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// VerificationRequest 卖家认证申请
//
// PendingUserID 仅在 pending 时等于 UserID，审核后置空，由唯一索引保证同一用户最多一条待审申请。
type VerificationRequest struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	UserID        int64      `gorm:"not null;index" json:"user_id"`
	PendingUserID *int64     `gorm:"uniqueIndex" json:"-"`
	Status        string     `gorm:"size:20;not null;index" json:"status"`
	DocumentURL   string     `gorm:"size:500" json:"document_url,omitempty"`
	Note          string     `gorm:"size:500" json:"note,omitempty"`
	ReviewedBy    *int64     `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (VerificationRequest) TableName() string {
	return "verification_requests"
}
