package model

import (
	"time"
)

// User 用户资料，对应 profiles 表，只做软字段修改不物理删除
type User struct {
	ID                    int64      `gorm:"primaryKey" json:"id"`
	Email                 *string    `gorm:"size:100;uniqueIndex" json:"email,omitempty"`
	PasswordHash          *string    `gorm:"size:255" json:"-"`
	DisplayName           string     `gorm:"size:80;not null" json:"display_name"`
	Phone                 string     `gorm:"size:20" json:"phone,omitempty"`
	City                  string     `gorm:"size:80" json:"city"`
	Bio                   string     `gorm:"type:text" json:"bio"`
	AvatarURL             string     `gorm:"size:500" json:"avatar_url"`
	IsVerified            bool       `json:"is_verified"` // 管理员审核通过的卖家认证
	EmailVerified         bool       `json:"email_verified"`
	GoogleID              *string    `gorm:"column:google_id;size:64;uniqueIndex" json:"-"`
	VerificationCode      *string    `gorm:"size:100" json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "profiles"
}

// EmailAddress 返回邮箱，未设置时为空串
func (u *User) EmailAddress() string {
	if u == nil || u.Email == nil {
		return ""
	}
	return *u.Email
}

const RoleAdmin = "admin"

type UserRole struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_user_role" json:"user_id"`
	Role      string    `gorm:"size:20;not null;uniqueIndex:idx_user_role" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
