package dto

// RegisterRequest 注册请求
type RegisterRequest struct {
	DisplayName string `json:"display_name" binding:"required,min=2,max=80,displayname"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=64"`
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	UserID int64 `json:"user_id"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token string    `json:"token"`
	User  *UserInfo `json:"user"`
}

// VerifyEmailRequest 邮箱验证请求
type VerifyEmailRequest struct {
	Code string `json:"code" binding:"required"`
}

// ResendVerificationRequest 重发验证码
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// OAuthCallbackRequest Google 回调参数
type OAuthCallbackRequest struct {
	Code  string `form:"code" binding:"required"`
	State string `form:"state" binding:"required"`
}

// UserInfo 用户信息（返回给前端）
type UserInfo struct {
	ID            int64  `json:"id"`
	DisplayName   string `json:"display_name"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	City          string `json:"city"`
	Bio           string `json:"bio"`
	AvatarURL     string `json:"avatar_url"`
	IsVerified    bool   `json:"is_verified"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// UpdateProfileRequest 更新用户信息请求
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" binding:"omitempty,min=2,max=80,displayname"`
	Phone       *string `json:"phone,omitempty" binding:"omitempty,max=20"`
	City        *string `json:"city,omitempty" binding:"omitempty,max=80"`
	Bio         *string `json:"bio,omitempty" binding:"omitempty,max=500"`
}

// SellerProfile 公开卖家主页
type SellerProfile struct {
	ID            int64   `json:"id"`
	DisplayName   string  `json:"display_name"`
	City          string  `json:"city"`
	Bio           string  `json:"bio"`
	AvatarURL     string  `json:"avatar_url"`
	VerifiedBadge bool    `json:"verified_badge"`
	RatingAverage float64 `json:"rating_average"`
	ReviewCount   int64   `json:"review_count"`
	ActiveCount   int64   `json:"active_listings"`
	MemberSince   string  `json:"member_since"`
}
