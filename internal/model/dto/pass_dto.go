package dto

import "github.com/qs3c/revastra_server/internal/pass"

// PurchasePassRequest 购买通行证
//
// 付费通行证需要支付网关返回的 order_id/payment_id/signature
type PurchasePassRequest struct {
	PassType  string `json:"pass_type" binding:"required"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// CreateOrderRequest 付费通行证下单
type CreateOrderRequest struct {
	PassType string `json:"pass_type" binding:"required"`
}

// OrderResponse 下单结果，客户端据此拉起支付
type OrderResponse struct {
	OrderID  string    `json:"order_id"`
	PassType pass.Type `json:"pass_type"`
	Amount   float64   `json:"amount"`
	Currency string    `json:"currency"`
}

// CurrentPass 当前通行证
type CurrentPass struct {
	PassType    pass.Type        `json:"pass_type"`
	Name        string           `json:"name"`
	Category    pass.Category    `json:"category"`
	ExpiresAt   string           `json:"expires_at,omitempty"`
	Entitlement pass.Entitlement `json:"entitlement"`
}

// CanPurchaseResponse 购买预检
type CanPurchaseResponse struct {
	Current pass.Type     `json:"current"`
	Target  pass.Type     `json:"target"`
	Result  pass.Decision `json:"result"`
}

// UsageInfo 用量信息
type UsageInfo struct {
	ChatsUsed         int  `json:"chats_used"`
	ChatLimit         int  `json:"chat_limit"`
	ChatsRemaining    int  `json:"chats_remaining"`
	UnlimitedChats    bool `json:"unlimited_chats"`
	ListingsUsed      int  `json:"listings_used"`
	ListingLimit      int  `json:"listing_limit"`
	ListingsRemaining int  `json:"listings_remaining"`
	UnlimitedListings bool `json:"unlimited_listings"`
}

// SessionInfo 会话对象：用户、通行证、权益、用量、管理员标记
type SessionInfo struct {
	User    *UserInfo    `json:"user"`
	Pass    *CurrentPass `json:"pass"`
	Usage   *UsageInfo   `json:"usage"`
	IsAdmin bool         `json:"is_admin"`
}
