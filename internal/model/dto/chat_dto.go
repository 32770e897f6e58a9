package dto

// StartConversationRequest 发起会话
type StartConversationRequest struct {
	SellerID  int64  `json:"seller_id" binding:"required"`
	ListingID *int64 `json:"listing_id"`
}

// StartConversationResponse 发起会话结果，Created=false 表示复用已有会话
type StartConversationResponse struct {
	ConversationID int64 `json:"conversation_id"`
	Created        bool  `json:"created"`
}

// SendMessageRequest 发送文本消息；图片消息走 multipart
type SendMessageRequest struct {
	Content string `json:"content" form:"content" binding:"max=4000"`
}

// ConversationItem 会话列表项
type ConversationItem struct {
	ID            int64         `json:"id"`
	Counterpart   *UserBrief    `json:"counterpart"`
	Listing       *ListingBrief `json:"listing,omitempty"`
	LastMessage   string        `json:"last_message,omitempty"`
	LastMessageAt string        `json:"last_message_at,omitempty"`
	UnreadCount   int64         `json:"unread_count"`
	IsBuyer       bool          `json:"is_buyer"`
}

// UserBrief 用户简要信息
type UserBrief struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// ListingBrief 商品简要信息
type ListingBrief struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Image  string  `json:"image,omitempty"`
	Status string  `json:"status"`
}

// MessageListRequest 消息分页参数
type MessageListRequest struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=50"`
}
