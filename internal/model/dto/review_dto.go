package dto

// CreateReviewRequest 提交卖家评价
type CreateReviewRequest struct {
	SellerID   int64    `json:"seller_id" validate:"required"`
	ListingID  int64    `json:"listing_id" validate:"required"`
	Rating     int      `json:"rating" validate:"min=1,max=5"`
	ReviewText string   `json:"review_text" validate:"min=10,max=2000"`
	Images     []string `json:"images" validate:"max=3,dive,url"`
}

// RatingSummary 卖家评分汇总
type RatingSummary struct {
	SellerID int64   `json:"seller_id"`
	Average  float64 `json:"average"`
	Count    int64   `json:"count"`
}

// VerificationApplyRequest 卖家认证申请
type VerificationApplyRequest struct {
	DocumentURL string `json:"document_url" binding:"omitempty,url"`
	Note        string `json:"note" binding:"max=500"`
}

// ReviewItem 评价列表项
type ReviewItem struct {
	ID         int64      `json:"id"`
	ListingID  int64      `json:"listing_id"`
	Rating     int        `json:"rating"`
	ReviewText string     `json:"review_text"`
	Images     []string   `json:"images"`
	Reviewer   *UserBrief `json:"reviewer,omitempty"`
	CreatedAt  string     `json:"created_at"`
}

// PageRequest 通用分页参数
type PageRequest struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=20"`
}
