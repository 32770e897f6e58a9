package dto

// CreateListingRequest 创建商品
type CreateListingRequest struct {
	Title       string   `json:"title" binding:"required,min=3,max=200" validate:"required,min=3,max=200"`
	Description string   `json:"description" binding:"max=5000" validate:"max=5000"`
	Price       float64  `json:"price" binding:"required,gt=0" validate:"required,gt=0"`
	Category    string   `json:"category" binding:"required,max=50" validate:"required,max=50"`
	Condition   string   `json:"condition" binding:"required,oneof=new like_new good fair" validate:"required,oneof=new like_new good fair"`
	Size        string   `json:"size" binding:"max=20" validate:"max=20"`
	Brand       string   `json:"brand" binding:"max=80" validate:"max=80"`
	City        string   `json:"city" binding:"max=80" validate:"max=80"`
	Images      []string `json:"images" validate:"dive,url"`
	Publish     bool     `json:"publish"` // true 时直接发布（需要至少一张图）
}

// UpdateListingRequest 更新商品
type UpdateListingRequest struct {
	Title       *string  `json:"title,omitempty" binding:"omitempty,min=3,max=200"`
	Description *string  `json:"description,omitempty" binding:"omitempty,max=5000"`
	Price       *float64 `json:"price,omitempty" binding:"omitempty,gt=0"`
	Category    *string  `json:"category,omitempty" binding:"omitempty,max=50"`
	Condition   *string  `json:"condition,omitempty" binding:"omitempty,oneof=new like_new good fair"`
	Size        *string  `json:"size,omitempty" binding:"omitempty,max=20"`
	Brand       *string  `json:"brand,omitempty" binding:"omitempty,max=80"`
	City        *string  `json:"city,omitempty" binding:"omitempty,max=80"`
	Images      []string `json:"images,omitempty"`
}

// ListingListRequest 商品列表查询参数
type ListingListRequest struct {
	Page     int      `form:"page,default=1"`
	PageSize int      `form:"page_size,default=20"`
	Category string   `form:"category"`
	City     string   `form:"city"`
	Size     string   `form:"size"`
	Query    string   `form:"q"`
	MinPrice *float64 `form:"min_price"`
	MaxPrice *float64 `form:"max_price"`
	Sort     string   `form:"sort,default=latest"` // latest, price_asc, price_desc
}

// ListingSeller 商品详情中的卖家信息，电话仅在有联系权限时返回
type ListingSeller struct {
	ID            int64  `json:"id"`
	DisplayName   string `json:"display_name"`
	City          string `json:"city"`
	AvatarURL     string `json:"avatar_url"`
	VerifiedBadge bool   `json:"verified_badge"`
	Phone         string `json:"phone,omitempty"`
}

// ListingDetail 商品详情
type ListingDetail struct {
	ID              int64          `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Price           float64        `json:"price"`
	Category        string         `json:"category"`
	Condition       string         `json:"condition"`
	Size            string         `json:"size"`
	Brand           string         `json:"brand,omitempty"`
	City            string         `json:"city,omitempty"`
	Images          []string       `json:"images"`
	Status          string         `json:"status"`
	IsApproved      bool           `json:"is_approved"`
	IsPriority      bool           `json:"is_priority"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	InWishlist      bool           `json:"in_wishlist"`
	Seller          *ListingSeller `json:"seller,omitempty"`
	ContactLocked   bool           `json:"contact_locked"`
	CreatedAt       string         `json:"created_at"`
}

// UpdateStatusRequest 修改商品状态
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active sold draft deleted"`
}

// ListingCard 列表页卡片，不含卖家联系方式
type ListingCard struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Price       float64    `json:"price"`
	Category    string     `json:"category"`
	Condition   string     `json:"condition"`
	Size        string     `json:"size"`
	City        string     `json:"city,omitempty"`
	Image       string     `json:"image,omitempty"`
	Status      string     `json:"status"`
	IsPriority  bool       `json:"is_priority"`
	Seller      *UserBrief `json:"seller,omitempty"`
	PublishedAt string     `json:"published_at,omitempty"`
}

// ListMineRequest 我的商品查询参数
type ListMineRequest struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
	Status   string `form:"status"`
}
