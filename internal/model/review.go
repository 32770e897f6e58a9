package model

import (
	"time"
)

type SellerReview struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	SellerID   int64     `gorm:"not null;index" json:"seller_id"`
	ReviewerID int64     `gorm:"not null;uniqueIndex:idx_reviewer_listing" json:"reviewer_id"`
	ListingID  int64     `gorm:"not null;uniqueIndex:idx_reviewer_listing" json:"listing_id"`
	Rating     int       `gorm:"not null" json:"rating"`
	ReviewText string    `gorm:"type:text" json:"review_text"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`

	// 关联
	Reviewer *User         `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Images   []ReviewImage `gorm:"foreignKey:ReviewID" json:"images,omitempty"`
}

func (SellerReview) TableName() string {
	return "seller_reviews"
}

type ReviewImage struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	ReviewID  int64     `gorm:"not null;index" json:"review_id"`
	ImageURL  string    `gorm:"size:500;not null" json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

func (ReviewImage) TableName() string {
	return "review_images"
}

// WishlistItem 收藏
type WishlistItem struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_wishlist_user_listing" json:"user_id"`
	ListingID int64     `gorm:"not null;uniqueIndex:idx_wishlist_user_listing" json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`

	Listing *Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
}

func (WishlistItem) TableName() string {
	return "wishlist"
}
