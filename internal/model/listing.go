package model

import (
	"time"
)

type ListingStatus string

const (
	ListingDraft    ListingStatus = "draft"
	ListingActive   ListingStatus = "active"
	ListingSold     ListingStatus = "sold"
	ListingRejected ListingStatus = "rejected"
	ListingDeleted  ListingStatus = "deleted"
)

// 允许的状态流转；任何状态都可以进入 deleted
var listingTransitions = map[ListingStatus][]ListingStatus{
	ListingDraft:    {ListingActive},
	ListingActive:   {ListingSold, ListingRejected},
	ListingRejected: {ListingDraft},
}

// Valid 是否为已知状态
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingDraft, ListingActive, ListingSold, ListingRejected, ListingDeleted:
		return true
	}
	return false
}

// CanTransition 判断 from -> to 是否允许
func (s ListingStatus) CanTransition(to ListingStatus) bool {
	if !s.Valid() || !to.Valid() || s == to {
		return false
	}
	if to == ListingDeleted {
		return true
	}
	for _, next := range listingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type Listing struct {
	ID              int64         `gorm:"primaryKey" json:"id"`
	SellerID        int64         `gorm:"not null;index" json:"seller_id"`
	Title           string        `gorm:"size:200;not null" json:"title"`
	Description     string        `gorm:"type:text" json:"description"`
	Price           float64       `gorm:"type:decimal(10,2);not null" json:"price"`
	Category        string        `gorm:"size:50;index" json:"category"`
	Condition       string        `gorm:"size:30" json:"condition"`
	Size            string        `gorm:"size:20" json:"size"`
	Brand           string        `gorm:"size:80" json:"brand,omitempty"`
	City            string        `gorm:"size:80;index" json:"city,omitempty"`
	Images          StringArray   `gorm:"type:json" json:"images"`
	Status          ListingStatus `gorm:"size:20;not null;index" json:"status"`
	IsApproved      bool          `gorm:"index" json:"is_approved"`
	ApprovedBy      *int64        `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time    `json:"approved_at,omitempty"`
	RejectionReason string        `gorm:"size:500" json:"rejection_reason,omitempty"`
	IsPriority      bool          `gorm:"index" json:"is_priority"`
	PublishedAt     *time.Time    `gorm:"index" json:"published_at,omitempty"`
	CreatedAt       time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	// 关联
	Seller *User `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
}

func (Listing) TableName() string {
	return "listings"
}
