package database

import (
	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/internal/model"
)

// Models 所有需要迁移的表
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.UserRole{},
		&model.UserPass{},
		&model.PaymentOrder{},
		&model.UserUsage{},
		&model.Listing{},
		&model.Conversation{},
		&model.Message{},
		&model.SellerReview{},
		&model.ReviewImage{},
		&model.WishlistItem{},
		&model.VerificationRequest{},
	}
}

// RequiredTables 健康检查要求存在的表
var RequiredTables = []string{
	"profiles",
	"user_roles",
	"user_passes",
	"payment_orders",
	"user_usage",
	"listings",
	"conversations",
	"messages",
	"seller_reviews",
	"review_images",
	"wishlist",
	"verification_requests",
}

// AutoMigrate 自动建表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
