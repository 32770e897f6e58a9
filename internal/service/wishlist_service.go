package service

import (
	"context"
	"errors"

	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/repository"
)

var (
	ErrAlreadyInWishlist = errors.New("已在收藏中")
	ErrNotInWishlist     = errors.New("收藏不存在")
)

type WishlistService struct {
	wishlistRepo *repository.WishlistRepository
	listingRepo  *repository.ListingRepository
}

func NewWishlistService(wishlistRepo *repository.WishlistRepository, listingRepo *repository.ListingRepository) *WishlistService {
	return &WishlistService{wishlistRepo: wishlistRepo, listingRepo: listingRepo}
}

// Add 收藏商品，只能收藏对外可见的商品
func (s *WishlistService) Add(ctx context.Context, userID, listingID int64) error {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	if listing.Status != model.ListingActive || !listing.IsApproved {
		return ErrListingNotFound
	}

	if err := s.wishlistRepo.Add(ctx, userID, listingID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrAlreadyInWishlist
		}
		return err
	}
	return nil
}

// Remove 取消收藏
func (s *WishlistService) Remove(ctx context.Context, userID, listingID int64) error {
	removed, err := s.wishlistRepo.Remove(ctx, userID, listingID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotInWishlist
	}
	return nil
}

// List 收藏列表
func (s *WishlistService) List(ctx context.Context, userID int64, page, pageSize int) ([]*model.WishlistItem, int64, error) {
	page, pageSize = normalizePage(page, pageSize, 100)
	return s.wishlistRepo.ListByUser(ctx, userID, page, pageSize)
}
