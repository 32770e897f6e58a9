package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/repository"
)

type UserService struct {
	userRepo    *repository.UserRepository
	reviewRepo  *repository.ReviewRepository
	listingRepo *repository.ListingRepository
	passes      *PassService
	uploads     *UploadService
}

func NewUserService(
	userRepo *repository.UserRepository,
	reviewRepo *repository.ReviewRepository,
	listingRepo *repository.ListingRepository,
	passes *PassService,
	uploads *UploadService,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		reviewRepo:  reviewRepo,
		listingRepo: listingRepo,
		passes:      passes,
		uploads:     uploads,
	}
}

// GetProfile 获取自己的资料
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return buildUserInfo(user, true), nil
}

// UpdateProfile 更新用户信息
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserInfo, error) {
	fields := make(map[string]interface{})
	if req.DisplayName != nil {
		fields["display_name"] = strings.TrimSpace(*req.DisplayName)
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.City != nil {
		fields["city"] = strings.TrimSpace(*req.City)
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
	}

	return s.GetProfile(ctx, userID)
}

// UploadAvatar 上传头像
func (s *UserService) UploadAvatar(ctx context.Context, userID int64, f *FileUpload) (string, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	url, err := s.uploads.UploadMedia(ctx, "avatars", userID, f)
	if err != nil {
		return "", err
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"avatar_url": url}); err != nil {
		return "", err
	}
	return url, nil
}

// GetSellerProfile 公开卖家主页
//
// 认证徽章来自管理员审核或通行证权益，任一满足即可。
func (s *UserService) GetSellerProfile(ctx context.Context, sellerID int64) (*dto.SellerProfile, error) {
	user, err := s.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	avg, count, err := s.reviewRepo.Summary(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	active, err := s.listingRepo.CountActiveBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	ent, err := s.passes.Entitlement(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	return &dto.SellerProfile{
		ID:            user.ID,
		DisplayName:   user.DisplayName,
		City:          user.City,
		Bio:           user.Bio,
		AvatarURL:     user.AvatarURL,
		VerifiedBadge: user.IsVerified || ent.VerifiedBadge,
		RatingAverage: avg,
		ReviewCount:   count,
		ActiveCount:   active,
		MemberSince:   user.CreatedAt.Format(time.RFC3339),
	}, nil
}
