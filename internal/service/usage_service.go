package service

import (
	"context"
	"errors"

	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pass"
	"github.com/qs3c/revastra_server/internal/repository"
)

var (
	ErrChatLimitReached    = errors.New("会话额度已用完，请升级通行证")
	ErrListingLimitReached = errors.New("发布额度已用完，请升级通行证")
)

// UsageKind 受额度限制的操作
type UsageKind string

const (
	UsageChat    UsageKind = "chat"
	UsageListing UsageKind = "listing"
)

// UsageService 额度判断与计数
//
// 判断函数只读；真正扣减走 repository 的条件递增，和业务写入放在同一事务里。
type UsageService struct {
	usageRepo *repository.UsageRepository
	passes    *PassService
}

func NewUsageService(usageRepo *repository.UsageRepository, passes *PassService) *UsageService {
	return &UsageService{usageRepo: usageRepo, passes: passes}
}

// CanStartChat 是否还能发起新会话
func (s *UsageService) CanStartChat(ctx context.Context, userID int64) (bool, error) {
	ent, err := s.passes.Entitlement(ctx, userID)
	if err != nil {
		return false, err
	}
	usage, err := s.usageRepo.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return ent.AllowsChat(usage.ChatsUsed), nil
}

// CanCreateListing 是否还能发布商品
func (s *UsageService) CanCreateListing(ctx context.Context, userID int64) (bool, error) {
	ent, err := s.passes.Entitlement(ctx, userID)
	if err != nil {
		return false, err
	}
	usage, err := s.usageRepo.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return ent.AllowsListing(usage.ListingsUsed), nil
}

// Allows 按类型判断
func (s *UsageService) Allows(ctx context.Context, userID int64, kind UsageKind) (bool, error) {
	switch kind {
	case UsageChat:
		return s.CanStartChat(ctx, userID)
	case UsageListing:
		return s.CanCreateListing(ctx, userID)
	}
	return false, errors.New("unknown usage kind")
}

// IncrementChatUsage 会话计数 +1
func (s *UsageService) IncrementChatUsage(ctx context.Context, userID int64) error {
	return s.usageRepo.IncrementChats(ctx, userID)
}

// IncrementListingUsage 发布计数 +1
func (s *UsageService) IncrementListingUsage(ctx context.Context, userID int64) error {
	return s.usageRepo.IncrementListings(ctx, userID)
}

// GetUsage 已用/上限/剩余
func (s *UsageService) GetUsage(ctx context.Context, userID int64) (*dto.UsageInfo, error) {
	ent, err := s.passes.Entitlement(ctx, userID)
	if err != nil {
		return nil, err
	}
	usage, err := s.usageRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildUsageInfo(ent, usage.ChatsUsed, usage.ListingsUsed), nil
}

func buildUsageInfo(ent pass.Entitlement, chats, listings int) *dto.UsageInfo {
	info := &dto.UsageInfo{
		ChatsUsed:         chats,
		ChatLimit:         ent.ChatLimit,
		UnlimitedChats:    ent.UnlimitedChats,
		ListingsUsed:      listings,
		ListingLimit:      ent.ListingLimit,
		UnlimitedListings: ent.UnlimitedListings,
	}
	if !ent.UnlimitedChats {
		info.ChatsRemaining = remaining(ent.ChatLimit, chats)
	}
	if !ent.UnlimitedListings {
		info.ListingsRemaining = remaining(ent.ListingLimit, listings)
	}
	return info
}

func remaining(limit, used int) int {
	if used >= limit {
		return 0
	}
	return limit - used
}
