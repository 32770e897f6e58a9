package service

import (
	"context"
	"errors"
	"time"

	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pass"
	"github.com/qs3c/revastra_server/internal/repository"
)

// Session 一次请求内的用户上下文：资料、通行证、权益、用量、管理员标记
type Session struct {
	User        *model.User
	Pass        *model.UserPass // nil 表示 free
	PassType    pass.Type
	Entitlement pass.Entitlement
	Usage       *model.UserUsage
	IsAdmin     bool
}

// UserID 便捷访问
func (s *Session) UserID() int64 {
	if s == nil || s.User == nil {
		return 0
	}
	return s.User.ID
}

// Anonymous 未登录访客的会话，按 free 权益处理
func Anonymous() *Session {
	return &Session{PassType: pass.Free, Entitlement: pass.Resolve(pass.Free)}
}

type SessionService struct {
	userRepo  *repository.UserRepository
	roleRepo  *repository.RoleRepository
	usageRepo *repository.UsageRepository
	passes    *PassService
}

func NewSessionService(
	userRepo *repository.UserRepository,
	roleRepo *repository.RoleRepository,
	usageRepo *repository.UsageRepository,
	passes *PassService,
) *SessionService {
	return &SessionService{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		usageRepo: usageRepo,
		passes:    passes,
	}
}

// Load 组装会话；每次调用都重新读取，即刷新操作
func (s *SessionService) Load(ctx context.Context, userID int64) (*Session, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	assignment, err := s.passes.CurrentAssignment(ctx, userID)
	if err != nil {
		return nil, err
	}

	usage, err := s.usageRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	isAdmin, err := s.roleRepo.IsAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}

	t := typeOf(assignment)
	return &Session{
		User:        user,
		Pass:        assignment,
		PassType:    t,
		Entitlement: pass.Resolve(t),
		Usage:       usage,
		IsAdmin:     isAdmin,
	}, nil
}

// Info 转换为前端结构
func (s *Session) Info() *dto.SessionInfo {
	return &dto.SessionInfo{
		User:    buildUserInfo(s.User, true),
		Pass:    buildCurrentPass(s.Pass),
		Usage:   buildUsageInfo(s.Entitlement, s.Usage.ChatsUsed, s.Usage.ListingsUsed),
		IsAdmin: s.IsAdmin,
	}
}

// buildUserInfo private 为 true 时包含邮箱和电话
func buildUserInfo(user *model.User, private bool) *dto.UserInfo {
	info := &dto.UserInfo{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		City:        user.City,
		Bio:         user.Bio,
		AvatarURL:   user.AvatarURL,
		IsVerified:  user.IsVerified,
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	}
	if private {
		info.Email = user.EmailAddress()
		info.Phone = user.Phone
		info.EmailVerified = user.EmailVerified
	}
	return info
}
