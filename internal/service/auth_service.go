package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/qs3c/revastra_server/config"
	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pkg/jwt"
	"github.com/qs3c/revastra_server/internal/pkg/oauth"
	"github.com/qs3c/revastra_server/internal/pkg/queue"
	"github.com/qs3c/revastra_server/internal/repository"
)

var (
	ErrEmailExists        = errors.New("邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrEmailNotVerified   = errors.New("邮箱尚未验证")
	ErrInvalidVerifyCode  = errors.New("验证码无效或已过期")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrOAuthFailed        = errors.New("第三方登录失败")
)

// EmailQueue 异步邮件任务队列
type EmailQueue interface {
	Push(ctx context.Context, job *queue.EmailJob) error
}

// GoogleProvider Google 登录
type GoogleProvider interface {
	GetAuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	GetUser(ctx context.Context, token *oauth2.Token) (*oauth.GoogleUser, error)
}

type AuthService struct {
	userRepo *repository.UserRepository
	jobs     EmailQueue
	google   GoogleProvider
	cfg      *config.Config
	log      zerolog.Logger
}

func NewAuthService(userRepo *repository.UserRepository, jobs EmailQueue, google GoogleProvider, cfg *config.Config, log zerolog.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		jobs:     jobs,
		google:   google,
		cfg:      cfg,
		log:      log,
	}
}

// Register 用户注册
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := normalizeEmail(req.Email)

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	verifyCode, err := generateRandomCode(32)
	if err != nil {
		return nil, err
	}

	passwordStr := string(hashedPassword)
	expiresAt := time.Now().Add(24 * time.Hour)

	user := &model.User{
		DisplayName:           strings.TrimSpace(req.DisplayName),
		Email:                 &email,
		PasswordHash:          &passwordStr,
		VerificationCode:      &verifyCode,
		VerificationExpiresAt: &expiresAt,
	}

	// 开发环境自动验证邮箱
	if s.cfg.Server.Mode == "debug" {
		user.EmailVerified = true
		user.VerificationCode = nil
		user.VerificationExpiresAt = nil
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	if !user.EmailVerified {
		s.enqueue(ctx, &queue.EmailJob{
			Kind:          queue.KindVerification,
			To:            email,
			RecipientName: user.DisplayName,
			Code:          verifyCode,
		})
	}

	return &dto.RegisterResponse{UserID: user.ID}, nil
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 生产环境要求先验证邮箱
	if !user.EmailVerified && s.cfg.Server.Mode != "debug" {
		return nil, ErrEmailNotVerified
	}

	return s.issue(user)
}

// VerifyEmail 验证邮箱
func (s *AuthService) VerifyEmail(ctx context.Context, code string) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByVerificationCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidVerifyCode
		}
		return nil, err
	}

	if user.VerificationExpiresAt == nil || time.Now().After(*user.VerificationExpiresAt) {
		return nil, ErrInvalidVerifyCode
	}

	err = s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"email_verified":          true,
		"verification_code":       nil,
		"verification_expires_at": nil,
	})
	if err != nil {
		return nil, err
	}
	user.EmailVerified = true
	user.VerificationCode = nil
	user.VerificationExpiresAt = nil

	s.enqueue(ctx, &queue.EmailJob{
		Kind:          queue.KindWelcome,
		To:            user.EmailAddress(),
		RecipientName: user.DisplayName,
	})

	return s.issue(user)
}

// ResendVerification 重新生成验证码；邮箱不存在或已验证时静默返回
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}

	code, err := generateRandomCode(32)
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(24 * time.Hour)
	err = s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"verification_code":       code,
		"verification_expires_at": expiresAt,
	})
	if err != nil {
		return err
	}

	s.enqueue(ctx, &queue.EmailJob{
		Kind:          queue.KindVerification,
		To:            user.EmailAddress(),
		RecipientName: user.DisplayName,
		Code:          code,
	})
	return nil
}

// GetUserByID 根据 ID 获取用户
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// GetGoogleAuthURL 获取 Google 授权 URL
func (s *AuthService) GetGoogleAuthURL(state string) string {
	return s.google.GetAuthURL(state)
}

// GoogleCallback 处理 Google OAuth 回调
//
// 依次按 google_id、邮箱匹配已有账号，都没有时创建新用户。
func (s *AuthService) GoogleCallback(ctx context.Context, code string) (*dto.LoginResponse, error) {
	token, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange code: %v", ErrOAuthFailed, err)
	}

	gu, err := s.google.GetUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: get user: %v", ErrOAuthFailed, err)
	}

	user, err := s.userRepo.GetByGoogleID(ctx, gu.Sub)
	if err == nil {
		return s.issue(user)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if gu.Email != "" && gu.EmailVerified {
		email := normalizeEmail(gu.Email)
		user, err = s.userRepo.GetByEmail(ctx, email)
		switch {
		case err == nil:
			fields := map[string]interface{}{"google_id": gu.Sub, "email_verified": true}
			if user.AvatarURL == "" && gu.Picture != "" {
				fields["avatar_url"] = gu.Picture
				user.AvatarURL = gu.Picture
			}
			if err := s.userRepo.UpdateFields(ctx, user.ID, fields); err != nil {
				return nil, err
			}
			user.GoogleID = &gu.Sub
			user.EmailVerified = true
			return s.issue(user)
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}

	googleID := gu.Sub
	user = &model.User{
		DisplayName:   displayNameFor(gu),
		GoogleID:      &googleID,
		AvatarURL:     gu.Picture,
		EmailVerified: gu.EmailVerified,
	}
	if gu.Email != "" {
		email := normalizeEmail(gu.Email)
		user.Email = &email
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if user.Email != nil {
		s.enqueue(ctx, &queue.EmailJob{
			Kind:          queue.KindWelcome,
			To:            *user.Email,
			RecipientName: user.DisplayName,
		})
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*dto.LoginResponse, error) {
	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  buildUserInfo(user, true),
	}, nil
}

// enqueue 邮件失败不影响主流程
func (s *AuthService) enqueue(ctx context.Context, job *queue.EmailJob) {
	if s.jobs == nil || job.To == "" {
		return
	}
	if err := s.jobs.Push(ctx, job); err != nil {
		s.log.Warn().Err(err).Str("kind", job.Kind).Msg("failed to enqueue email job")
	}
}

func displayNameFor(gu *oauth.GoogleUser) string {
	if name := strings.TrimSpace(gu.Name); name != "" {
		return name
	}
	if at := strings.Index(gu.Email, "@"); at > 0 {
		return gu.Email[:at]
	}
	return "Revastra user"
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateRandomCode(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
