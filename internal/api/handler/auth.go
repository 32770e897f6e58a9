package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pkg/response"
	"github.com/qs3c/revastra_server/internal/service"
)

// OAuthStates OAuth state 存取
type OAuthStates interface {
	GenerateState(ctx context.Context, redirectURI string) (string, error)
	ValidateState(ctx context.Context, state string) (string, error)
}

type AuthHandler struct {
	authService *service.AuthService
	states      OAuthStates
}

func NewAuthHandler(authService *service.AuthService, states OAuthStates) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		states:      states,
	}
}

// Register 用户注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "注册成功，请查收验证邮件", resp)
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "登录成功", resp)
}

// VerifyEmail 验证邮箱
// POST /api/v1/auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.VerifyEmail(c.Request.Context(), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "邮箱验证成功", resp)
}

// ResendVerification 重发验证码；邮箱不存在时同样返回成功
// POST /api/v1/auth/resend-verification
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req dto.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "如果邮箱已注册，验证码已发送", nil)
}

// GoogleAuth 获取 Google 授权地址
// GET /api/v1/auth/google?redirect=
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	state, err := h.states.GenerateState(c.Request.Context(), c.Query("redirect"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"url": h.authService.GetGoogleAuthURL(state)})
}

// GoogleCallback Google 回调，返回 token 和登录前保存的跳转地址
// GET /api/v1/auth/google/callback?code=&state=
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	var req dto.OAuthCallbackRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	redirect, err := h.states.ValidateState(c.Request.Context(), req.State)
	if err != nil {
		response.AuthError(c, "登录状态无效或已过期")
		return
	}

	resp, err := h.authService.GoogleCallback(c.Request.Context(), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "登录成功", gin.H{
		"token":    resp.Token,
		"user":     resp.User,
		"redirect": redirect,
	})
}
