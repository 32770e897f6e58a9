package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/revastra_server/internal/api/middleware"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pkg/response"
	"github.com/qs3c/revastra_server/internal/service"
)

type UserHandler struct {
	userService   *service.UserService
	reviewService *service.ReviewService
}

func NewUserHandler(userService *service.UserService, reviewService *service.ReviewService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		reviewService: reviewService,
	}
}

// GetProfile 获取当前用户信息
// GET /api/v1/user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, profile)
}

// UpdateProfile 更新用户信息
// PUT /api/v1/user/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", profile)
}

// UploadAvatar 上传头像
// POST /api/v1/user/avatar
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	upload, f, ok := formUpload(c, "file")
	if !ok {
		return
	}
	defer f.Close()

	avatarURL, err := h.userService.UploadAvatar(c.Request.Context(), userID, upload)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "上传成功", gin.H{
		"avatar_url": avatarURL,
	})
}

// GetSession 刷新会话：用户、通行证、权益、用量、管理员标记
// GET /api/v1/me/session
func (h *UserHandler) GetSession(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	response.Success(c, middleware.GetSession(c).Info())
}

// GetSeller 公开卖家主页
// GET /api/v1/sellers/:id
func (h *UserHandler) GetSeller(c *gin.Context) {
	sellerID, ok := pathID(c, "id")
	if !ok {
		return
	}

	profile, err := h.userService.GetSellerProfile(c.Request.Context(), sellerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, profile)
}

// ListSellerReviews 卖家收到的评价
// GET /api/v1/sellers/:id/reviews
func (h *UserHandler) ListSellerReviews(c *gin.Context) {
	sellerID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	reviews, total, err := h.reviewService.ListBySeller(c.Request.Context(), sellerID, req.Page, req.PageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	page, pageSize := pageOf(req.Page, req.PageSize)
	response.SuccessPage(c, total, page, pageSize, reviewItems(reviews))
}
