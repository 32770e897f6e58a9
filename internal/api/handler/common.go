package handler

import (
	"errors"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/revastra_server/internal/api/middleware"
	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pkg/response"
	"github.com/qs3c/revastra_server/internal/service"
)

// 业务错误到响应码的映射，按顺序匹配
var errorCodes = []struct {
	err  error
	code int
}{
	// 参数
	{service.ErrInvalidListingInput, response.CodeParamError},
	{service.ErrListingNeedsImage, response.CodeParamError},
	{service.ErrTooManyImages, response.CodeParamError},
	{service.ErrFileTooLarge, response.CodeParamError},
	{service.ErrInvalidFormat, response.CodeParamError},
	{service.ErrEmptyFile, response.CodeParamError},
	{service.ErrEmptyMessage, response.CodeParamError},
	{service.ErrMessageTooLong, response.CodeParamError},
	{service.ErrChatWithSelf, response.CodeParamError},
	{service.ErrListingSellerMismatch, response.CodeParamError},
	{service.ErrInvalidReview, response.CodeParamError},
	{service.ErrSelfReview, response.CodeParamError},
	{service.ErrInvalidVerifyCode, response.CodeParamError},
	{service.ErrUnknownPass, response.CodeParamError},
	{service.ErrRejectReasonRequired, response.CodeParamError},
	{service.ErrInvalidStatusFilter, response.CodeParamError},

	// 认证
	{service.ErrInvalidCredentials, response.CodeAuthFailed},
	{service.ErrEmailNotVerified, response.CodeAuthFailed},
	{service.ErrOAuthFailed, response.CodeAuthFailed},

	// 权限
	{service.ErrForbidden, response.CodePermissionDenied},
	{service.ErrNotAdmin, response.CodePermissionDenied},

	// 不存在
	{service.ErrUserNotFound, response.CodeResourceNotFound},
	{service.ErrListingNotFound, response.CodeResourceNotFound},
	{service.ErrConversationNotFound, response.CodeResourceNotFound},
	{service.ErrVerificationNotFound, response.CodeResourceNotFound},
	{service.ErrNotInWishlist, response.CodeResourceNotFound},

	// 额度
	{service.ErrChatLimitReached, response.CodeQuotaExceeded},
	{service.ErrListingLimitReached, response.CodeQuotaExceeded},

	// 重复
	{service.ErrEmailExists, response.CodeDuplicateAction},
	{service.ErrReviewExists, response.CodeDuplicateAction},
	{service.ErrAlreadyInWishlist, response.CodeDuplicateAction},
	{service.ErrAlreadyVerified, response.CodeDuplicateAction},
	{service.ErrVerificationPending, response.CodeDuplicateAction},

	// 状态冲突
	{service.ErrPurchaseDenied, response.CodeConflict},
	{service.ErrInvalidTransition, response.CodeConflict},
	{service.ErrListingNotEditable, response.CodeConflict},
	{service.ErrListingNotPending, response.CodeConflict},
	{service.ErrVerificationDecided, response.CodeConflict},

	// 支付
	{service.ErrPaymentRequired, response.CodePaymentRequired},
}

// writeError 把业务错误写成统一响应，未知错误记日志并返回 5000
func writeError(c *gin.Context, err error) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			response.Error(c, e.code, err.Error())
			return
		}
	}
	_ = c.Error(err)
	response.ServerError(c, "")
}

// currentUser 取当前登录用户，未登录时直接写认证错误
func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return 0, false
	}
	return userID, true
}

// pathID 解析路径里的数字 ID
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "无效的 "+name)
		return 0, false
	}
	return id, true
}

// formUpload 读取 multipart 文件，调用方负责 Close
func formUpload(c *gin.Context, field string) (*service.FileUpload, multipart.File, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		response.ParamError(c, "请选择文件")
		return nil, nil, false
	}
	f, err := header.Open()
	if err != nil {
		response.ServerError(c, "文件读取失败")
		return nil, nil, false
	}
	return &service.FileUpload{Filename: header.Filename, Size: header.Size, Reader: f}, f, true
}

func pageOf(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}

func userBrief(u *model.User) *dto.UserBrief {
	if u == nil {
		return nil
	}
	return &dto.UserBrief{ID: u.ID, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
}

func listingCards(listings []*model.Listing) []*dto.ListingCard {
	cards := make([]*dto.ListingCard, 0, len(listings))
	for _, l := range listings {
		card := &dto.ListingCard{
			ID:         l.ID,
			Title:      l.Title,
			Price:      l.Price,
			Category:   l.Category,
			Condition:  l.Condition,
			Size:       l.Size,
			City:       l.City,
			Status:     string(l.Status),
			IsPriority: l.IsPriority,
			Seller:     userBrief(l.Seller),
		}
		if len(l.Images) > 0 {
			card.Image = l.Images[0]
		}
		if l.PublishedAt != nil {
			card.PublishedAt = l.PublishedAt.Format(time.RFC3339)
		}
		cards = append(cards, card)
	}
	return cards
}

func reviewItems(reviews []*model.SellerReview) []*dto.ReviewItem {
	items := make([]*dto.ReviewItem, 0, len(reviews))
	for _, r := range reviews {
		images := make([]string, 0, len(r.Images))
		for _, img := range r.Images {
			images = append(images, img.ImageURL)
		}
		items = append(items, &dto.ReviewItem{
			ID:         r.ID,
			ListingID:  r.ListingID,
			Rating:     r.Rating,
			ReviewText: r.ReviewText,
			Images:     images,
			Reviewer:   userBrief(r.Reviewer),
			CreatedAt:  r.CreatedAt.Format(time.RFC3339),
		})
	}
	return items
}
