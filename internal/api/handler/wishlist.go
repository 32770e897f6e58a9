package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pkg/response"
	"github.com/qs3c/revastra_server/internal/service"
)

type WishlistHandler struct {
	wishlistService *service.WishlistService
}

func NewWishlistHandler(wishlistService *service.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService}
}

// Add 收藏商品
// POST /api/v1/wishlist/:id
func (h *WishlistHandler) Add(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.wishlistService.Add(c.Request.Context(), userID, listingID); err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "收藏成功", nil)
}

// Remove 取消收藏
// DELETE /api/v1/wishlist/:id
func (h *WishlistHandler) Remove(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.wishlistService.Remove(c.Request.Context(), userID, listingID); err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已取消收藏", nil)
}

// List 我的收藏
// GET /api/v1/wishlist
func (h *WishlistHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	items, total, err := h.wishlistService.List(c.Request.Context(), userID, req.Page, req.PageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	page, pageSize := pageOf(req.Page, req.PageSize)
	response.SuccessPage(c, total, page, pageSize, items)
}
