package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/revastra_server/internal/api/middleware"
	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pkg/response"
	"github.com/qs3c/revastra_server/internal/service"
)

type ListingHandler struct {
	listingService *service.ListingService
}

func NewListingHandler(listingService *service.ListingService) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
	}
}

// Browse 公开商品列表
// GET /api/v1/listings
func (h *ListingHandler) Browse(c *gin.Context) {
	var req dto.ListingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	listings, total, err := h.listingService.Browse(c.Request.Context(), middleware.GetSession(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	page, pageSize := pageOf(req.Page, req.PageSize)
	response.SuccessPage(c, total, page, pageSize, listingCards(listings))
}

// Get 商品详情
// GET /api/v1/listings/:id
func (h *ListingHandler) Get(c *gin.Context) {
	listingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.listingService.Get(c.Request.Context(), middleware.GetSession(c), listingID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, detail)
}

// Create 发布商品
// POST /api/v1/listings
func (h *ListingHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	listing, err := h.listingService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "发布成功", listing)
}

// Update 编辑商品
// PUT /api/v1/listings/:id
func (h *ListingHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	listing, err := h.listingService.Update(c.Request.Context(), userID, listingID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", listing)
}

// UpdateStatus 上架、标记售出、撤回草稿
// PUT /api/v1/listings/:id/status
func (h *ListingHandler) UpdateStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	listing, err := h.listingService.ChangeStatus(c.Request.Context(), userID, listingID, model.ListingStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, listing)
}

// Delete 删除商品（软删除，不返还额度）
// DELETE /api/v1/listings/:id
func (h *ListingHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.listingService.Delete(c.Request.Context(), userID, listingID); err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// ListMine 我发布的商品
// GET /api/v1/user/listings
func (h *ListingHandler) ListMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.ListMineRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	listings, total, err := h.listingService.ListMine(c.Request.Context(), userID, req.Status, req.Page, req.PageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	page, pageSize := pageOf(req.Page, req.PageSize)
	response.SuccessPage(c, total, page, pageSize, listings)
}

// UploadImage 上传商品图片，返回 URL 供创建/编辑时引用
// POST /api/v1/listings/images
func (h *ListingHandler) UploadImage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	upload, f, ok := formUpload(c, "file")
	if !ok {
		return
	}
	defer f.Close()

	url, err := h.listingService.UploadImage(c.Request.Context(), userID, upload)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "上传成功", dto.UploadResponse{URL: url})
}
