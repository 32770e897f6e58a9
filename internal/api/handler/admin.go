package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pkg/response"
	"github.com/qs3c/revastra_server/internal/service"
)

// AdminHandler 后台接口，路由层已经做过管理员校验
type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// PendingListings 待审核商品
// GET /api/v1/admin/listings/pending
func (h *AdminHandler) PendingListings(c *gin.Context) {
	var req dto.AdminListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	listings, total, err := h.adminService.ListPendingListings(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	page, pageSize := pageOf(req.Page, req.PageSize)
	response.SuccessPage(c, total, page, pageSize, listings)
}

// ApproveListing 审核通过
// POST /api/v1/admin/listings/:id/approve
func (h *AdminHandler) ApproveListing(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.ApproveListing(c.Request.Context(), adminID, listingID); err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已通过", nil)
}

// RejectListing 驳回商品
// POST /api/v1/admin/listings/:id/reject
func (h *AdminHandler) RejectListing(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.adminService.RejectListing(c.Request.Context(), adminID, listingID, req.Reason); err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已驳回", nil)
}

// Verifications 认证申请列表
// GET /api/v1/admin/verifications?status=
func (h *AdminHandler) Verifications(c *gin.Context) {
	var req dto.AdminListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	items, total, err := h.adminService.ListVerifications(c.Request.Context(), req.Status, req.Page, req.PageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	page, pageSize := pageOf(req.Page, req.PageSize)
	response.SuccessPage(c, total, page, pageSize, items)
}

// DecideVerification 审核认证申请
// POST /api/v1/admin/verifications/:id/decide
func (h *AdminHandler) DecideVerification(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.VerificationDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.adminService.DecideVerification(c.Request.Context(), adminID, requestID, &req); err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已处理", nil)
}

// Stats 平台统计
// GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, stats)
}
