package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pkg/response"
	"github.com/qs3c/revastra_server/internal/service"
)

type PassHandler struct {
	passService  *service.PassService
	usageService *service.UsageService
}

func NewPassHandler(passService *service.PassService, usageService *service.UsageService) *PassHandler {
	return &PassHandler{
		passService:  passService,
		usageService: usageService,
	}
}

// Catalogue 通行证目录
// GET /api/v1/passes
func (h *PassHandler) Catalogue(c *gin.Context) {
	response.Success(c, h.passService.Catalogue())
}

// Current 当前通行证
// GET /api/v1/passes/current
func (h *PassHandler) Current(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	current, err := h.passService.Current(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, current)
}

// CheckPurchase 购买预检
// GET /api/v1/passes/can-purchase?pass_type=
func (h *PassHandler) CheckPurchase(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	target := c.Query("pass_type")
	if target == "" {
		response.ParamError(c, "请指定通行证类型")
		return
	}

	result, err := h.passService.CheckPurchase(c.Request.Context(), userID, target)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// CreateOrder 付费通行证下单
// POST /api/v1/passes/orders
func (h *PassHandler) CreateOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	order, err := h.passService.CreateOrder(c.Request.Context(), userID, req.PassType)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, order)
}

// Purchase 购买通行证
// POST /api/v1/passes/purchase
func (h *PassHandler) Purchase(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.PurchasePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	current, err := h.passService.Purchase(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "通行证已激活", current)
}

// History 购买记录
// GET /api/v1/passes/history
func (h *PassHandler) History(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	history, err := h.passService.History(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, history)
}

// Usage 额度用量
// GET /api/v1/user/usage
func (h *PassHandler) Usage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	usage, err := h.usageService.GetUsage(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, usage)
}
