package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pkg/response"
	"github.com/qs3c/revastra_server/internal/service"
)

type ReviewHandler struct {
	reviewService *service.ReviewService
}

func NewReviewHandler(reviewService *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// Create 提交评价，字段校验在服务层完成
// POST /api/v1/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	review, err := h.reviewService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "评价成功", reviewItems([]*model.SellerReview{review})[0])
}

// Summary 卖家评分汇总
// GET /api/v1/sellers/:id/rating
func (h *ReviewHandler) Summary(c *gin.Context) {
	sellerID, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := h.reviewService.Summary(c.Request.Context(), sellerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, summary)
}
