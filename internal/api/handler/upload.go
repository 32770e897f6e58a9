package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pkg/response"
	"github.com/qs3c/revastra_server/internal/service"
)

// 允许的上传用途，对应 media bucket 下的目录
var uploadPrefixes = map[string]string{
	"review":       "reviews",
	"verification": "verifications",
}

type UploadHandler struct {
	uploadService *service.UploadService
}

func NewUploadHandler(uploadService *service.UploadService) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
	}
}

// Upload 上传评价图或认证材料，返回 URL
// POST /api/v1/uploads?purpose=review|verification
func (h *UploadHandler) Upload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	prefix, ok := uploadPrefixes[c.Query("purpose")]
	if !ok {
		response.ParamError(c, "不支持的上传用途")
		return
	}

	upload, f, ok := formUpload(c, "file")
	if !ok {
		return
	}
	defer f.Close()

	url, err := h.uploadService.UploadMedia(c.Request.Context(), prefix, userID, upload)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "上传成功", dto.UploadResponse{URL: url})
}
