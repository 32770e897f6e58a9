package dto

// UploadResponse 上传结果
type UploadResponse struct {
	URL string `json:"url"`
}
