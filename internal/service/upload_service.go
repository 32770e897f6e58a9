package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/qs3c/revastra_server/config"
	"github.com/qs3c/revastra_server/internal/pkg/storage"
)

var (
	ErrFileTooLarge  = errors.New("文件过大")
	ErrInvalidFormat = errors.New("不支持的文件格式")
	ErrEmptyFile     = errors.New("文件为空")
)

// FileUpload 待上传的文件
type FileUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// UploadService 图片上传：校验后写入对应 bucket，返回公开 URL
type UploadService struct {
	media storage.Bucket
	chat  storage.Bucket
	cfg   *config.UploadConfig
}

func NewUploadService(buckets *storage.Buckets, cfg *config.UploadConfig) *UploadService {
	return &UploadService{
		media: buckets.Media,
		chat:  buckets.Chat,
		cfg:   cfg,
	}
}

// Validate 检查文件大小和扩展名
func (s *UploadService) Validate(filename string, size int64) error {
	if size <= 0 {
		return ErrEmptyFile
	}
	if s.cfg.MaxSize > 0 && size > s.cfg.MaxSize {
		return ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range s.cfg.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}
	return ErrInvalidFormat
}

// UploadMedia 上传商品图、头像、评价图
func (s *UploadService) UploadMedia(ctx context.Context, prefix string, ownerID int64, f *FileUpload) (string, error) {
	return s.upload(ctx, s.media, prefix, ownerID, f)
}

// UploadChat 上传聊天图片，按会话归档
func (s *UploadService) UploadChat(ctx context.Context, conversationID int64, f *FileUpload) (string, error) {
	return s.upload(ctx, s.chat, "conversations", conversationID, f)
}

func (s *UploadService) upload(ctx context.Context, bucket storage.Bucket, prefix string, ownerID int64, f *FileUpload) (string, error) {
	if err := s.Validate(f.Filename, f.Size); err != nil {
		return "", err
	}

	key := storage.ObjectKey(prefix, ownerID, f.Filename)
	contentType := storage.ContentType(filepath.Ext(f.Filename))
	return bucket.Upload(ctx, key, f.Reader, f.Size, contentType)
}
