// Package storage 对象存储：商品/头像/评价图片一个 bucket，聊天图片一个 bucket。
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/qs3c/revastra_server/config"
)

// Bucket 一个逻辑 bucket，上传后同步返回公开 URL
type Bucket interface {
	Name() string
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	// Ping 检查 bucket 是否可访问
	Ping(ctx context.Context) error
}

// Buckets 两个逻辑 bucket
type Buckets struct {
	Media Bucket
	Chat  Bucket
}

// New 按 driver 创建两个 bucket
func New(ctx context.Context, cfg *config.StorageConfig) (*Buckets, error) {
	switch cfg.Driver {
	case "oss":
		media, err := NewOSSBucket(&cfg.OSS, cfg.MediaBucket, cfg.CDNDomain)
		if err != nil {
			return nil, err
		}
		chat, err := NewOSSBucket(&cfg.OSS, cfg.ChatBucket, "")
		if err != nil {
			return nil, err
		}
		return &Buckets{Media: media, Chat: chat}, nil
	case "s3":
		media, err := NewS3Bucket(ctx, &cfg.S3, cfg.MediaBucket)
		if err != nil {
			return nil, err
		}
		chat, err := NewS3Bucket(ctx, &cfg.S3, cfg.ChatBucket)
		if err != nil {
			return nil, err
		}
		return &Buckets{Media: media, Chat: chat}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ObjectKey 生成 prefix/owner/uuid.ext 形式的对象路径
func ObjectKey(prefix string, ownerID int64, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%d/%s%s", prefix, ownerID, uuid.NewString(), ext)
}

// ContentType 根据扩展名获取 Content-Type
func ContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
