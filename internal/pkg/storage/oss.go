package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/qs3c/revastra_server/config"
)

// OSSBucket 阿里云 OSS
type OSSBucket struct {
	client     *oss.Client
	bucket     *oss.Bucket
	bucketName string
	cdnDomain  string
}

func NewOSSBucket(cfg *config.OSSConfig, bucketName, cdnDomain string) (*OSSBucket, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &OSSBucket{
		client:     client,
		bucket:     bucket,
		bucketName: bucketName,
		cdnDomain:  cdnDomain,
	}, nil
}

func (b *OSSBucket) Name() string {
	return b.bucketName
}

// Upload 上传对象并返回访问 URL
func (b *OSSBucket) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	err := b.bucket.PutObject(key, r, oss.ContentType(contentType), oss.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return b.URL(key), nil
}

// Delete 删除文件
func (b *OSSBucket) Delete(ctx context.Context, key string) error {
	if err := b.bucket.DeleteObject(key, oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (b *OSSBucket) Ping(ctx context.Context) error {
	ok, err := b.client.IsBucketExist(b.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", b.bucketName)
	}
	return ctx.Err()
}

// URL 获取文件访问 URL
func (b *OSSBucket) URL(key string) string {
	if b.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", b.cdnDomain, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", b.bucketName, b.client.Config.Endpoint, key)
}
