package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// MemoryBucket 内存实现，用于测试和本地开发
type MemoryBucket struct {
	name    string
	mu      sync.Mutex
	objects map[string][]byte
	// FailUploads 为 true 时上传返回错误
	FailUploads bool
}

func NewMemoryBucket(name string) *MemoryBucket {
	return &MemoryBucket{name: name, objects: make(map[string][]byte)}
}

func (b *MemoryBucket) Name() string {
	return b.name
}

func (b *MemoryBucket) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if b.FailUploads {
		return "", errors.New("upload failed")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	b.objects[key] = data
	b.mu.Unlock()

	return b.URL(key), nil
}

func (b *MemoryBucket) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	delete(b.objects, key)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBucket) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (b *MemoryBucket) URL(key string) string {
	return fmt.Sprintf("memory://%s/%s", b.name, key)
}

// Object 读取已上传对象
func (b *MemoryBucket) Object(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	return data, ok
}

// Len 对象数量
func (b *MemoryBucket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}
