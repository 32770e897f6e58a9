package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/revastra_server/config"
	"github.com/qs3c/revastra_server/internal/pkg/storage"
)

func newUploadService() (*UploadService, *storage.MemoryBucket, *storage.MemoryBucket) {
	media := storage.NewMemoryBucket("media")
	chat := storage.NewMemoryBucket("chat")
	svc := NewUploadService(&storage.Buckets{Media: media, Chat: chat}, &config.UploadConfig{
		MaxSize:           1024,
		AllowedExtensions: []string{".jpg", ".png"},
	})
	return svc, media, chat
}

func TestUploadService_Validate(t *testing.T) {
	svc, _, _ := newUploadService()

	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  error
	}{
		{"valid jpg", "photo.jpg", 100, nil},
		{"upper case ext", "PHOTO.PNG", 100, nil},
		{"empty", "photo.jpg", 0, ErrEmptyFile},
		{"too large", "photo.jpg", 2048, ErrFileTooLarge},
		{"bad ext", "photo.gif", 100, ErrInvalidFormat},
		{"no ext", "photo", 100, ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Validate(tt.filename, tt.size)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestUploadService_Buckets(t *testing.T) {
	svc, media, chat := newUploadService()
	ctx := context.Background()

	url, err := svc.UploadMedia(ctx, "reviews", 7, &FileUpload{Filename: "a.jpg", Size: 3, Reader: strings.NewReader("abc")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "memory://media/reviews/7/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))
	assert.Equal(t, 1, media.Len())

	url, err = svc.UploadChat(ctx, 42, &FileUpload{Filename: "b.png", Size: 3, Reader: strings.NewReader("def")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "memory://chat/conversations/42/"))
	assert.Equal(t, 1, chat.Len())
}

func TestUploadService_BucketFailure(t *testing.T) {
	svc, media, _ := newUploadService()
	media.FailUploads = true

	_, err := svc.UploadMedia(context.Background(), "avatars", 1, &FileUpload{Filename: "a.jpg", Size: 3, Reader: strings.NewReader("abc")})
	assert.Error(t, err)
}
