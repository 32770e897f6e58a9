package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/qs3c/revastra_server/internal/pkg/response"
	"github.com/qs3c/revastra_server/internal/service"
)

type fakeQuota struct {
	allowed map[service.UsageKind]bool
	err     error
}

func (f *fakeQuota) Allows(_ context.Context, _ int64, kind service.UsageKind) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.allowed[kind], nil
}

func TestRequireQuota(t *testing.T) {
	tests := []struct {
		name     string
		checker  *fakeQuota
		kind     service.UsageKind
		auth     bool
		wantCode int
		wantMsg  string
	}{
		{"chat allowed", &fakeQuota{allowed: map[service.UsageKind]bool{service.UsageChat: true}}, service.UsageChat, true, response.CodeSuccess, ""},
		{"chat exhausted", &fakeQuota{}, service.UsageChat, true, response.CodeQuotaExceeded, service.ErrChatLimitReached.Error()},
		{"listing exhausted", &fakeQuota{}, service.UsageListing, true, response.CodeQuotaExceeded, service.ErrListingLimitReached.Error()},
		{"checker error", &fakeQuota{err: errors.New("boom")}, service.UsageChat, true, response.CodeServerError, ""},
		{"not logged in", &fakeQuota{}, service.UsageChat, false, response.CodeAuthFailed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			router := gin.New()
			if tt.auth {
				router.Use(withUser(42))
			}
			router.Use(RequireQuota(tt.checker, tt.kind))
			router.GET("/test", func(c *gin.Context) {
				reached = true
				response.Success(c, nil)
			})

			w := serve(router, "")
			resp := parseResponse(t, w)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantCode == response.CodeSuccess, reached)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp.Message)
			}
		})
	}
}
