package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/revastra_server/internal/pkg/response"
	"github.com/qs3c/revastra_server/internal/service"
)

// QuotaChecker 额度判断
type QuotaChecker interface {
	Allows(ctx context.Context, userID int64, kind service.UsageKind) (bool, error)
}

// RequireQuota 额度预检，给前端一个早失败
//
// 只读判断；实际扣减在服务层事务里原子完成。
func RequireQuota(checker QuotaChecker, kind service.UsageKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		allowed, err := checker.Allows(c.Request.Context(), userID, kind)
		if err != nil {
			response.ServerError(c, "额度检查失败")
			c.Abort()
			return
		}

		if !allowed {
			msg := service.ErrChatLimitReached.Error()
			if kind == service.UsageListing {
				msg = service.ErrListingLimitReached.Error()
			}
			response.QuotaError(c, msg)
			c.Abort()
			return
		}

		c.Next()
	}
}
