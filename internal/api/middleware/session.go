package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/revastra_server/internal/pkg/response"
	"github.com/qs3c/revastra_server/internal/service"
)

const SessionKey = "session"

// SessionLoader 按用户加载会话
type SessionLoader interface {
	Load(ctx context.Context, userID int64) (*service.Session, error)
}

// Session 为已登录用户加载会话，未登录时放入匿名会话
//
// 需要放在 Auth 或 OptionalAuth 之后。
func Session(loader SessionLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			c.Set(SessionKey, service.Anonymous())
			c.Next()
			return
		}

		session, err := loader.Load(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				response.AuthError(c, "用户不存在")
			} else {
				response.ServerError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(SessionKey, session)
		c.Next()
	}
}

// GetSession 取出当前请求的会话，没有时返回匿名会话
func GetSession(c *gin.Context) *service.Session {
	if v, ok := c.Get(SessionKey); ok {
		if s, ok := v.(*service.Session); ok {
			return s
		}
	}
	return service.Anonymous()
}

// RequireAdmin 管理员权限检查，需要放在 Session 之后
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetSession(c).IsAdmin {
			response.PermissionError(c, "需要管理员权限")
			c.Abort()
			return
		}
		c.Next()
	}
}
