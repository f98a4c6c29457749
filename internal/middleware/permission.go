// Package middleware 提供 HTTP 中间件
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/spacer-backend/internal/common/errors"
	"github.com/dumeirei/spacer-backend/internal/common/response"
	"github.com/dumeirei/spacer-backend/internal/service/access"
)

// RequireRoles 要求操作者具有任一角色
// 必须挂在 Auth 之后
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}

		if !access.HasRole(actor, roles...) {
			abortWithError(c, errors.ErrPermissionDenied)
			return
		}

		c.Next()
	}
}

// RequireAdmin 仅管理员
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(access.RoleAdmin)
}
