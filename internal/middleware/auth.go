// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/spacer-backend/internal/common/errors"
	"github.com/dumeirei/spacer-backend/internal/common/jwt"
	"github.com/dumeirei/spacer-backend/internal/common/response"
	"github.com/dumeirei/spacer-backend/internal/service/access"
)

// RevocationChecker 令牌吊销检查
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ActorLoader 按用户 ID 加载操作者
type ActorLoader interface {
	LoadActor(ctx context.Context, userID int64) (access.Actor, error)
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTManager *jwt.Manager
	Revocation RevocationChecker
	Actors     ActorLoader
}

// 上下文键
const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
	ContextKeyActor  = "actor"
	ContextKeyClaims = "claims"
	ContextKeyToken  = "token"
)

// Auth 认证中间件
// 校验令牌签名与有效期，检查吊销名单，再从存储加载用户并以存储中的角色为准
func Auth(config *AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}

		claims, err := config.JWTManager.ParseToken(token)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				abortWithError(c, errors.ErrTokenExpired)
			} else {
				abortWithError(c, errors.ErrTokenInvalid)
			}
			return
		}

		ctx := c.Request.Context()

		if config.Revocation != nil {
			revoked, err := config.Revocation.IsRevoked(ctx, claims.ID)
			if err != nil {
				_ = c.Error(err)
				response.InternalError(c, "")
				c.Abort()
				return
			}
			if revoked {
				abortWithError(c, errors.ErrTokenRevoked)
				return
			}
		}

		actor := access.Actor{ID: claims.UserID, Role: claims.Role}
		if config.Actors != nil {
			actor, err = config.Actors.LoadActor(ctx, claims.UserID)
			if err != nil {
				// 用户已删除视为令牌失效
				if errors.IsKind(err, errors.KindNotFound) {
					abortWithError(c, errors.ErrTokenInvalid)
				} else {
					_ = c.Error(err)
					response.InternalError(c, "")
					c.Abort()
				}
				return
			}
		}

		c.Set(ContextKeyUserID, actor.ID)
		c.Set(ContextKeyRole, actor.Role)
		c.Set(ContextKeyActor, actor)
		c.Set(ContextKeyClaims, claims)
		c.Set(ContextKeyToken, token)

		c.Next()
	}
}

// extractToken 从 Authorization 头提取 Bearer 令牌
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// GetActor 从上下文获取操作者
func GetActor(c *gin.Context) (access.Actor, bool) {
	v, exists := c.Get(ContextKeyActor)
	if !exists {
		return access.Actor{}, false
	}
	actor, ok := v.(access.Actor)
	return actor, ok
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) int64 {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0
	}
	return userID.(int64)
}

// GetRole 从上下文获取角色
func GetRole(c *gin.Context) string {
	role, exists := c.Get(ContextKeyRole)
	if !exists {
		return ""
	}
	return role.(string)
}

// GetClaims 从上下文获取完整的 Claims
func GetClaims(c *gin.Context) *jwt.Claims {
	claims, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	return claims.(*jwt.Claims)
}
