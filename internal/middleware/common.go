// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dumeirei/spacer-backend/internal/common/errors"
	"github.com/dumeirei/spacer-backend/internal/common/logger"
	"github.com/dumeirei/spacer-backend/internal/common/response"
)

// 请求 ID 的上下文键与请求头
const (
	ContextKeyRequestID = "request_id"
	HeaderRequestID     = "X-Request-ID"

	maxRequestIDLength = 64
)

type requestIDCtxKey struct{}

// RequestID 透传或生成请求 ID，写入 gin 上下文、请求 context 与响应头
// 客户端传入的 ID 不合法时重新生成，避免污染日志
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		c.Set(ContextKeyRequestID, id)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), id))
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// WithRequestID 将请求 ID 挂到 context 上，供服务层日志使用
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey{}, id)
}

// RequestIDFrom 从 context 取请求 ID
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}

// GetRequestID 获取请求 ID
func GetRequestID(c *gin.Context) string {
	if id := c.GetString(ContextKeyRequestID); id != "" {
		return id
	}
	return RequestIDFrom(c.Request.Context())
}

// Recovery 捕获 panic，记录堆栈并返回统一的 500 响应
// 客户端断开导致的写失败由 gin 处理，不会进入这里
func Recovery(log *zap.Logger) gin.HandlerFunc {
	log = logger.OrNop(log).With(logger.Module("recovery"))
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		log.Error("Panic recovered",
			logger.RequestID(GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("uri", c.Request.URL.RequestURI()),
			zap.Any("error", recovered),
			zap.Stack("stack"),
		)

		response.InternalError(c, "")
		c.Abort()
	})
}

// SecureHeaders 安全头中间件
func SecureHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		c.Next()
	}
}

// RequestSizeLimiter 请求大小限制中间件
func RequestSizeLimiter(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			response.BadRequest(c, fmt.Sprintf("request body too large, max %d bytes", maxSize))
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// abortWithError 按应用错误写响应并中止
func abortWithError(c *gin.Context, appErr *errors.AppError) {
	response.Error(c, appErr.Kind.HTTPStatus(), appErr.Code, appErr.Message)
	c.Abort()
}
