// Package handler 提供 API Handler 的通用辅助函数
// 用于减少 Handler 层的代码重复，统一错误处理、认证检查、参数解析等操作
package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/spacer-backend/internal/common/errors"
	"github.com/dumeirei/spacer-backend/internal/common/response"
	"github.com/dumeirei/spacer-backend/internal/common/utils"
	"github.com/dumeirei/spacer-backend/internal/middleware"
	"github.com/dumeirei/spacer-backend/internal/service/access"
)

// ============================================================================
// 统一错误处理
// ============================================================================

// HandleError 处理错误并发送适当的响应
// 如果 err 为 nil，返回 false（表示无错误需要处理）
// 如果 err 不为 nil，按错误类别映射 HTTP 状态码并返回 true（调用方应该 return）
//
// 使用示例:
//
//	result, err := service.DoSomething(ctx)
//	if handler.HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.IsAppError(err) {
		appErr := errors.GetAppError(err)
		if appErr.Err != nil {
			_ = c.Error(appErr.Err)
		}
		response.Error(c, appErr.Kind.HTTPStatus(), appErr.Code, appErr.Message)
		return true
	}
	// 非业务错误不向客户端暴露细节
	_ = c.Error(err)
	response.InternalError(c, "")
	return true
}

// MustSucceed 如果有错误则返回错误响应，否则返回成功响应
// 调用 MustSucceed 后必须 return
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustCreate 创建类接口，成功返回 201
func MustCreate(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Created(c, data)
}

// MustSucceedWithMessage 带自定义成功消息
func MustSucceedWithMessage(c *gin.Context, err error, message string, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.SuccessWithMessage(c, message, data)
}

// MustSucceedPage 分页响应版本
//
// 使用示例:
//
//	list, total, err := service.List(ctx, actor, p.GetOffset(), p.GetLimit())
//	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
//	return
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// ============================================================================
// 用户认证检查
// ============================================================================

// RequireActor 获取当前请求的操作者，未登录时返回 401
//
// 使用示例:
//
//	actor, ok := handler.RequireActor(c)
//	if !ok {
//	    return
//	}
func RequireActor(c *gin.Context) (access.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return access.Actor{}, false
	}
	return actor, true
}

// ============================================================================
// ID 参数解析
// ============================================================================

// ParseID 解析路径参数 "id" 为 int64
// 解析失败时已发送 400 响应，调用方应该 return
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析指定路径参数为正整数 ID
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+resourceName+" id")
		return 0, false
	}
	return id, true
}

// RequireActorAndParseID 组合：检查登录 + 解析 ID 参数
func RequireActorAndParseID(c *gin.Context, resourceName string) (access.Actor, int64, bool) {
	actor, ok := RequireActor(c)
	if !ok {
		return access.Actor{}, 0, false
	}
	id, ok := ParseID(c, resourceName)
	if !ok {
		return access.Actor{}, 0, false
	}
	return actor, id, true
}

// ============================================================================
// 时间解析辅助
// ============================================================================

// 时间格式常量
const (
	DateTimeFormatISO  = time.RFC3339
	DateTimeFormatISO2 = "2006-01-02T15:04:05"
	DateTimeFormat     = "2006-01-02 15:04:05"
	DateTimeFormatMin  = "2006-01-02T15:04"
)

var dateTimeFormats = []string{
	DateTimeFormatISO,
	DateTimeFormatISO2,
	DateTimeFormat,
	DateTimeFormatMin,
}

// ParseDateTime 解析日期时间字符串，支持多种格式
// 不带时区的格式按 UTC 处理
func ParseDateTime(s string) (time.Time, error) {
	for _, format := range dateTimeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.ErrInvalidDateTime.WithMessage("invalid datetime format: " + s)
}

// ============================================================================
// 分页处理
// ============================================================================

// BindPagination 从查询参数绑定并规范化分页参数
// 默认 page=1, page_size=10, 最大 page_size=100
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	p.Normalize()
	return p
}
