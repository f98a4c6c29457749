// Package middleware 提供 HTTP 中间件
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/spacer-backend/internal/common/config"
	"github.com/dumeirei/spacer-backend/internal/common/utils"
)

// CORS 跨域中间件
func CORS(cfg *config.CORSConfig) gin.HandlerFunc {
	return cors.New(corsConfig(cfg))
}

// corsConfig 将应用配置转换为 gin-contrib/cors 配置
func corsConfig(cfg *config.CORSConfig) cors.Config {
	c := cors.DefaultConfig()
	if cfg == nil {
		c.AllowAllOrigins = true
		return c
	}

	if len(cfg.AllowedOrigins) == 0 || utils.Contains(cfg.AllowedOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	if len(cfg.AllowedMethods) > 0 {
		c.AllowMethods = cfg.AllowedMethods
	}
	if len(cfg.AllowedHeaders) > 0 {
		c.AllowHeaders = cfg.AllowedHeaders
	}
	c.ExposeHeaders = cfg.ExposedHeaders
	c.AllowCredentials = cfg.AllowCredentials && !c.AllowAllOrigins
	if cfg.MaxAge > 0 {
		c.MaxAge = time.Duration(cfg.MaxAge) * time.Second
	}
	return c
}
