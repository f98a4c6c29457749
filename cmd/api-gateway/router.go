// Package main 是应用程序入口
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/dumeirei/spacer-backend/docs"
	"github.com/dumeirei/spacer-backend/internal/common/cache"
	"github.com/dumeirei/spacer-backend/internal/common/config"
	"github.com/dumeirei/spacer-backend/internal/common/crypto"
	"github.com/dumeirei/spacer-backend/internal/common/jwt"
	"github.com/dumeirei/spacer-backend/internal/common/metrics"
	"github.com/dumeirei/spacer-backend/internal/common/response"
	authHandler "github.com/dumeirei/spacer-backend/internal/handler/auth"
	bookingHandler "github.com/dumeirei/spacer-backend/internal/handler/booking"
	invoiceHandler "github.com/dumeirei/spacer-backend/internal/handler/invoice"
	paymentHandler "github.com/dumeirei/spacer-backend/internal/handler/payment"
	spaceHandler "github.com/dumeirei/spacer-backend/internal/handler/space"
	userHandler "github.com/dumeirei/spacer-backend/internal/handler/user"
	"github.com/dumeirei/spacer-backend/internal/middleware"
	"github.com/dumeirei/spacer-backend/internal/models"
	"github.com/dumeirei/spacer-backend/internal/repository"
	authService "github.com/dumeirei/spacer-backend/internal/service/auth"
	bookingService "github.com/dumeirei/spacer-backend/internal/service/booking"
	"github.com/dumeirei/spacer-backend/internal/service/ledger"
	"github.com/dumeirei/spacer-backend/internal/service/notify"
	spaceService "github.com/dumeirei/spacer-backend/internal/service/space"
	userService "github.com/dumeirei/spacer-backend/internal/service/user"
	"github.com/dumeirei/spacer-backend/pkg/email"
	"github.com/dumeirei/spacer-backend/pkg/oss"
)

// healthPaths 不记录访问日志与追踪的健康检查路径
var healthPaths = []string{"/health", "/ping", "/ready", "/metrics"}

// routerDeps 路由依赖，由 main 构造
type routerDeps struct {
	cfg         *config.Config
	log         *zap.Logger
	db          *gorm.DB
	redisClient *redis.Client
	metrics     *metrics.Metrics // 未启用时为 nil
	sender      email.Sender
	uploader    oss.Uploader
}

// setupRouter 设置路由
func setupRouter(r *gin.Engine, deps *routerDeps) {
	cfg, log, db := deps.cfg, deps.log, deps.db

	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:           cfg.JWT.Secret,
		AccessExpireTime: cfg.JWT.AccessTokenDuration(),
		Issuer:           cfg.JWT.Issuer,
	})
	blacklist := cache.NewTokenBlacklist(deps.redisClient, deps.metrics)

	// 初始化仓储
	userRepo := repository.NewUserRepository(db)
	spaceRepo := repository.NewSpaceRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	// 初始化服务
	notifier := notify.NewDispatcher(deps.sender, log, deps.metrics)
	authSvc := authService.NewAuthService(db, userRepo, crypto.NewHasher(cfg.Crypto.BcryptCost),
		jwtManager, blacklist, notifier, deps.metrics, log)
	userSvc := userService.NewUserService(db, userRepo, log)
	spaceSvc := spaceService.NewSpaceService(db, spaceRepo, deps.uploader, cfg.Business.MaxImageSize, log)
	bookingSvc := bookingService.NewBookingService(db, bookingRepo, spaceRepo, deps.metrics, log)
	ledgerSvc := ledger.NewLedgerService(db, bookingRepo, paymentRepo, invoiceRepo, userRepo,
		notifier, deps.metrics, ledger.Config{InvoiceBaseURL: cfg.Business.InvoiceBaseURL}, log)

	// 初始化处理器
	authH := authHandler.NewHandler(authSvc)
	userH := userHandler.NewHandler(userSvc)
	spaceH := spaceHandler.NewHandler(spaceSvc)
	bookingH := bookingHandler.NewHandler(bookingSvc)
	paymentH := paymentHandler.NewHandler(ledgerSvc)
	invoiceH := invoiceHandler.NewHandler(ledgerSvc)

	// 全局中间件
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing(&middleware.TracingConfig{SkipPaths: healthPaths}))
	if deps.metrics != nil {
		r.Use(deps.metrics.Middleware(cfg.Metrics.Path))
	}
	r.Use(middleware.CORS(&cfg.CORS))
	r.Use(middleware.AccessLog(log))
	if cfg.RateLimit.Enabled {
		r.Use(middleware.IPRateLimit(deps.redisClient, log, cfg.RateLimit.Limit, cfg.RateLimit.WindowDuration()))
	}

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, deps.redisClient))

	if deps.metrics != nil {
		r.GET(cfg.Metrics.Path, deps.metrics.Handler())
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := middleware.Auth(&middleware.AuthConfig{
		JWTManager: jwtManager,
		Revocation: blacklist,
		Actors:     authSvc,
	})

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 公开接口（无需认证）
		v1.POST("/auth/register", authH.Register)
		v1.POST("/auth/login", authH.Login)
		v1.GET("/spaces", spaceH.List)

		// 需要登录
		user := v1.Group("")
		user.Use(auth)
		{
			user.POST("/auth/logout", authH.Logout)
			user.GET("/users/me", authH.GetProfile)
			user.PUT("/users/me", authH.UpdateProfile)

			// 预订
			user.POST("/bookings", bookingH.Create)
			user.GET("/bookings", bookingH.List)
			user.GET("/bookings/:id", bookingH.Get)
			user.PATCH("/bookings/:id/approve", bookingH.Approve)
			user.PATCH("/bookings/:id/decline", bookingH.Decline)
			user.PATCH("/bookings/:id/cancel", bookingH.Cancel)

			// 支付
			user.POST("/payments", paymentH.Create)
			user.GET("/payments", paymentH.List)
			user.GET("/payments/:id", paymentH.Get)
			user.PATCH("/payments/:id/confirm", paymentH.Confirm)
			user.PATCH("/payments/:id/fail", paymentH.Fail)

			// 发票
			user.POST("/invoices", invoiceH.Create)
			user.GET("/invoices", invoiceH.List)
			user.GET("/invoices/:id", invoiceH.Get)
		}

		// 场地管理（所有者、管理员）
		owner := v1.Group("/spaces")
		owner.Use(auth, middleware.RequireRoles(models.RoleOwner, models.RoleAdmin))
		{
			owner.GET("/my", spaceH.ListMine)
			owner.POST("", spaceH.Create)
			owner.PATCH("/:id", spaceH.Update)
			owner.DELETE("/:id", spaceH.Delete)
		}
		v1.GET("/spaces/:id", spaceH.Get)

		// 管理后台
		admin := v1.Group("/admin")
		admin.Use(auth, middleware.RequireAdmin())
		{
			admin.GET("/users", userH.List)
			admin.GET("/users/:id", userH.Get)
			admin.PATCH("/users/:id", userH.Update)
			admin.DELETE("/users/:id", userH.Delete)
		}
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, http.StatusNotFound, "route not found")
	})
}
