// Package main 是应用程序入口
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dumeirei/spacer-backend/internal/common/cache"
	"github.com/dumeirei/spacer-backend/internal/common/config"
	"github.com/dumeirei/spacer-backend/internal/common/database"
	"github.com/dumeirei/spacer-backend/internal/common/logger"
	"github.com/dumeirei/spacer-backend/internal/common/metrics"
	"github.com/dumeirei/spacer-backend/internal/common/tracing"
	"github.com/dumeirei/spacer-backend/internal/models"
	"github.com/dumeirei/spacer-backend/pkg/email"
	"github.com/dumeirei/spacer-backend/pkg/oss"
)

// Version 构建版本，可通过 -ldflags 注入
var Version = "1.0.0"

func main() {
	// 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	log, err := logger.New(&cfg.Logger)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting Spacer Backend",
		zap.String("version", Version),
		zap.String("env", cfg.Server.Mode),
	)

	ctx := context.Background()

	// 初始化追踪
	tp, err := tracing.Init(ctx, &cfg.Tracing, Version, cfg.Server.Mode)
	if err != nil {
		log.Fatal("Failed to init tracing", zap.Error(err))
	}

	// 初始化监控
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	// 初始化数据库连接
	db, err := database.Open(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, models.All()...); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	if m != nil {
		if err := database.RegisterQueryObserver(db, m); err != nil {
			log.Fatal("Failed to register query observer", zap.Error(err))
		}
	}

	// 初始化 Redis 连接
	redisClient, err := cache.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))

	// 初始化外部服务客户端
	sender, err := newEmailSender(&cfg.Email, log)
	if err != nil {
		log.Fatal("Failed to init email sender", zap.Error(err))
	}
	uploader, err := newUploader(&cfg.OSS, log)
	if err != nil {
		log.Fatal("Failed to init oss uploader", zap.Error(err))
	}

	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "release", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	// 创建 Gin 引擎并设置路由
	engine := gin.New()
	setupRouter(engine, &routerDeps{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		metrics:     m,
		sender:      sender,
		uploader:    uploader,
	})

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// 创建超时上下文用于优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush traces", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		log.Error("Failed to close Redis", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		log.Error("Failed to close database", zap.Error(err))
	}

	log.Info("Server exited")
}

// newEmailSender 按配置选择邮件发送实现
func newEmailSender(cfg *config.EmailConfig, log *zap.Logger) (email.Sender, error) {
	switch cfg.Provider {
	case "sendgrid":
		return email.NewSendGridSender(&email.SendGridConfig{
			APIKey:    cfg.APIKey,
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		})
	case "", "mock":
		log.Warn("Email provider is mock, notifications are not delivered")
		return email.NewMockSender(), nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
	}
}

// newUploader 按配置选择对象存储实现
func newUploader(cfg *config.OSSConfig, log *zap.Logger) (oss.Uploader, error) {
	switch cfg.Provider {
	case "aliyun":
		return oss.NewAliyunUploader(&oss.AliyunConfig{
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			AccessKeySecret: cfg.AccessKeySecret,
			BucketName:      cfg.Bucket,
			Domain:          cfg.CustomDomain,
			BasePath:        cfg.UploadDir,
		})
	case "", "mock":
		log.Warn("OSS provider is mock, uploaded images are kept in memory")
		return oss.NewMockUploader(), nil
	default:
		return nil, fmt.Errorf("unsupported oss provider: %s", cfg.Provider)
	}
}
