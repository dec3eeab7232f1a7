package api

import (
	"fmt"
	"path/filepath"
	"time"

	"hotel-media-api/internal/api/handlers/health"
	"hotel-media-api/internal/api/handlers/media"
	"hotel-media-api/internal/api/middleware"
	"hotel-media-api/internal/core/asset"
	"hotel-media-api/internal/core/cache"
	"hotel-media-api/internal/core/image"
	"hotel-media-api/internal/core/queue"
	"hotel-media-api/internal/core/upload"
	"hotel-media-api/internal/infrastructure/config"
	"hotel-media-api/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipart 表單額外開銷
const formOverhead = 1 << 20

// Services 路由依賴的服務
type Services struct {
	Queue  *queue.Manager
	Cache  cache.Store
	Assets upload.AssetStore
	Format string
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc Services) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if svc.Queue == nil {
		return nil, fmt.Errorf("compression queue is required")
	}
	if svc.Assets == nil {
		svc.Assets = asset.NewClient(cfg.CDN)
	}

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	// CORS 設置，未設定來源時允許全部
	origins := cfg.CORS.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 初始化服務
	imageService := image.NewService(cfg.Upload.MaxUploadBytes())
	uploadService := upload.NewService(cfg, svc.Queue, svc.Format, svc.Cache, svc.Assets)
	mediaHandler := media.NewHandler(imageService, uploadService)
	healthHandler := health.NewHandler(cfg.App.Version, cfg.Upload.Dir, svc.Queue, svc.Cache)

	common.LogInfo("Services initialized",
		zap.Bool("cache_enabled", svc.Cache != nil),
		zap.Int("queue_workers", cfg.Queue.Workers),
		zap.Bool("cdn_configured", cfg.CDN.Configured()),
		zap.Int64("max_upload_bytes", imageService.MaxSizeBytes()),
	)

	// 健康檢查路由
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	// 靜態檔案
	router.Static(upload.PublicPrefix, filepath.Clean(cfg.Upload.Dir))

	// API 路由組
	api := router.Group("/api/v1")
	api.Use(middleware.ErrorHandler(cfg.App.Debug))
	api.Use(middleware.BodySizeLimit(cfg.Upload.MaxUploadBytes() + formOverhead))
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		limiter.StartCleanup(cfg.RateLimit.Window)
		api.Use(limiter.Middleware())
	}
	dedup := middleware.NewDeduplicator(cfg.DedupWindow)
	dedup.StartCleanup(10 * time.Minute)
	api.Use(dedup.Middleware())
	api.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	{
		api.POST("/compress", mediaHandler.Compress)

		assets := api.Group("/assets")
		{
			assets.POST("", mediaHandler.CreateAsset)
			assets.PUT("/*public_id", mediaHandler.ReplaceAsset)
			assets.DELETE("/*public_id", mediaHandler.DeleteAsset)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.String("upload_dir", cfg.Upload.Dir),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Duration("dedup_window", cfg.DedupWindow),
	)

	return router, nil
}
