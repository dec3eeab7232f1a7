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

	"hotel-media-api/internal/api"
	"hotel-media-api/internal/core/cache"
	"hotel-media-api/internal/core/compress"
	"hotel-media-api/internal/core/compress/webp"
	"hotel-media-api/internal/core/queue"
	"hotel-media-api/internal/core/upload"
	"hotel-media-api/internal/infrastructure/config"
	"hotel-media-api/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	if err := os.MkdirAll(cfg.Upload.Dir, 0755); err != nil {
		common.LogFatal("Failed to create upload dir", zap.String("dir", cfg.Upload.Dir), zap.Error(err))
	}

	// 初始化壓縮器
	preset, err := webp.ParsePreset(cfg.Compress.Preset)
	if err != nil {
		common.LogFatal("Invalid webp preset", zap.String("preset", cfg.Compress.Preset), zap.Error(err))
	}
	compressor := compress.NewCompressor(webp.NewEncoderWithPreset(preset), upload.CompressOptions(cfg.Compress))
	if err := compressor.Options().Validate(); err != nil {
		common.LogFatal("Invalid compress options", zap.Error(err))
	}

	// 初始化快取
	store, err := cache.NewStore(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	// 啟動壓縮隊列
	queueManager := queue.NewManager(cfg.Queue, compressor)
	queueManager.Start()
	defer queueManager.Close()

	// 設置路由
	router, err := api.SetupRouter(cfg, api.Services{
		Queue:  queueManager,
		Cache:  store,
		Format: compressor.Format(),
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		return
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
			zap.Bool("debug", cfg.App.Debug),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	common.LogInfo("Server exited")
}
