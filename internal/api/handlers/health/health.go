package health

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"hotel-media-api/internal/core/queue"
	"hotel-media-api/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// QueueStatusProvider 提供壓縮隊列狀態
type QueueStatusProvider interface {
	GetQueueStatus() *queue.Status
}

// StatsProvider 提供快取統計
type StatsProvider interface {
	Stats() map[string]interface{}
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}

// Handler 健康檢查處理器
type Handler struct {
	version   string
	uploadDir string
	queue     QueueStatusProvider
	cache     StatsProvider
}

// NewHandler 創建健康檢查處理器，queue 與 cache 可為 nil
func NewHandler(version, uploadDir string, q QueueStatusProvider, cache StatsProvider) *Handler {
	return &Handler{
		version:   version,
		uploadDir: uploadDir,
		queue:     q,
		cache:     cache,
	}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if h.queue != nil {
		response.Queue = h.queue.GetQueueStatus()
	}
	if h.cache != nil {
		response.Cache = h.cache.Stats()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：上傳目錄可用且隊列運作中
func (h *Handler) ReadinessCheck(c *gin.Context) {
	checks := gin.H{}
	ready := true

	if info, err := os.Stat(h.uploadDir); err != nil || !info.IsDir() {
		checks["upload_dir"] = "unavailable"
		ready = false
	} else {
		checks["upload_dir"] = "ok"
	}

	if h.queue != nil {
		if h.queue.GetQueueStatus().Running {
			checks["queue"] = "ok"
		} else {
			checks["queue"] = "stopped"
			ready = false
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"checks": checks,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": checks,
	})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
