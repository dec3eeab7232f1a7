package middleware

import (
	"time"

	"hotel-media-api/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger 日誌中間件
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		reqID := requestid.Get(c)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), reqID))

		// 處理請求
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		// 構建基本日誌字段
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
			zap.Duration("latency", latency),
			zap.Int("bytes", c.Writer.Size()),
			zap.String("request_id", reqID),
		}
		fields = append(fields, compressionFields(c)...)

		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		// 根據狀態碼記錄不同級別的日誌
		switch {
		case status >= 500:
			common.LogError("伺服器錯誤",
				append(fields, zap.String("error_type", "server_error"))...,
			)
		case status >= 400:
			common.LogWarn("用戶端錯誤",
				append(fields, zap.String("error_type", "client_error"))...,
			)
		case status >= 300:
			common.LogInfo("重新導向",
				append(fields, zap.String("error_type", "redirect"))...,
			)
		default:
			common.LogInfo("請求完成",
				fields...,
			)
		}
	}
}

// compressionFields 處理器記錄的壓縮結果
func compressionFields(c *gin.Context) []zap.Field {
	v, ok := c.Get(common.CtxKeyCompression)
	if !ok {
		return nil
	}
	meta, ok := v.(common.ImageMeta)
	if !ok {
		return nil
	}
	if !meta.Compressed() {
		// 壓縮失敗，回退為原圖
		return []zap.Field{
			zap.Bool("compress_fallback", true),
			zap.Int64("size", meta.Size),
		}
	}
	fields := []zap.Field{
		zap.Int("quality", meta.Quality),
		zap.Int64("compressed_size", meta.CompressedSize),
		zap.String("format", meta.Format),
	}
	if meta.OriginalSize > 0 {
		fields = append(fields, zap.Int64("original_size", meta.OriginalSize))
	}
	return fields
}

// Recovery 恢復中間件
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				common.LogError("Panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)

				c.AbortWithStatusJSON(500, common.ErrorResponse{
					Code:    common.ErrCodeInternalError,
					Message: common.ErrInternalError.Message,
				})
			}
		}()

		c.Next()
	}
}
