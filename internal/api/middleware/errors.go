package middleware

import (
	"hotel-media-api/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler 將 handler 透過 c.Error 回報的最後一個錯誤轉成 JSON 響應
func ErrorHandler(debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, resp := common.ToErrorResponse(err, debug)
		if status >= 500 {
			common.LogError("Request failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		}
		c.AbortWithStatusJSON(status, resp)
	}
}
