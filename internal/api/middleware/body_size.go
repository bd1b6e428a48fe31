package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ingredient-engine/internal/pkg/common"
)

// BodySizeLimit 限制請求體大小，maxSize <= 0 時不限制。
// 宣告的 Content-Length 過大時直接回 413；未宣告長度的請求讀到上限即失敗。
func BodySizeLimit(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			common.LogWarn("請求體過大",
				zap.Int64("content_length", c.Request.ContentLength),
				zap.Int64("max_size", maxSize),
				zap.String("route", c.FullPath()),
			)
			common.WriteError(c, common.ErrPayloadTooLarge)
			c.Abort()
			return
		}

		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}
		c.Next()
	}
}
