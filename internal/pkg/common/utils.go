package common

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// RequestID 取得或補上請求 ID
func RequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = c.Writer.Header().Get("X-Request-ID")
	}
	if requestID == "" {
		requestID = GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}
	return requestID
}

type requestIDKey struct{}

// WithRequestID 將請求 ID 放入 context，供下游記錄外部調用
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext 取出請求 ID，沒有時返回空字串
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WriteError 依錯誤類型寫入錯誤響應
func WriteError(c *gin.Context, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		err = ErrGatewayTimeout
	}
	if ce, ok := AsCustomError(err); ok {
		c.JSON(ce.Status, gin.H{
			"error": ce.Message,
			"code":  ce.Code,
		})
		return
	}
	if IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  ErrCodeInvalidRequest,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": ErrInternalError.Message,
		"code":  ErrCodeInternalError,
	})
}
