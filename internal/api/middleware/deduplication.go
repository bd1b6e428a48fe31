package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ingredient-engine/internal/pkg/common"
)

// sweepThreshold 記錄數超過此值時清除過期指紋
const sweepThreshold = 1024

// deduplicator 以請求指紋去除短時間內重複送出的寫入請求
type deduplicator struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
}

// Deduplication 請求去重中間件：window 內同一用戶端以相同方法、路徑與請求體送出的 POST 會被拒絕。
// 只掛在會寫入的路由上；window <= 0 時不啟用。
func Deduplication(window time.Duration) gin.HandlerFunc {
	if window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	d := &deduplicator{
		seen:   make(map[string]time.Time),
		window: window,
	}
	return d.handle
}

func (d *deduplicator) handle(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Next()
		return
	}

	// 計算請求體哈希
	fingerprint := c.ClientIP() + ":" + c.Request.Method + ":" + c.Request.URL.Path
	if c.Request.Body != nil {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			common.LogError("Failed to read request body", zap.Error(err))
			common.WriteError(c, common.ErrInvalidRequest)
			c.Abort()
			return
		}
		hash := sha256.Sum256(body)
		fingerprint += ":" + hex.EncodeToString(hash[:])

		// 恢復請求體
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	}

	if d.isDuplicate(fingerprint, time.Now()) {
		common.LogWarn("重複請求",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", common.RequestID(c)),
		)
		common.WriteError(c, common.ErrTooManyRequests)
		c.Abort()
		return
	}

	c.Next()
}

// isDuplicate 檢查並記錄指紋
func (d *deduplicator) isDuplicate(fingerprint string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.seen[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.seen[fingerprint] = now

	if len(d.seen) > sweepThreshold {
		for k, t := range d.seen {
			if now.Sub(t) > d.window {
				delete(d.seen, k)
			}
		}
	}
	return false
}
