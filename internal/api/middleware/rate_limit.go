package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ingredient-engine/internal/pkg/common"
)

// RateLimiter 全域令牌桶：window 內最多 requests 個請求，令牌連續補充
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	perSec   float64
	last     time.Time
	now      func() time.Time
}

// NewRateLimiter 創建限流器
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   float64(requests),
		capacity: float64(requests),
		perSec:   float64(requests) / window.Seconds(),
		last:     time.Now(),
		now:      time.Now,
	}
}

// Reserve 取用一個令牌；不足時返回需要等待的時間
func (rl *RateLimiter) Reserve() (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.tokens = min(rl.capacity, rl.tokens+now.Sub(rl.last).Seconds()*rl.perSec)
	rl.last = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true, 0
	}
	wait := (1 - rl.tokens) / rl.perSec
	return false, time.Duration(wait * float64(time.Second))
}

// RateLimit 限流中間件
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(requests, window)

	return func(c *gin.Context) {
		ok, wait := limiter.Reserve()
		if ok {
			c.Next()
			return
		}

		retryAfter := int(math.Ceil(wait.Seconds()))
		common.LogWarn("超過速率限制",
			zap.String("request_id", common.RequestID(c)),
			zap.String("route", c.FullPath()),
			zap.Duration("retry_after", wait),
		)
		c.Header("Retry-After", strconv.Itoa(max(retryAfter, 1)))
		common.WriteError(c, common.ErrTooManyRequests)
		c.Abort()
	}
}
