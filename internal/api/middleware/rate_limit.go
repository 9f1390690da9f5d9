package middleware

import (
	"math"
	"sync"
	"time"

	"recipe-browser/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter 令牌桶限流器，每個工作階段各自一個桶
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	rate     float64 // 每秒補充的令牌數
	idle     time.Duration
	lastGC   time.Time
}

type bucket struct {
	tokens   float64
	lastTime time.Time
}

// NewRateLimiter 創建新的限流器：每個鍵在 window 內最多 requests 次
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		idle:     window,
		lastGC:   time.Now(),
	}
}

// Allow 檢查 key 是否還有令牌；不允許時回傳需等待的時間
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	return rl.allowAt(key, time.Now())
}

func (rl *RateLimiter) allowAt(key string, now time.Time) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.gc(now)

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity, lastTime: now}
		rl.buckets[key] = b
	}

	// 添加新令牌
	elapsed := now.Sub(b.lastTime).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(rl.capacity, b.tokens+elapsed*rl.rate)
		b.lastTime = now
	}

	// 檢查是否有可用令牌
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := time.Duration((1 - b.tokens) / rl.rate * float64(time.Second))
	return false, wait
}

// Len 目前追蹤中的鍵數量
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// gc 移除閒置超過一個時間窗且已補滿的桶
func (rl *RateLimiter) gc(now time.Time) {
	if now.Sub(rl.lastGC) < rl.idle {
		return
	}
	rl.lastGC = now
	for k, b := range rl.buckets {
		if now.Sub(b.lastTime) >= rl.idle {
			delete(rl.buckets, k)
		}
	}
}

// rateLimitKey 用戶端自帶工作階段時以工作階段計算，否則以 IP 計算
func rateLimitKey(c *gin.Context) string {
	if id := SessionID(c); id != "" && !SessionIssued(c) {
		return "session:" + id
	}
	return "ip:" + c.ClientIP()
}

// RateLimit 限流中間件
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(requests, window)

	return func(c *gin.Context) {
		key := rateLimitKey(c)
		if ok, wait := limiter.Allow(key); !ok {
			common.LogInfo("Rate limit exceeded",
				zap.String("key", key),
				zap.String("path", c.Request.URL.Path),
				zap.Duration("retry_after", wait),
			)
			RespondRetry(c, common.ErrTooManyRequests, wait)
			return
		}

		c.Next()
	}
}
