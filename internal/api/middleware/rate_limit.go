package middleware

import (
	"strconv"
	"sync"
	"time"

	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter 令牌桶限流器
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastTime time.Time
	now      func() time.Time
}

// NewRateLimiter 創建新的限流器
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   float64(requests),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		lastTime: time.Now(),
		now:      time.Now,
	}
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	elapsed := now.Sub(rl.lastTime).Seconds()
	rl.lastTime = now

	// 依經過時間補充令牌
	rl.tokens = min(rl.capacity, rl.tokens+elapsed*rl.rate)

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// clientLimiters 以用戶端 IP 區分的限流器
type clientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*RateLimiter
	requests int
	window   time.Duration
}

func (l *clientLimiters) get(ip string) *RateLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	rl, ok := l.limiters[ip]
	if !ok {
		rl = NewRateLimiter(l.requests, l.window)
		l.limiters[ip] = rl
	}
	return rl
}

// RateLimit 依用戶端 IP 限流的中間件
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	limiters := &clientLimiters{
		limiters: make(map[string]*RateLimiter),
		requests: cfg.Requests,
		window:   cfg.Window,
	}

	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			common.WriteError(c, common.ErrTooManyRequests)
			return
		}

		c.Next()
	}
}
