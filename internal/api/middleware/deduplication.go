package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-matcher/internal/pkg/common"
)

// dedupCache 最近請求指紋與時間
type dedupCache struct {
	mu       sync.Mutex
	requests map[string]time.Time
	window   time.Duration
	now      func() time.Time
}

// acquire 佔用指紋；同一指紋在 window 內已被佔用時回傳 false
func (d *dedupCache) acquire(fingerprint string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return false
	}
	d.requests[fingerprint] = now

	// 順手清掉過期指紋，避免無限成長
	if len(d.requests) > 1024 {
		for k, t := range d.requests {
			if now.Sub(t) > d.window {
				delete(d.requests, k)
			}
		}
	}
	return true
}

// release 釋放指紋，讓失敗的請求可以立即重送
func (d *dedupCache) release(fingerprint string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.requests, fingerprint)
}

// forget 釋放某個請求者的所有指紋
func (d *dedupCache) forget(actor string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prefix := actor + "|"
	for k := range d.requests {
		if strings.HasPrefix(k, prefix) {
			delete(d.requests, k)
		}
	}
}

// Deduplication 請求去重中間件：同一使用者在 window 內送出相同的 POST 請求會被拒絕；
// 只有 2xx 的請求會留下指紋
func Deduplication(window time.Duration) gin.HandlerFunc {
	if window <= 0 {
		window = time.Second
	}
	cache := &dedupCache{
		requests: make(map[string]time.Time),
		window:   window,
		now:      time.Now,
	}

	return func(c *gin.Context) {
		actor := dedupActor(c)

		switch c.Request.Method {
		case http.MethodPost:
		case http.MethodPut, http.MethodPatch, http.MethodDelete:
			// 狀態改變後（例如移除再加回）相同的 POST 不再視為重複
			c.Next()
			if succeeded(c) {
				cache.forget(actor)
			}
			return
		default:
			c.Next()
			return
		}

		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				c.Next()
				return
			}
			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		// 生成請求指紋
		fingerprint := actor + "|" + c.Request.Method + ":" + c.Request.URL.Path + ":" + bodyHash

		if !cache.acquire(fingerprint) {
			common.LogDebug("Duplicate request rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", common.RequestID(c)),
			)
			common.WriteError(c, common.ErrTooManyRequests.WithMessage("Request too frequent"))
			return
		}

		c.Next()

		if !succeeded(c) {
			cache.release(fingerprint)
		}
	}
}

// dedupActor 已登入時以使用者 ID 區分，否則用來源 IP
func dedupActor(c *gin.Context) string {
	if user, ok := CurrentUser(c); ok {
		return "user:" + strconv.FormatUint(uint64(user.UserID), 10)
	}
	return "ip:" + c.ClientIP()
}

func succeeded(c *gin.Context) bool {
	status := c.Writer.Status()
	return status >= 200 && status < 300
}
