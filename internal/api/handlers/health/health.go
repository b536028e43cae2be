package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"recipe-matcher/internal/core/cache"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger 可檢查連線狀態的依賴
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}

// Handler 健康檢查處理程序
type Handler struct {
	config *config.Config
	store  Pinger
	cache  cache.Store
}

// NewHandler 創建健康檢查處理程序；cacheStore 可為 nil
func NewHandler(cfg *config.Config, store Pinger, cacheStore cache.Store) *Handler {
	return &Handler{
		config: cfg,
		store:  store,
		cache:  cacheStore,
	}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.config.App.Version,
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
	if h.cache != nil {
		response.Cache = h.cache.GetStats()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器：資料庫無法連線時回 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		common.LogWarn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"error":  "database unavailable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
