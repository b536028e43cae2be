package common

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// RequestID 取得請求 ID，沒有時產生一個並寫回響應標頭
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

// WriteError 寫入錯誤響應；非 CustomError 一律視為 500 並記錄
func WriteError(c *gin.Context, err error) {
	ce := AsCustomError(err)
	if ce.Status >= 500 {
		LogError("請求處理失敗",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", RequestID(c)),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, ce.Response(gin.IsDebugging()))
}

// PathID 解析路徑中的正整數 ID
func PathID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidRequest.WithMessage(name + " must be a positive integer")
	}
	return uint(id), nil
}

// RespondJSON 寫入成功響應並記錄除錯資訊
func RespondJSON(c *gin.Context, status int, payload gin.H) {
	LogDebug("響應已送出",
		zap.Int("status", status),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", RequestID(c)),
	)
	c.JSON(status, payload)
}
