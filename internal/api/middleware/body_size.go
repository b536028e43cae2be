package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-matcher/internal/pkg/common"
)

// errBodyTooLarge 請求體超過上限
var errBodyTooLarge = common.NewError("REQUEST_TOO_LARGE", "Request body too large", http.StatusRequestEntityTooLarge, nil)

// BodySizeLimit 限制請求體大小的中間件
func BodySizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 檢查 Content-Length
		if c.Request.ContentLength > maxSize {
			common.LogWarn("Request body too large",
				zap.Int64("content_length", c.Request.ContentLength),
				zap.Int64("max_size", maxSize),
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			common.WriteError(c, errBodyTooLarge)
			return
		}

		// 設置請求體大小限制
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)

		c.Next()
	}
}
