package user

import (
	"recipe-matcher/internal/api/middleware"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/core/matching"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// Handler 使用者食材櫃與收藏處理程序
type Handler struct {
	store   catalog.Store
	matcher *matching.Service
}

// NewHandler 創建使用者處理程序
func NewHandler(store catalog.Store, matcher *matching.Service) *Handler {
	return &Handler{
		store:   store,
		matcher: matcher,
	}
}

// currentUser 取出目前使用者，沒有時直接寫入 401
func currentUser(c *gin.Context) (middleware.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		common.WriteError(c, common.ErrUnauthorized)
	}
	return user, ok
}
